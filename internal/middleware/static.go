package middleware

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// UploadsFileServer serves committed message media from the uploads
// directory. References are flat uuid filenames, so any path that tries to
// escape the directory is rejected outright.
func UploadsFileServer(dir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Clean(r.URL.Path)
		if name == "." || strings.Contains(name, "..") || strings.ContainsRune(name, filepath.Separator) && filepath.Dir(name) != "/" {
			http.NotFound(w, r)
			return
		}

		path := filepath.Join(dir, filepath.Base(name))
		if _, err := os.Stat(path); err != nil {
			http.NotFound(w, r)
			return
		}

		// Media is immutable once committed, cache aggressively.
		w.Header().Set("Cache-Control", "public, max-age=2592000")
		http.ServeFile(w, r, path)
	})
}
