package media

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hisabkitab/backend/internal/config"
	"github.com/hisabkitab/backend/internal/ledger"
)

// Store validates and persists message image attachments on local disk and
// hands back stable /uploads/<name> references. Validation happens before
// anything is persisted; a stored file is kept only after the surrounding
// operation commits it, every other exit path discards it so no orphaned
// media is left behind.
type Store struct {
	cfg *config.MediaConfig
}

// Upload is a scoped acquisition of one stored file. Exactly one of Commit
// or Discard decides its fate; Discard after Commit is a no-op, so callers
// can `defer up.Discard()` and commit on the success path.
type Upload struct {
	path      string
	ref       string
	committed bool
}

func NewStore(cfg *config.MediaConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{cfg: cfg}, nil
}

// Save validates the attachment (size cap, image-only allow-list by
// extension and sniffed content type) and writes it under a uuid filename.
func (s *Store) Save(originalName string, r io.Reader) (*Upload, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !s.extensionAllowed(ext) {
		return nil, ledger.NewValidationError("Images only")
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, ledger.NewStorageError("read upload", err)
	}
	head = head[:n]

	if !strings.HasPrefix(http.DetectContentType(head), "image/") {
		return nil, ledger.NewValidationError("Images only")
	}

	name := uuid.NewString() + ext
	path := filepath.Join(s.cfg.UploadDir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, ledger.NewStorageError("create upload file", err)
	}

	// +1 so a stream exactly one byte over the cap is detectable.
	written, err := io.Copy(f, io.MultiReader(bytes.NewReader(head), io.LimitReader(r, s.cfg.MaxFileSizeBytes+1)))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, ledger.NewStorageError("write upload file", err)
	}
	if written > s.cfg.MaxFileSizeBytes {
		os.Remove(path)
		return nil, ledger.NewValidationError("Image exceeds maximum size")
	}

	return &Upload{path: path, ref: s.cfg.PublicPathPrefix + name}, nil
}

func (s *Store) extensionAllowed(ext string) bool {
	for _, allowed := range s.cfg.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Ref is the stable reference persisted on the message record.
func (u *Upload) Ref() string { return u.ref }

// Commit keeps the file.
func (u *Upload) Commit() { u.committed = true }

// Discard removes the file unless it was committed.
func (u *Upload) Discard() {
	if u == nil || u.committed {
		return
	}
	if err := os.Remove(u.path); err != nil && !os.IsNotExist(err) {
		log.Printf("[MEDIA] Failed to remove uncommitted upload %s: %v", u.path, err)
	}
}
