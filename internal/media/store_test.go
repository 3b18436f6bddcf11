package media

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hisabkitab/backend/internal/config"
	"github.com/hisabkitab/backend/internal/ledger"
	"github.com/stretchr/testify/assert"
)

// Minimal valid PNG header followed by padding, enough for content sniffing.
func pngBytes(size int) []byte {
	header := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	buf := make([]byte, size)
	copy(buf, header)
	return buf
}

func testStore(t *testing.T, maxSize int64) *Store {
	t.Helper()
	cfg := &config.MediaConfig{
		UploadDir:         t.TempDir(),
		MaxFileSizeBytes:  maxSize,
		AllowedExtensions: []string{".jpg", ".jpeg", ".png", ".gif", ".webp"},
		PublicPathPrefix:  "/uploads/",
	}
	store, err := NewStore(cfg)
	assert.NoError(t, err)
	return store
}

func dirEntries(t *testing.T, store *Store) int {
	t.Helper()
	entries, err := os.ReadDir(store.cfg.UploadDir)
	assert.NoError(t, err)
	return len(entries)
}

func TestStore_Save(t *testing.T) {
	t.Run("accepts a valid image", func(t *testing.T) {
		store := testStore(t, 1024)

		up, err := store.Save("receipt.png", bytes.NewReader(pngBytes(600)))
		assert.NoError(t, err)
		assert.True(t, strings.HasPrefix(up.Ref(), "/uploads/"))
		assert.True(t, strings.HasSuffix(up.Ref(), ".png"))

		up.Commit()
		up.Discard() // no-op after commit
		assert.Equal(t, 1, dirEntries(t, store))

		path := filepath.Join(store.cfg.UploadDir, filepath.Base(up.Ref()))
		data, err := os.ReadFile(path)
		assert.NoError(t, err)
		assert.Len(t, data, 600)
	})

	t.Run("rejects disallowed extension", func(t *testing.T) {
		store := testStore(t, 1024)

		_, err := store.Save("notes.pdf", bytes.NewReader(pngBytes(100)))
		assert.Error(t, err)
		assert.Equal(t, ledger.KindValidation, ledger.KindOf(err))
		assert.Equal(t, 0, dirEntries(t, store))
	})

	t.Run("rejects non-image content with image extension", func(t *testing.T) {
		store := testStore(t, 1024)

		_, err := store.Save("fake.png", strings.NewReader("%PDF-1.4 not an image at all"))
		assert.Error(t, err)
		assert.Equal(t, ledger.KindValidation, ledger.KindOf(err))
		assert.Equal(t, 0, dirEntries(t, store))
	})

	t.Run("rejects oversized file and leaves no file behind", func(t *testing.T) {
		store := testStore(t, 1024)

		_, err := store.Save("big.png", bytes.NewReader(pngBytes(2048)))
		assert.Error(t, err)
		assert.Equal(t, ledger.KindValidation, ledger.KindOf(err))
		assert.Equal(t, 0, dirEntries(t, store))
	})

	t.Run("size exactly at the cap is accepted", func(t *testing.T) {
		store := testStore(t, 1024)

		up, err := store.Save("edge.png", bytes.NewReader(pngBytes(1024)))
		assert.NoError(t, err)
		up.Commit()
		assert.Equal(t, 1, dirEntries(t, store))
	})
}

func TestUpload_Discard(t *testing.T) {
	t.Run("removes uncommitted file", func(t *testing.T) {
		store := testStore(t, 1024)

		up, err := store.Save("receipt.png", bytes.NewReader(pngBytes(100)))
		assert.NoError(t, err)
		assert.Equal(t, 1, dirEntries(t, store))

		up.Discard()
		assert.Equal(t, 0, dirEntries(t, store))
	})

	t.Run("nil upload is safe", func(t *testing.T) {
		var up *Upload
		up.Discard()
	})
}
