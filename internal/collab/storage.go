package collab

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DiskStorage stores files under a root directory, named by content digest.
type DiskStorage struct {
	root string
}

// NewDiskStorage creates storage rooted at dir. The directory is created on
// first use.
func NewDiskStorage(dir string) *DiskStorage {
	return &DiskStorage{root: dir}
}

// Store writes data and returns its file URL, SHA-256 hex digest and size.
// Identical content from the same owner is stored once.
func (d *DiskStorage) Store(ctx context.Context, data []byte, meta FileMeta) (StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return StoredFile{}, err
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	dir := filepath.Join(d.root, safeSegment(meta.OwnerID))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return StoredFile{}, fmt.Errorf("create storage dir: %w", err)
	}

	name := hash + strings.ToLower(filepath.Ext(meta.FileName))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return StoredFile{}, fmt.Errorf("write file: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return StoredFile{}, fmt.Errorf("resolve path: %w", err)
	}
	return StoredFile{
		URL:  "file://" + filepath.ToSlash(abs),
		Hash: hash,
		Size: int64(len(data)),
	}, nil
}

// safeSegment keeps an owner id from escaping the storage root.
func safeSegment(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
	if s == "" {
		return "_"
	}
	return s
}
