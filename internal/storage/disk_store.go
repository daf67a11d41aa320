package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AttachmentStore durably stores uploaded files and returns retrievable
// paths. Delete tolerates paths that no longer resolve to a file.
type AttachmentStore interface {
	Save(data []byte, originalName string) (string, error)
	Delete(path string) error
}

// DiskStore writes attachments under a local uploads directory. Stored names
// are random so concurrent uploads of identically named files never collide.
type DiskStore struct {
	dir          string
	publicPrefix string
	logger       *zap.Logger
}

// NewDiskStore creates the store rooted at dir. Returned paths are prefixed
// with publicPrefix (e.g. "/uploads").
func NewDiskStore(dir, publicPrefix string, logger *zap.Logger) *DiskStore {
	return &DiskStore{
		dir:          dir,
		publicPrefix: strings.TrimSuffix(publicPrefix, "/"),
		logger:       logger,
	}
}

// Save writes the file under a uuid-derived name, preserving the original
// extension, and returns its public path.
func (s *DiskStore) Save(data []byte, originalName string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create uploads dir: %w", err)
	}

	name := uuid.NewString() + filepath.Ext(originalName)
	target := filepath.Join(s.dir, name)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write attachment: %w", err)
	}

	s.logger.Info("attachment stored", zap.String("file", name), zap.Int("bytes", len(data)))
	return s.publicPrefix + "/" + name, nil
}

// Delete removes the file behind a public path. A missing file is not an
// error; it is logged and skipped.
func (s *DiskStore) Delete(path string) error {
	name := filepath.Base(path)
	target := filepath.Join(s.dir, name)
	if err := os.Remove(target); err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("attachment already gone", zap.String("path", path))
			return nil
		}
		return fmt.Errorf("delete attachment: %w", err)
	}
	s.logger.Info("attachment deleted", zap.String("path", path))
	return nil
}
