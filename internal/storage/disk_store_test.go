package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSaveUsesRandomNameWithOriginalExtension(t *testing.T) {
	dir := t.TempDir()
	store := NewDiskStore(dir, "/uploads", zap.NewNop())

	path, err := store.Save([]byte("payload"), "report.pdf")
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(path, "/uploads/"))
	name := filepath.Base(path)
	assert.True(t, strings.HasSuffix(name, ".pdf"))

	_, err = uuid.Parse(strings.TrimSuffix(name, ".pdf"))
	assert.NoError(t, err, "stored name must be a uuid")

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestSaveHandlesExtensionlessName(t *testing.T) {
	store := NewDiskStore(t.TempDir(), "/uploads", zap.NewNop())
	path, err := store.Save([]byte("x"), "README")
	require.NoError(t, err)
	assert.NotContains(t, filepath.Base(path), ".")
}

func TestSaveDoesNotCollideOnSameName(t *testing.T) {
	store := NewDiskStore(t.TempDir(), "/uploads", zap.NewNop())

	first, err := store.Save([]byte("one"), "dup.txt")
	require.NoError(t, err)
	second, err := store.Save([]byte("two"), "dup.txt")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestDeleteRemovesStoredFile(t *testing.T) {
	dir := t.TempDir()
	store := NewDiskStore(dir, "/uploads", zap.NewNop())

	path, err := store.Save([]byte("bye"), "note.txt")
	require.NoError(t, err)

	require.NoError(t, store.Delete(path))
	assert.NoFileExists(t, filepath.Join(dir, filepath.Base(path)))
}

func TestDeleteMissingFileIsNotAnError(t *testing.T) {
	store := NewDiskStore(t.TempDir(), "/uploads", zap.NewNop())
	assert.NoError(t, store.Delete("/uploads/never-existed.txt"))
}
