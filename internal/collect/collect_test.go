package collect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	specerrors "specgen/pkg/errors"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestCollector_File(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "design.xlsx", []byte("PK\x03\x04 sheet"))

	payload, err := New(1024).File(path)
	require.NoError(t, err)

	assert.Equal(t, "design.xlsx", payload.Name)
	assert.Equal(t, []byte("PK\x03\x04 sheet"), payload.Data)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", payload.ContentType)
}

func TestCollector_FileRejectsDirectory(t *testing.T) {
	_, err := New(1024).File(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected file but got directory")
}

func TestCollector_FileMissing(t *testing.T) {
	_, err := New(1024).File(filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path does not exist")
}

func TestCollector_FileTooLarge(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "big.xlsx", make([]byte, 11))

	_, err := New(10).File(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, specerrors.ErrFileTooLarge)
}

func TestCollector_FilesKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	b := writeFile(t, dir, "b.xlsx", []byte("b"))
	a := writeFile(t, dir, "a.xlsx", []byte("a"))

	files, err := New(0).Files([]string{b, a})
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "b.xlsx", files[0].Name)
	assert.Equal(t, "a.xlsx", files[1].Name)
}

func TestContentType(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"README", "application/octet-stream"},
		{"archive.unknownext", "application/octet-stream"},
		{"SPEC.XLSX", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContentType(tt.name))
		})
	}
}
