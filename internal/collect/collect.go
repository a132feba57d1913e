// Package collect turns local paths into upload payloads.
package collect

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"specgen/internal/domain"
	specerrors "specgen/pkg/errors"
)

const defaultContentType = "application/octet-stream"

// documentTypes covers formats the builtin mime table lacks on hosts
// without /etc/mime.types.
var documentTypes = map[string]string{
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xlsm": "application/vnd.ms-excel.sheet.macroEnabled.12",
	".xls":  "application/vnd.ms-excel",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".csv":  "text/csv",
	".md":   "text/markdown",
	".zip":  "application/zip",
}

// Collector reads files from disk, enforcing a per-file size cap.
type Collector struct {
	maxFileSize int64
}

func New(maxFileSize int64) *Collector {
	return &Collector{maxFileSize: maxFileSize}
}

// File reads a single regular file into a payload.
func (c *Collector) File(path string) (domain.FilePayload, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return domain.FilePayload{}, fmt.Errorf("failed to get absolute path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return domain.FilePayload{}, fmt.Errorf("path does not exist: %w", err)
	}
	if info.IsDir() {
		return domain.FilePayload{}, fmt.Errorf("expected file but got directory: %s", path)
	}
	if c.maxFileSize > 0 && info.Size() > c.maxFileSize {
		return domain.FilePayload{}, fmt.Errorf("%w: %s is %.2f MB (limit %.2f MB)",
			specerrors.ErrFileTooLarge, path, megabytes(info.Size()), megabytes(c.maxFileSize))
	}

	f, err := os.Open(absPath)
	if err != nil {
		return domain.FilePayload{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	reader := io.Reader(f)
	if c.maxFileSize > 0 {
		// the file may grow between Stat and Read
		reader = io.LimitReader(f, c.maxFileSize+1)
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return domain.FilePayload{}, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	if c.maxFileSize > 0 && int64(len(content)) > c.maxFileSize {
		return domain.FilePayload{}, fmt.Errorf("%w: %s", specerrors.ErrFileTooLarge, path)
	}

	name := filepath.Base(absPath)
	return domain.FilePayload{
		Name:        name,
		ContentType: ContentType(name),
		Data:        content,
	}, nil
}

// Files reads paths in order.
func (c *Collector) Files(paths []string) ([]domain.FilePayload, error) {
	files := make([]domain.FilePayload, 0, len(paths))
	for _, p := range paths {
		f, err := c.File(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// ContentType guesses a MIME type from the file extension.
func ContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return defaultContentType
	}
	if ct, ok := documentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return defaultContentType
}

func megabytes(n int64) float64 {
	return float64(n) / 1024 / 1024
}
