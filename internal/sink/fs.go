package sink

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"specgen/internal/domain"
	specerrors "specgen/pkg/errors"
	"specgen/pkg/logger"
)

// maxDuplicates bounds the " (n)" suffix search.
const maxDuplicates = 1000

// FileSink writes artifacts into one directory.
type FileSink struct {
	dir       string
	overwrite bool
	logger    *logger.Logger
}

func NewFileSink(dir string, overwrite bool, log *logger.Logger) *FileSink {
	if log == nil {
		log = logger.New()
	}
	return &FileSink{
		dir:       dir,
		overwrite: overwrite,
		logger:    log.WithField("component", "fs-sink"),
	}
}

// Save writes result under the sink directory. Without overwrite an existing
// name gets a " (n)" suffix before its extension.
func (s *FileSink) Save(ctx context.Context, result *domain.DownloadResult) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name, err := SafeName(result.Filename)
	if err != nil {
		return "", err
	}

	dir, err := filepath.Abs(s.dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve output directory %s: %w", s.dir, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	file, path, err := s.create(dir, name)
	if err != nil {
		return "", err
	}

	if _, err := file.Write(result.Data); err != nil {
		file.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}

	s.logger.Info("artifact saved", "path", path, "bytes", result.Size())
	return path, nil
}

func (s *FileSink) create(dir, name string) (*os.File, string, error) {
	if s.overwrite {
		path, err := within(dir, name)
		if err != nil {
			return nil, "", err
		}
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create %s: %w", path, err)
		}
		return file, path, nil
	}

	for n := 0; n < maxDuplicates; n++ {
		path, err := within(dir, numbered(name, n))
		if err != nil {
			return nil, "", err
		}
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return file, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("failed to create %s: %w", path, err)
		}
	}
	return nil, "", fmt.Errorf("too many files named %s in %s", name, dir)
}

// numbered returns name for n == 0 and "stem (n).ext" otherwise.
func numbered(name string, n int) string {
	if n == 0 {
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		// dotfile such as ".zip"
		stem, ext = name, ""
	}
	return fmt.Sprintf("%s (%d)%s", stem, n, ext)
}

func within(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q escapes %s", specerrors.ErrInvalidFilename, name, dir)
	}
	return path, nil
}
