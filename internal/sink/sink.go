// Package sink saves downloaded artifacts to the local filesystem or to S3.
package sink

import (
	"context"
	"fmt"
	"path"
	"strings"

	"specgen/internal/domain"
	"specgen/pkg/config"
	specerrors "specgen/pkg/errors"
	"specgen/pkg/logger"
)

// Sink stores one artifact and returns where it ended up.
type Sink interface {
	Save(ctx context.Context, result *domain.DownloadResult) (string, error)
}

// New builds the sink selected by cfg.Output.Sink.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (Sink, error) {
	switch cfg.Output.Sink {
	case config.SinkFS, "":
		return NewFileSink(cfg.Output.Dir, cfg.Output.Overwrite, log), nil
	case config.SinkS3:
		return NewObjectSink(ctx, cfg.S3, log)
	default:
		return nil, fmt.Errorf("unsupported sink: %s", cfg.Output.Sink)
	}
}

// SafeName reduces a server-supplied filename to its last path element.
// Backslashes count as separators. Names that reduce to nothing are rejected.
func SafeName(name string) (string, error) {
	if strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("%w: %q", specerrors.ErrInvalidFilename, name)
	}
	base := strings.TrimSpace(path.Base(strings.ReplaceAll(name, `\`, "/")))
	switch base {
	case "", ".", "..", "/":
		return "", fmt.Errorf("%w: %q", specerrors.ErrInvalidFilename, name)
	}
	return base, nil
}
