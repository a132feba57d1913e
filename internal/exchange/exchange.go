// Package exchange implements the upload-and-download protocol: validate the
// selected files for a mode, post them as multipart/form-data, and turn the
// response into a DownloadResult or a classified Failure.
package exchange

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"specgen/internal/domain"
	specerrors "specgen/pkg/errors"
	"specgen/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

// Doer is the subset of *http.Client the exchange needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Recorder receives exchange measurements. Outcome is a Kind string or "success".
type Recorder interface {
	ExchangeStarted(mode string)
	ExchangeFinished(mode, outcome string, elapsed time.Duration, downloadedBytes int64)
}

type nopRecorder struct{}

func (nopRecorder) ExchangeStarted(string)                                {}
func (nopRecorder) ExchangeFinished(string, string, time.Duration, int64) {}

const OutcomeSuccess = "success"

// Options configures a Client.
type Options struct {
	Endpoint        string
	ModeField       string
	DefaultFilename string
	UserAgent       string
	Profiles        map[domain.Mode]domain.Profile

	HTTPClient   Doer
	Logger       *logger.Logger
	Recorder     Recorder
	NewRequestID func() string
}

// Client runs exchanges against one endpoint. It holds no per-request state,
// so concurrent calls are possible; the Trigger is what keeps a front end to
// one at a time.
type Client struct {
	endpoint        string
	modeField       string
	defaultFilename string
	userAgent       string
	profiles        map[domain.Mode]domain.Profile

	http         Doer
	logger       *logger.Logger
	recorder     Recorder
	newRequestID func() string
}

func NewClient(opts Options) (*Client, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if opts.ModeField == "" {
		return nil, fmt.Errorf("mode field is required")
	}
	if len(opts.Profiles) == 0 {
		return nil, fmt.Errorf("at least one mode profile is required")
	}
	if opts.DefaultFilename == "" {
		opts.DefaultFilename = "generated_files.zip"
	}
	if opts.HTTPClient == nil {
		// no Timeout: the exchange waits as long as the transport does
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.New()
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.NewRequestID == nil {
		opts.NewRequestID = uuid.NewString
	}

	return &Client{
		endpoint:        opts.Endpoint,
		modeField:       opts.ModeField,
		defaultFilename: opts.DefaultFilename,
		userAgent:       opts.UserAgent,
		profiles:        opts.Profiles,
		http:            opts.HTTPClient,
		logger:          opts.Logger.WithField("component", "exchange"),
		recorder:        opts.Recorder,
		newRequestID:    opts.NewRequestID,
	}, nil
}

// Endpoint returns the URL uploads are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Profile returns the request shape for a mode.
func (c *Client) Profile(mode domain.Mode) (domain.Profile, bool) {
	p, ok := c.profiles[mode]
	return p, ok
}

// Validate checks that req fills every slot of its mode. It never touches the network.
func (c *Client) Validate(req *domain.UploadRequest) error {
	err := c.validate(req)
	if err != nil {
		c.recorder.ExchangeFinished(modeLabel(req), KindValidation.String(), 0, 0)
		c.logger.Debug("upload rejected before sending", "mode", modeLabel(req), "error", err)
		return err
	}
	return nil
}

func (c *Client) validate(req *domain.UploadRequest) error {
	if req == nil {
		return &Failure{Kind: KindValidation, Message: "no files selected", Err: specerrors.ErrNoFilesSelected}
	}

	profile, ok := c.profiles[req.Mode]
	if !ok {
		return &Failure{
			Kind:    KindValidation,
			Mode:    req.Mode,
			Message: fmt.Sprintf("unknown mode %q", req.Mode),
			Err:     specerrors.ErrUnknownMode,
		}
	}

	if missing := req.Check(profile); len(missing) > 0 {
		message := profile.ValidationMessage
		if message == "" {
			message = "no files selected"
		}
		return &Failure{
			Kind:    KindValidation,
			Mode:    req.Mode,
			Message: message,
			Missing: missing,
			Err:     specerrors.ErrNoFilesSelected,
		}
	}

	return nil
}

// Exchange validates req, posts it, and returns the downloaded artifact.
// Every error it returns is a *Failure.
func (c *Client) Exchange(ctx context.Context, req *domain.UploadRequest) (*domain.DownloadResult, error) {
	if err := c.Validate(req); err != nil {
		return nil, err
	}

	profile := c.profiles[req.Mode]
	if extra := req.Unexpected(profile); len(extra) > 0 {
		c.logger.Warn("ignoring fields not defined for mode", "mode", req.Mode, "fields", extra)
	}

	requestID := c.newRequestID()
	log := c.logger.WithFields("requestId", requestID, "mode", req.Mode)

	c.recorder.ExchangeStarted(req.Mode.String())
	start := time.Now()

	body, contentType, err := encodeForm(c.modeField, req, profile)
	if err != nil {
		// only reachable if writing to a bytes.Buffer fails
		return nil, c.abort(log, req.Mode, start, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, c.abort(log, req.Mode, start, err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set(RequestIDHeader, requestID)
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	log.Info("uploading files",
		"endpoint", c.endpoint,
		"files", req.FileCount(),
		"bytes", req.TotalSize())

	result, failure := c.roundTrip(httpReq, req.Mode, requestID)
	elapsed := time.Since(start)

	if failure != nil {
		c.recorder.ExchangeFinished(req.Mode.String(), failure.Kind.String(), elapsed, 0)
		log.Error("upload failed", "kind", failure.Kind, "status", failure.StatusCode, "error", failure.Message, "elapsed", elapsed)
		return nil, failure
	}

	c.recorder.ExchangeFinished(req.Mode.String(), OutcomeSuccess, elapsed, result.Size())
	log.Info("download received",
		"filename", result.Filename,
		"bytes", result.Size(),
		"contentType", result.ContentType,
		"elapsed", elapsed)

	return result, nil
}

// abort records a request that failed before it could be sent.
func (c *Client) abort(log *logger.Logger, mode domain.Mode, start time.Time, err error) *Failure {
	failure := &Failure{Kind: KindTransport, Mode: mode, Message: err.Error(), Err: err}
	c.recorder.ExchangeFinished(mode.String(), failure.Kind.String(), time.Since(start), 0)
	log.Error("failed to build upload request", "error", err)
	return failure
}

func (c *Client) roundTrip(httpReq *http.Request, mode domain.Mode, requestID string) (*domain.DownloadResult, *Failure) {
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &Failure{Kind: KindTransport, Mode: mode, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Failure{Kind: KindServer, Mode: mode, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Failure{Kind: KindTransport, Mode: mode, Message: err.Error(), Err: err}
	}

	if id := resp.Header.Get(RequestIDHeader); id != "" {
		requestID = id
	}

	return &domain.DownloadResult{
		Data:        data,
		Filename:    ResolveFilename(resp.Header.Get("Content-Disposition"), c.defaultFilename),
		ContentType: resp.Header.Get("Content-Type"),
		RequestID:   requestID,
	}, nil
}

func modeLabel(req *domain.UploadRequest) string {
	if req == nil || req.Mode == "" {
		return "none"
	}
	return req.Mode.String()
}
