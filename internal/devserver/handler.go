// Package devserver is a local stand-in for the generation service. It
// accepts the same multipart upload and answers with a zip built from the
// uploaded files, so the client can be exercised without the real backend.
package devserver

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"specgen/internal/domain"
	"specgen/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

// Options configures a Handler.
type Options struct {
	ModeField         string
	Profiles          map[domain.Mode]domain.Profile
	AllowedExtensions []string
	ArchivePrefix     string
	MaxMemory         int64
	Logger            *logger.Logger
	Now               func() time.Time
}

// Handler serves the upload endpoint.
type Handler struct {
	modeField  string
	profiles   map[domain.Mode]domain.Profile
	extensions []string
	prefix     string
	maxMemory  int64
	logger     *logger.Logger
	now        func() time.Time
}

func NewHandler(opts Options) *Handler {
	if opts.ModeField == "" {
		opts.ModeField = "testType"
	}
	if opts.ArchivePrefix == "" {
		opts.ArchivePrefix = "test_spec"
	}
	if opts.MaxMemory <= 0 {
		opts.MaxMemory = 32 << 20
	}
	if opts.Logger == nil {
		opts.Logger = logger.New()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Handler{
		modeField:  opts.ModeField,
		profiles:   opts.Profiles,
		extensions: opts.AllowedExtensions,
		prefix:     opts.ArchivePrefix,
		maxMemory:  opts.MaxMemory,
		logger:     opts.Logger.WithField("component", "devserver"),
		now:        opts.Now,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get(requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(requestIDHeader, requestID)
	log := h.logger.WithField("requestId", requestID)

	if r.Method != http.MethodPost {
		log.Info("method not allowed", "method", r.Method, "path", r.URL.Path)
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(h.maxMemory); err != nil {
		h.reject(w, log, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	mode, err := domain.ParseMode(formValue(r.MultipartForm, h.modeField))
	if err != nil {
		h.reject(w, log, err.Error())
		return
	}
	profile, ok := h.profiles[mode]
	if !ok {
		h.reject(w, log, fmt.Sprintf("mode %s is not served", mode))
		return
	}

	uploads, err := h.collect(r.MultipartForm, profile)
	if err != nil {
		h.reject(w, log, err.Error())
		return
	}

	now := h.now()
	archive, err := buildArchive(mode, requestID, uploads, now)
	if err != nil {
		log.Error("failed to build archive", "error", err)
		http.Error(w, "failed to build archive", http.StatusInternalServerError)
		return
	}

	name := ArchiveName(h.prefix, uploads[0].file.Name)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", ContentDisposition(name))
	w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(archive); err != nil {
		log.Warn("failed to write response", "error", err)
		return
	}

	log.Info("upload served",
		"mode", mode,
		"files", len(uploads),
		"archive", name,
		"bytes", len(archive))
}

// collect reads every slot of profile in order and checks counts and extensions.
func (h *Handler) collect(form *multipart.Form, profile domain.Profile) ([]upload, error) {
	var uploads []upload
	for _, slot := range profile.Slots {
		headers := form.File[slot.Field]
		if len(headers) == 0 {
			return nil, fmt.Errorf("no file uploaded for %s", slot.Field)
		}
		if !slot.Multiple && len(headers) > 1 {
			return nil, fmt.Errorf("%s takes one file, got %d", slot.Field, len(headers))
		}
		for _, fh := range headers {
			if !h.allowed(fh.Filename) {
				return nil, fmt.Errorf("%s: only %s files are accepted", fh.Filename, strings.Join(h.extensions, ", "))
			}
			data, err := readPart(fh)
			if err != nil {
				return nil, err
			}
			uploads = append(uploads, upload{
				slot: slot,
				file: domain.FilePayload{
					Name:        filepath.Base(fh.Filename),
					ContentType: fh.Header.Get("Content-Type"),
					Data:        data,
				},
			})
		}
	}
	return uploads, nil
}

// formValue reads a field from the multipart body only. Query parameters are ignored.
func formValue(form *multipart.Form, field string) string {
	if values := form.Value[field]; len(values) > 0 {
		return values[0]
	}
	return ""
}

func (h *Handler) allowed(name string) bool {
	if len(h.extensions) == 0 {
		return true
	}
	ext := filepath.Ext(name)
	for _, allowed := range h.extensions {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}

func (h *Handler) reject(w http.ResponseWriter, log *logger.Logger, message string) {
	log.Info("upload rejected", "reason", message)
	http.Error(w, message, http.StatusBadRequest)
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
	}
	return data, nil
}

// ArchiveName is "<prefix>_<stem of first>.zip".
func ArchiveName(prefix, first string) string {
	base := filepath.Base(first)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%s_%s.zip", prefix, stem)
}

// ContentDisposition builds an attachment header carrying name as an RFC 5987
// extended value. Spaces become %20, not '+'.
func ContentDisposition(name string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
	return "attachment; filename*=UTF-8''" + escaped
}
