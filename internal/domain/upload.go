package domain

import "fmt"

// FilePayload is one local file ready to be sent as a multipart part.
type FilePayload struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f FilePayload) Size() int64 {
	return int64(len(f.Data))
}

// UploadRequest is what a caller gathered for one submission.
type UploadRequest struct {
	Mode  Mode
	Files map[string][]FilePayload
}

func NewUploadRequest(mode Mode) *UploadRequest {
	return &UploadRequest{
		Mode:  mode,
		Files: make(map[string][]FilePayload),
	}
}

// Add appends files to a field, keeping their order.
func (r *UploadRequest) Add(field string, files ...FilePayload) {
	if r.Files == nil {
		r.Files = make(map[string][]FilePayload)
	}
	r.Files[field] = append(r.Files[field], files...)
}

// TotalSize is the sum of all payload sizes.
func (r *UploadRequest) TotalSize() int64 {
	var total int64
	for _, files := range r.Files {
		for _, f := range files {
			total += f.Size()
		}
	}
	return total
}

// FileCount counts payloads across every field.
func (r *UploadRequest) FileCount() int {
	n := 0
	for _, files := range r.Files {
		n += len(files)
	}
	return n
}

// MissingSlot describes why a request does not satisfy its profile.
type MissingSlot struct {
	Slot  Slot
	Count int
}

func (m MissingSlot) String() string {
	if m.Count == 0 {
		return fmt.Sprintf("%s: no file selected", m.Slot.DisplayName())
	}
	return fmt.Sprintf("%s: expected one file, got %d", m.Slot.DisplayName(), m.Count)
}

// Check returns the slots of the profile the request fails to fill. A
// single-file slot needs exactly one file; a multi-file slot at least one.
func (r *UploadRequest) Check(profile Profile) []MissingSlot {
	var missing []MissingSlot
	for _, slot := range profile.Slots {
		n := len(r.Files[slot.Field])
		if n == 0 || (!slot.Multiple && n != 1) {
			missing = append(missing, MissingSlot{Slot: slot, Count: n})
		}
	}
	return missing
}

// Unexpected returns fields in the request that the profile does not define.
func (r *UploadRequest) Unexpected(profile Profile) []string {
	var extra []string
	for field, files := range r.Files {
		if len(files) == 0 {
			continue
		}
		if _, ok := profile.Slot(field); !ok {
			extra = append(extra, field)
		}
	}
	return extra
}

// DownloadResult is the artifact returned by a successful exchange.
type DownloadResult struct {
	Data        []byte
	Filename    string
	ContentType string
	RequestID   string
}

func (d *DownloadResult) Size() int64 {
	return int64(len(d.Data))
}
