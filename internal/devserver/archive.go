package devserver

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	"specgen/internal/domain"
)

// upload is one received file, tagged with the slot it came in on.
type upload struct {
	slot domain.Slot
	file domain.FilePayload
}

// buildArchive packs the uploads under <field>/<name> plus a manifest.md.
func buildArchive(mode domain.Mode, requestID string, uploads []upload, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	write := func(name string, data []byte) error {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: now,
		})
		if err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", name, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("failed to write %s to archive: %w", name, err)
		}
		return nil
	}

	if err := write("manifest.md", manifest(mode, requestID, uploads, now)); err != nil {
		return nil, err
	}
	for _, u := range uploads {
		if err := write(path.Join(u.slot.Field, u.file.Name), u.file.Data); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}
	return buf.Bytes(), nil
}

func manifest(mode domain.Mode, requestID string, uploads []upload, now time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s test specification\n\n", mode)
	fmt.Fprintf(&b, "- request: %s\n", requestID)
	fmt.Fprintf(&b, "- generated: %s\n\n", now.UTC().Format(time.RFC3339))
	b.WriteString("| Slot | File | Bytes |\n|---|---|---|\n")
	for _, u := range uploads {
		fmt.Fprintf(&b, "| %s | %s | %d |\n", u.slot.DisplayName(), u.file.Name, u.file.Size())
	}
	return []byte(b.String())
}
