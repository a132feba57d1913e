package exchange

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"specgen/internal/domain"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeForm writes the mode tag first, then every slot's files in profile
// order. Files inside a slot keep the caller's order.
func encodeForm(modeField string, req *domain.UploadRequest, profile domain.Profile) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField(modeField, req.Mode.String()); err != nil {
		return nil, "", fmt.Errorf("failed to write mode field: %w", err)
	}

	for _, slot := range profile.Slots {
		for _, file := range req.Files[slot.Field] {
			part, err := writer.CreatePart(filePartHeader(slot.Field, file))
			if err != nil {
				return nil, "", fmt.Errorf("failed to create part for %s: %w", file.Name, err)
			}
			if _, err := part.Write(file.Data); err != nil {
				return nil, "", fmt.Errorf("failed to write %s: %w", file.Name, err)
			}
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	return body, writer.FormDataContentType(), nil
}

func filePartHeader(field string, file domain.FilePayload) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(file.Name)))

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	return h
}
