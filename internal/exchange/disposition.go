package exchange

import (
	"mime"
	"net/url"
	"strings"
)

// ResolveFilename picks the download name from a Content-Disposition value.
// The RFC 5987 filename* parameter wins over filename; fallback is used when
// neither yields a name.
func ResolveFilename(header, fallback string) string {
	if name := dispositionFilename(header); name != "" {
		return name
	}
	return fallback
}

func dispositionFilename(header string) string {
	if strings.TrimSpace(header) == "" {
		return ""
	}

	// ParseMediaType decodes filename* into "filename" and lets it override
	// the plain parameter.
	if _, params, err := mime.ParseMediaType(header); err == nil {
		if name := strings.TrimSpace(params["filename"]); name != "" {
			return name
		}
	}

	// Servers in the wild send values ParseMediaType rejects (bare
	// parameters, unquoted spaces, raw UTF-8). Scan them leniently.
	params := scanParams(header)
	if v, ok := params["filename*"]; ok {
		if name := decodeExtValue(v); name != "" {
			return name
		}
	}
	return strings.TrimSpace(params["filename"])
}

// scanParams splits a header into lower-cased parameter names and raw values,
// honouring quoted strings.
func scanParams(header string) map[string]string {
	params := make(map[string]string)
	for _, segment := range splitOutsideQuotes(header, ';') {
		key, value, found := strings.Cut(segment, "=")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if _, dup := params[key]; dup {
			continue
		}
		params[key] = unquote(strings.TrimSpace(value))
	}
	return params
}

func splitOutsideQuotes(s string, sep byte) []string {
	var (
		parts   []string
		start   int
		inQuote bool
		escaped bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inQuote:
			escaped = true
		case c == '"':
			inQuote = !inQuote
		case c == sep && !inQuote:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

func unquote(v string) string {
	if len(v) < 2 || v[0] != '"' || v[len(v)-1] != '"' {
		return v
	}
	inner := v[1 : len(v)-1]
	var b strings.Builder
	b.Grow(len(inner))
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			i++
		}
		b.WriteByte(inner[i])
	}
	return b.String()
}

// decodeExtValue decodes charset'lang'pct-encoded. Only UTF-8 and ASCII
// charsets are accepted.
func decodeExtValue(v string) string {
	parts := strings.SplitN(v, "'", 3)
	if len(parts) != 3 {
		return ""
	}
	switch strings.ToLower(parts[0]) {
	case "utf-8", "us-ascii", "":
	default:
		return ""
	}
	decoded, err := url.PathUnescape(parts[2])
	if err != nil {
		return ""
	}
	return strings.TrimSpace(decoded)
}
