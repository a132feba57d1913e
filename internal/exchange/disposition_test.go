package exchange

import "testing"

func TestResolveFilename(t *testing.T) {
	const fallback = "generated_files.zip"

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"extended utf-8", `attachment; filename*=UTF-8''r%C3%A9sum%C3%A9.zip`, "résumé.zip"},
		{"plain quoted", `attachment; filename="plain.zip"`, "plain.zip"},
		{"extended wins over plain", `attachment; filename="fallback.zip"; filename*=UTF-8''%E3%83%86%E3%82%B9%E3%83%88.zip`, "テスト.zip"},
		{"extended first then plain", `attachment; filename*=utf-8''a%20b.zip; filename="c.zip"`, "a b.zip"},
		{"no header", "", fallback},
		{"no filename parameter", "attachment", fallback},
		{"inline plain", `inline; filename="report.pdf"`, "report.pdf"},
		{"bare parameter without type", `filename="plain.zip"`, "plain.zip"},
		{"unquoted with spaces", `attachment; filename=my report.zip`, "my report.zip"},
		{"escaped quote", `attachment; filename="a\"b.zip"`, `a"b.zip`},
		{"bad percent escape falls back to plain", `attachment; filename*=UTF-8''%ZZ.zip; filename="ok.zip"`, "ok.zip"},
		{"unsupported charset falls back to plain", `attachment; filename*=ISO-8859-1''caf%E9.zip; filename="cafe.zip"`, "cafe.zip"},
		{"empty filename", `attachment; filename=""`, fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveFilename(tt.header, fallback); got != tt.want {
				t.Errorf("ResolveFilename(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}
