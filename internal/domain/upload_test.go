package domain

import (
	"errors"
	"testing"

	specerrors "specgen/pkg/errors"
)

func integrationProfile() Profile {
	return Profile{
		Mode: ModeIntegration,
		Slots: []Slot{
			{Field: "documentFiles", Label: "design documents", Multiple: true},
			{Field: "unitTestSpecFile", Label: "unit test specification"},
		},
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"unit", ModeUnit, false},
		{" Integration ", ModeIntegration, false},
		{"UNIT", ModeUnit, false},
		{"e2e", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, specerrors.ErrUnknownMode) {
				t.Errorf("error %v does not wrap ErrUnknownMode", err)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		wantErr bool
	}{
		{"valid", integrationProfile(), false},
		{"no slots", Profile{Mode: ModeUnit}, true},
		{"blank field", Profile{Mode: ModeUnit, Slots: []Slot{{Field: " "}}}, true},
		{"duplicate field", Profile{Mode: ModeUnit, Slots: []Slot{{Field: "a"}, {Field: "a"}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.profile.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUploadRequestCheck(t *testing.T) {
	file := FilePayload{Name: "a.xlsx", Data: []byte("x")}

	tests := []struct {
		name        string
		files       map[string][]FilePayload
		wantMissing []string
	}{
		{
			name: "all slots filled",
			files: map[string][]FilePayload{
				"documentFiles":    {file, file},
				"unitTestSpecFile": {file},
			},
		},
		{
			name:        "empty request",
			files:       map[string][]FilePayload{},
			wantMissing: []string{"documentFiles", "unitTestSpecFile"},
		},
		{
			name: "single slot given two files",
			files: map[string][]FilePayload{
				"documentFiles":    {file},
				"unitTestSpecFile": {file, file},
			},
			wantMissing: []string{"unitTestSpecFile"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &UploadRequest{Mode: ModeIntegration, Files: tt.files}
			missing := req.Check(integrationProfile())
			if len(missing) != len(tt.wantMissing) {
				t.Fatalf("Check() = %v, want fields %v", missing, tt.wantMissing)
			}
			for i, m := range missing {
				if m.Slot.Field != tt.wantMissing[i] {
					t.Errorf("missing[%d] = %s, want %s", i, m.Slot.Field, tt.wantMissing[i])
				}
			}
		})
	}
}

func TestUploadRequestAddKeepsOrder(t *testing.T) {
	req := NewUploadRequest(ModeIntegration)
	req.Add("documentFiles", FilePayload{Name: "b.xlsx", Data: []byte("bb")})
	req.Add("documentFiles", FilePayload{Name: "a.xlsx", Data: []byte("a")})
	req.Add("other", FilePayload{Name: "c.xlsx"})

	got := req.Files["documentFiles"]
	if len(got) != 2 || got[0].Name != "b.xlsx" || got[1].Name != "a.xlsx" {
		t.Errorf("order not preserved: %+v", got)
	}
	if req.TotalSize() != 3 {
		t.Errorf("TotalSize() = %d, want 3", req.TotalSize())
	}
	if req.FileCount() != 3 {
		t.Errorf("FileCount() = %d, want 3", req.FileCount())
	}
	if extra := req.Unexpected(integrationProfile()); len(extra) != 1 || extra[0] != "other" {
		t.Errorf("Unexpected() = %v, want [other]", extra)
	}
}

func TestMissingSlotString(t *testing.T) {
	m := MissingSlot{Slot: Slot{Field: "documentFile"}}
	if got := m.String(); got != "documentFile: no file selected" {
		t.Errorf("String() = %q", got)
	}
	m = MissingSlot{Slot: Slot{Field: "spec", Label: "spec sheet"}, Count: 2}
	if got := m.String(); got != "spec sheet: expected one file, got 2" {
		t.Errorf("String() = %q", got)
	}
}
