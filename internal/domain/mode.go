package domain

import (
	"fmt"
	"strings"

	specerrors "specgen/pkg/errors"
)

// Mode selects which validation and request shape applies to an upload.
type Mode string

const (
	ModeUnit        Mode = "unit"
	ModeIntegration Mode = "integration"
)

// Modes lists every mode in display order.
var Modes = []Mode{ModeUnit, ModeIntegration}

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeUnit:
		return ModeUnit, nil
	case ModeIntegration:
		return ModeIntegration, nil
	default:
		return "", fmt.Errorf("%w: %q (valid: unit, integration)", specerrors.ErrUnknownMode, s)
	}
}

func (m Mode) String() string {
	return string(m)
}

// Slot is one designated file field of a mode.
type Slot struct {
	Field    string `yaml:"field" json:"field"`
	Label    string `yaml:"label" json:"label"`
	Multiple bool   `yaml:"multiple" json:"multiple"`
}

// Profile is the request shape of a mode: its slots in wire order and the
// message shown when a required slot is empty.
type Profile struct {
	Mode              Mode   `yaml:"-" json:"mode"`
	Slots             []Slot `yaml:"slots" json:"slots"`
	ValidationMessage string `yaml:"validationMessage" json:"validationMessage"`
}

// Validate checks the profile definition itself, not an upload.
func (p Profile) Validate() error {
	if len(p.Slots) == 0 {
		return fmt.Errorf("mode %s: at least one slot is required", p.Mode)
	}
	seen := make(map[string]bool, len(p.Slots))
	for i, slot := range p.Slots {
		if strings.TrimSpace(slot.Field) == "" {
			return fmt.Errorf("mode %s: slot %d has no field name", p.Mode, i)
		}
		if seen[slot.Field] {
			return fmt.Errorf("mode %s: duplicate slot field %q", p.Mode, slot.Field)
		}
		seen[slot.Field] = true
	}
	return nil
}

// Slot returns the slot with the given field name.
func (p Profile) Slot(field string) (Slot, bool) {
	for _, s := range p.Slots {
		if s.Field == field {
			return s, true
		}
	}
	return Slot{}, false
}

// DisplayName is the label, falling back to the field name.
func (s Slot) DisplayName() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Field
}
