package exchange

import (
	"errors"
	"fmt"

	"specgen/internal/domain"
)

// Kind classifies why an exchange did not produce a download.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindServer
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindServer:
		return "server_error"
	case KindTransport:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Failure is the error returned by Client.Exchange and Client.Validate.
type Failure struct {
	Kind       Kind
	Mode       domain.Mode
	StatusCode int
	// Message is the mode-specific validation message or the transport error text.
	Message string
	Missing []domain.MissingSlot
	Err     error
}

func (f *Failure) Error() string {
	switch f.Kind {
	case KindValidation:
		if len(f.Missing) > 0 {
			return fmt.Sprintf("%s mode: %s (%s)", f.Mode, f.Message, f.Missing[0])
		}
		return fmt.Sprintf("%s mode: %s", f.Mode, f.Message)
	case KindServer:
		return fmt.Sprintf("server responded with status %d", f.StatusCode)
	case KindTransport:
		return fmt.Sprintf("request failed: %s", f.Message)
	default:
		return f.Message
	}
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Status renders the failure as the short line shown to the user.
func (f *Failure) Status(m Messages) string {
	switch f.Kind {
	case KindServer:
		return fmt.Sprintf(m.ServerError, f.StatusCode)
	case KindTransport:
		return fmt.Sprintf(m.TransportError, f.Message)
	default:
		return f.Message
	}
}

// AsFailure unwraps err into a *Failure.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// Messages holds the status strings a front end shows. ServerError takes the
// numeric status code, TransportError and SaveError the error text.
type Messages struct {
	Generating     string
	Completed      string
	ServerError    string
	TransportError string
	SaveError      string
}

func DefaultMessages() Messages {
	return Messages{
		Generating:     "generating...",
		Completed:      "completed",
		ServerError:    "error: %d",
		TransportError: "connection error: %s",
		SaveError:      "save failed: %s",
	}
}
