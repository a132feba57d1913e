package exchange

import (
	"context"
	"fmt"
	"sync"

	"specgen/internal/domain"
	specerrors "specgen/pkg/errors"
)

// State of a Trigger.
type State int

const (
	Idle State = iota
	InFlight
)

func (s State) String() string {
	if s == InFlight {
		return "in-flight"
	}
	return "idle"
}

// Exchanger is what a Trigger drives; *Client satisfies it.
type Exchanger interface {
	Validate(req *domain.UploadRequest) error
	Exchange(ctx context.Context, req *domain.UploadRequest) (*domain.DownloadResult, error)
}

// Deliver saves a downloaded artifact. It runs while the trigger is still disabled.
type Deliver func(ctx context.Context, result *domain.DownloadResult) error

// Observer is told about every status change and whether the trigger is armed.
type Observer func(status string, enabled bool)

// Trigger is the submit control of a front end: it is disabled while one
// exchange is outstanding and re-armed when it ends, whatever the outcome.
type Trigger struct {
	exchanger Exchanger
	messages  Messages
	observer  Observer

	mu     sync.Mutex
	state  State
	status string
}

func NewTrigger(exchanger Exchanger, messages Messages, observer Observer) *Trigger {
	return &Trigger{
		exchanger: exchanger,
		messages:  messages,
		observer:  observer,
	}
}

// Enabled reports whether Fire would start an exchange.
func (t *Trigger) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == Idle
}

func (t *Trigger) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Status is the last status line.
func (t *Trigger) Status() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Fire validates req, runs the exchange and hands a successful result to
// deliver. It returns ErrTriggerDisabled when another Fire is in progress.
func (t *Trigger) Fire(ctx context.Context, req *domain.UploadRequest, deliver Deliver) (*domain.DownloadResult, error) {
	t.mu.Lock()
	if t.state == InFlight {
		t.mu.Unlock()
		return nil, specerrors.ErrTriggerDisabled
	}

	// validation leaves the trigger armed
	if err := t.exchanger.Validate(req); err != nil {
		status := t.statusFor(err)
		t.status = status
		t.mu.Unlock()
		t.notify(status, true)
		return nil, err
	}

	t.state = InFlight
	t.status = t.messages.Generating
	t.mu.Unlock()
	t.notify(t.messages.Generating, false)

	var status string
	defer func() { t.finish(status) }()

	result, err := t.exchanger.Exchange(ctx, req)
	if err != nil {
		status = t.statusFor(err)
		return nil, err
	}

	if deliver != nil {
		if derr := deliver(ctx, result); derr != nil {
			status = fmt.Sprintf(t.messages.SaveError, derr.Error())
			return result, fmt.Errorf("failed to save %s: %w", result.Filename, derr)
		}
	}

	status = t.messages.Completed
	return result, nil
}

func (t *Trigger) finish(status string) {
	t.mu.Lock()
	t.state = Idle
	t.status = status
	t.mu.Unlock()
	t.notify(status, true)
}

func (t *Trigger) statusFor(err error) string {
	if f, ok := AsFailure(err); ok {
		return f.Status(t.messages)
	}
	return fmt.Sprintf(t.messages.TransportError, err.Error())
}

func (t *Trigger) notify(status string, enabled bool) {
	if t.observer != nil {
		t.observer(status, enabled)
	}
}
