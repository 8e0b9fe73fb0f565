package forms

import (
	"context"
	"fmt"
	"sync"

	"github.com/Its-donkey/chatapp-web/internal/ui/model"
	"github.com/Its-donkey/chatapp-web/logging"
)

// Sender delivers a payload to the auth API.
type Sender interface {
	Send(ctx context.Context, path string, payload any) error
}

// Form is one visitor's instance of a login or registration form. It is safe
// for concurrent use; at most one submission is in flight at a time.
type Form struct {
	def       Definition
	sender    Sender
	scheduler Scheduler
	logger    *logging.Logger

	mu         sync.Mutex
	values     model.Values
	errors     model.FieldErrors
	touched    map[string]bool
	status     model.Status
	message    model.Message
	clearTimer Timer
	clearGen   uint64
	closed     bool
}

// New creates an idle form with every field empty.
func New(def Definition, sender Sender, scheduler Scheduler, logger *logging.Logger) *Form {
	if scheduler == nil {
		scheduler = RealScheduler()
	}
	f := &Form{
		def:       def,
		sender:    sender,
		scheduler: scheduler,
		logger:    logger,
		status:    model.StatusIdle,
	}
	f.resetLocked()
	return f
}

// Definition returns the static description of the form.
func (f *Form) Definition() Definition {
	return f.def
}

// Snapshot returns a copy of the current state for rendering.
func (f *Form) Snapshot() model.FormState {
	f.mu.Lock()
	defer f.mu.Unlock()

	values := make(model.Values, len(f.values))
	for k, v := range f.values {
		values[k] = v
	}
	errs := make(model.FieldErrors, len(f.errors))
	for k, v := range f.errors {
		errs[k] = v
	}
	submitting := f.status == model.StatusSubmitting
	label := f.def.SubmitLabel
	if submitting {
		label = f.def.SubmittingLabel
	}
	return model.FormState{
		Kind:           f.def.Kind,
		Fields:         append([]string(nil), f.def.Fields...),
		Values:         values,
		Errors:         errs,
		Status:         f.status,
		Message:        f.message,
		InputsDisabled: submitting,
		SubmitLabel:    label,
	}
}

// SetField updates a value and re-validates every touched field against the
// latest values.
func (f *Form) SetField(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	if !f.def.owns(name) {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	if f.status == model.StatusSubmitting {
		return ErrInputsDisabled
	}
	f.values[name] = value
	f.touched[name] = true
	f.revalidateLocked()
	return nil
}

// Validate checks every field and reports whether the form may be submitted.
func (f *Form) Validate() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validateAllLocked()
}

// Submit validates the form and, when valid, sends it to the auth API. The
// returned error is non-nil only when nothing was sent: a *ValidationError,
// ErrSubmissionInFlight or ErrClosed. Server and transport failures resolve
// into an Outcome with StatusFailed and the cause attached.
func (f *Form) Submit(ctx context.Context) (model.Outcome, error) {
	return f.submit(ctx, nil)
}

// SubmitValues applies values and submits them in one step, so concurrent
// callers sharing the form can never send a payload that mixes their fields.
// Every key must be a field the form owns; on an unknown key nothing changes.
func (f *Form) SubmitValues(ctx context.Context, values model.Values) (model.Outcome, error) {
	return f.submit(ctx, values)
}

func (f *Form) submit(ctx context.Context, values model.Values) (model.Outcome, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return model.Outcome{}, ErrClosed
	}
	if f.status == model.StatusSubmitting {
		f.mu.Unlock()
		return model.Outcome{}, ErrSubmissionInFlight
	}
	for name := range values {
		if !f.def.owns(name) {
			f.mu.Unlock()
			return model.Outcome{}, fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
	}
	for name, value := range values {
		f.values[name] = value
		f.touched[name] = true
	}
	if !f.validateAllLocked() {
		fields := make(model.FieldErrors, len(f.errors))
		for k, v := range f.errors {
			fields[k] = v
		}
		f.mu.Unlock()
		return model.Outcome{}, &ValidationError{Fields: fields}
	}

	payload := f.def.payload(f.values)
	f.stopClearLocked()
	f.message = model.Message{}
	f.status = model.StatusSubmitting
	f.mu.Unlock()

	log := f.logger.FromContext(ctx).WithCategory("forms").WithField("form", string(f.def.Kind))
	log.Debug("submitting")

	err := f.sender.Send(ctx, f.def.Endpoint, payload)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		log.Debug("response dropped after close")
		return model.Outcome{}, ErrClosed
	}

	var outcome model.Outcome
	if err == nil {
		f.resetLocked()
		f.status = model.StatusSucceeded
		f.message = model.Message{Kind: model.MessageSuccess, Text: f.def.SuccessMessage}
		outcome = model.Outcome{
			Status:        f.status,
			Message:       f.message,
			Redirect:      f.def.Redirect,
			RedirectAfter: f.def.RedirectAfter,
		}
		log.Info("submission succeeded")
	} else {
		f.status = model.StatusFailed
		f.message = model.Message{Kind: model.MessageError, Text: f.def.failureMessage(err)}
		outcome = model.Outcome{
			Status:  f.status,
			Message: f.message,
			Cause:   err,
		}
		log.WithField("error", err.Error()).Warn("submission failed")
	}
	f.scheduleClearLocked()
	return outcome, nil
}

// Close tears the form down. Pending timers are canceled and a response that
// arrives afterwards is dropped.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.stopClearLocked()
}

func (f *Form) resetLocked() {
	f.values = make(model.Values, len(f.def.Fields))
	for _, name := range f.def.Fields {
		f.values[name] = ""
	}
	f.errors = model.FieldErrors{}
	f.touched = make(map[string]bool, len(f.def.Fields))
}

func (f *Form) validateAllLocked() bool {
	for _, name := range f.def.Fields {
		f.touched[name] = true
	}
	f.revalidateLocked()
	return len(f.errors) == 0
}

func (f *Form) revalidateLocked() {
	all := f.def.validate(f.values)
	f.errors = model.FieldErrors{}
	for name, msg := range all {
		if f.touched[name] {
			f.errors[name] = msg
		}
	}
}

func (f *Form) scheduleClearLocked() {
	f.stopClearLocked()
	f.clearGen++
	gen := f.clearGen
	f.clearTimer = f.scheduler.AfterFunc(f.def.MessageTTL, func() {
		f.clearMessage(gen)
	})
}

func (f *Form) stopClearLocked() {
	if f.clearTimer != nil {
		f.clearTimer.Stop()
		f.clearTimer = nil
	}
}

func (f *Form) clearMessage(gen uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || gen != f.clearGen {
		return
	}
	f.message = model.Message{}
	if f.status != model.StatusSubmitting {
		f.status = model.StatusIdle
	}
	f.clearTimer = nil
}
