package forms

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Its-donkey/chatapp-web/internal/ui/authapi"
	"github.com/Its-donkey/chatapp-web/internal/ui/model"
	"github.com/Its-donkey/chatapp-web/logging"
)

type manualTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (s *manualScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	timer := &manualTimer{delay: d, fn: fn}
	s.timers = append(s.timers, timer)
	return timer
}

func (s *manualScheduler) pending() []*manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*manualTimer
	for _, timer := range s.timers {
		if !timer.stopped && !timer.fired {
			out = append(out, timer)
		}
	}
	return out
}

func (s *manualScheduler) fire() {
	for _, timer := range s.pending() {
		timer.fired = true
		timer.fn()
	}
}

type sentRequest struct {
	path    string
	payload any
}

type stubSender struct {
	mu      sync.Mutex
	err     error
	sent    []sentRequest
	started chan struct{}
	release chan struct{}
}

func (s *stubSender) Send(ctx context.Context, path string, payload any) error {
	s.mu.Lock()
	s.sent = append(s.sent, sentRequest{path: path, payload: payload})
	err := s.err
	s.mu.Unlock()
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	return err
}

func (s *stubSender) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func newLoginForm(sender Sender, sched Scheduler) *Form {
	return New(LoginDefinition("/hero", 3*time.Second), sender, sched, logging.Discard())
}

func newRegisterForm(sender Sender, sched Scheduler) *Form {
	return New(RegisterDefinition(1500*time.Millisecond, 1500*time.Millisecond), sender, sched, logging.Discard())
}

func mustSet(t *testing.T, form *Form, values map[string]string) {
	t.Helper()
	for name, value := range values {
		if err := form.SetField(name, value); err != nil {
			t.Fatalf("SetField(%q): %v", name, err)
		}
	}
}

func TestNewFormStartsIdle(t *testing.T) {
	form := newRegisterForm(&stubSender{}, &manualScheduler{})
	snap := form.Snapshot()
	if snap.Status != model.StatusIdle || !snap.Message.Empty() || snap.InputsDisabled {
		t.Fatalf("unexpected initial state: %+v", snap)
	}
	if snap.SubmitLabel != "Create Account" {
		t.Fatalf("unexpected label %q", snap.SubmitLabel)
	}
	if len(snap.Fields) != 4 || len(snap.Errors) != 0 {
		t.Fatalf("expected four clean fields, got %+v", snap)
	}
}

func TestSetFieldRejectsUnknownField(t *testing.T) {
	form := newLoginForm(&stubSender{}, &manualScheduler{})
	if err := form.SetField("name", "x"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestSetFieldOnlyReportsTouchedFields(t *testing.T) {
	form := newRegisterForm(&stubSender{}, &manualScheduler{})
	mustSet(t, form, map[string]string{model.FieldPhone: "123"})

	snap := form.Snapshot()
	if snap.Error(model.FieldPhone) != "Invalid Pakistani phone number format" {
		t.Fatalf("expected phone error, got %v", snap.Errors)
	}
	if _, ok := snap.Errors[model.FieldName]; ok {
		t.Fatalf("untouched name should not carry an error yet: %v", snap.Errors)
	}
}

func TestConfirmPasswordRevalidatesWhenPasswordChanges(t *testing.T) {
	form := newRegisterForm(&stubSender{}, &manualScheduler{})
	mustSet(t, form, map[string]string{model.FieldPassword: "Abc1"})
	mustSet(t, form, map[string]string{model.FieldConfirmPassword: "Abc1"})
	if msg := form.Snapshot().Error(model.FieldConfirmPassword); msg != "" {
		t.Fatalf("expected matching confirmation, got %q", msg)
	}

	mustSet(t, form, map[string]string{model.FieldPassword: "Xyz9"})
	if msg := form.Snapshot().Error(model.FieldConfirmPassword); msg != "Passwords do not match" {
		t.Fatalf("expected stale confirmation to be invalid, got %q", msg)
	}

	mustSet(t, form, map[string]string{model.FieldPassword: "Abc1"})
	if msg := form.Snapshot().Error(model.FieldConfirmPassword); msg != "" {
		t.Fatalf("expected confirmation to match again, got %q", msg)
	}
}

func TestSubmitInvalidFormSendsNothing(t *testing.T) {
	sender := &stubSender{}
	form := newLoginForm(sender, &manualScheduler{})
	mustSet(t, form, map[string]string{model.FieldPhone: "03001234567"})

	outcome, err := form.Submit(context.Background())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Fields[model.FieldPassword] != "Password is required" {
		t.Fatalf("unexpected field errors: %v", verr.Fields)
	}
	if sender.calls() != 0 {
		t.Fatalf("expected no request, got %d", sender.calls())
	}
	if outcome.Status != "" {
		t.Fatalf("expected empty outcome, got %+v", outcome)
	}
	snap := form.Snapshot()
	if snap.Status != model.StatusIdle || snap.Error(model.FieldPassword) == "" {
		t.Fatalf("expected idle form with errors shown, got %+v", snap)
	}
}

func TestLoginSuccess(t *testing.T) {
	sender := &stubSender{}
	sched := &manualScheduler{}
	form := newLoginForm(sender, sched)
	mustSet(t, form, map[string]string{model.FieldPhone: "03001234567", model.FieldPassword: "abcd"})

	outcome, err := form.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if outcome.Status != model.StatusSucceeded || outcome.Message.Text != "Login Successful" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if outcome.Redirect != "/hero" || outcome.RedirectAfter != 0 {
		t.Fatalf("expected immediate redirect to /hero, got %+v", outcome)
	}

	if len(sender.sent) != 1 || sender.sent[0].path != authapi.LoginPath {
		t.Fatalf("unexpected requests: %+v", sender.sent)
	}
	payload, ok := sender.sent[0].payload.(model.LoginRequest)
	if !ok || payload.Phone != "03001234567" || payload.Password != "abcd" {
		t.Fatalf("unexpected payload: %#v", sender.sent[0].payload)
	}

	snap := form.Snapshot()
	if snap.Value(model.FieldPhone) != "" || snap.Value(model.FieldPassword) != "" {
		t.Fatalf("expected fields to reset, got %v", snap.Values)
	}
	if snap.Message.Kind != model.MessageSuccess {
		t.Fatalf("expected success message, got %+v", snap.Message)
	}
}

func TestLoginRejectionKeepsValues(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "server text", err: &authapi.ServerRejection{Status: 401, Message: "Wrong password"}, want: "Wrong password"},
		{name: "fallback", err: &authapi.ServerRejection{Status: 500}, want: "Invalid credentials"},
		{name: "transport", err: &authapi.TransportFailure{Err: errors.New("dial tcp: refused")}, want: "Network error. Please try again."},
	}
	for _, tc := range cases {
		sched := &manualScheduler{}
		form := newLoginForm(&stubSender{err: tc.err}, sched)
		mustSet(t, form, map[string]string{model.FieldPhone: "03001234567", model.FieldPassword: "abcd"})

		outcome, err := form.Submit(context.Background())
		if err != nil {
			t.Fatalf("%s: Submit returned error: %v", tc.name, err)
		}
		if outcome.Status != model.StatusFailed || outcome.Message.Text != tc.want {
			t.Fatalf("%s: unexpected outcome %+v", tc.name, outcome)
		}
		if outcome.Redirect != "" {
			t.Fatalf("%s: failures must not navigate, got %q", tc.name, outcome.Redirect)
		}
		if !errors.Is(outcome.Cause, tc.err) {
			t.Fatalf("%s: expected cause to be kept, got %v", tc.name, outcome.Cause)
		}
		snap := form.Snapshot()
		if snap.Value(model.FieldPhone) != "03001234567" || snap.InputsDisabled {
			t.Fatalf("%s: expected values kept and inputs enabled, got %+v", tc.name, snap)
		}
	}
}

func TestRegisterSuccessNavigatesAfterDelay(t *testing.T) {
	sender := &stubSender{}
	sched := &manualScheduler{}
	form := newRegisterForm(sender, sched)
	mustSet(t, form, map[string]string{
		model.FieldName:            "Ali",
		model.FieldPhone:           "+923001234567",
		model.FieldPassword:        "Abc1",
		model.FieldConfirmPassword: "Abc1",
	})

	outcome, err := form.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if outcome.Message.Text != "Registration Successful" || outcome.Redirect != "/login" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if outcome.RedirectAfter != 1500*time.Millisecond {
		t.Fatalf("expected delayed navigation, got %v", outcome.RedirectAfter)
	}
	if _, ok := sender.sent[0].payload.(model.RegisterRequest); !ok || sender.sent[0].path != authapi.RegisterPath {
		t.Fatalf("unexpected request: %+v", sender.sent[0])
	}
	for _, field := range form.Snapshot().Fields {
		if v := form.Snapshot().Value(field); v != "" {
			t.Fatalf("expected %s to reset, got %q", field, v)
		}
	}
}

func TestRegisterRejectionUsesServerText(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{err: &authapi.ServerRejection{Status: 409, Message: "Phone already registered"}, want: "Phone already registered"},
		{err: &authapi.ServerRejection{Status: 400}, want: "Server Error"},
	}
	for _, tc := range cases {
		form := newRegisterForm(&stubSender{err: tc.err}, &manualScheduler{})
		mustSet(t, form, map[string]string{
			model.FieldName:            "Ali",
			model.FieldPhone:           "03001234567",
			model.FieldPassword:        "Abc1",
			model.FieldConfirmPassword: "Abc1",
		})
		outcome, err := form.Submit(context.Background())
		if err != nil || outcome.Message.Text != tc.want {
			t.Fatalf("expected %q, got %+v / %v", tc.want, outcome, err)
		}
	}
}

func TestMessageClearsAfterDelay(t *testing.T) {
	for _, fail := range []bool{false, true} {
		sender := &stubSender{}
		if fail {
			sender.err = &authapi.ServerRejection{Status: 401}
		}
		sched := &manualScheduler{}
		form := newLoginForm(sender, sched)
		mustSet(t, form, map[string]string{model.FieldPhone: "03001234567", model.FieldPassword: "abcd"})

		if _, err := form.Submit(context.Background()); err != nil {
			t.Fatalf("Submit returned error: %v", err)
		}
		pending := sched.pending()
		if len(pending) != 1 || pending[0].delay != 3*time.Second {
			t.Fatalf("expected one 3s clear timer, got %+v", pending)
		}
		if form.Snapshot().Message.Empty() {
			t.Fatal("expected message before timer fires")
		}

		sched.fire()

		snap := form.Snapshot()
		if !snap.Message.Empty() || snap.Status != model.StatusIdle {
			t.Fatalf("expected cleared idle form, got %+v", snap)
		}
	}
}

func TestStaleClearTimerDoesNotWipeNewMessage(t *testing.T) {
	sched := &manualScheduler{}
	form := newLoginForm(&stubSender{err: &authapi.ServerRejection{Status: 401}}, sched)
	mustSet(t, form, map[string]string{model.FieldPhone: "03001234567", model.FieldPassword: "abcd"})

	if _, err := form.Submit(context.Background()); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	first := sched.pending()[0]
	if _, err := form.Submit(context.Background()); err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if !first.stopped {
		t.Fatal("expected the earlier clear timer to be canceled")
	}

	// A canceled callback that still runs must be a no-op.
	first.fn()
	if form.Snapshot().Message.Empty() {
		t.Fatal("stale timer cleared the current message")
	}
}

func TestSubmitWhileInFlight(t *testing.T) {
	sender := &stubSender{started: make(chan struct{}), release: make(chan struct{})}
	form := newLoginForm(sender, &manualScheduler{})
	mustSet(t, form, map[string]string{model.FieldPhone: "03001234567", model.FieldPassword: "abcd"})

	done := make(chan error, 1)
	go func() {
		_, err := form.Submit(context.Background())
		done <- err
	}()
	<-sender.started

	snap := form.Snapshot()
	if snap.Status != model.StatusSubmitting || !snap.InputsDisabled || snap.SubmitLabel != "Logging in..." {
		t.Fatalf("unexpected in-flight snapshot: %+v", snap)
	}
	if _, err := form.Submit(context.Background()); !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("expected ErrSubmissionInFlight, got %v", err)
	}
	if err := form.SetField(model.FieldPhone, "03110000000"); !errors.Is(err, ErrInputsDisabled) {
		t.Fatalf("expected ErrInputsDisabled, got %v", err)
	}

	close(sender.release)
	if err := <-done; err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if sender.calls() != 1 {
		t.Fatalf("expected exactly one request, got %d", sender.calls())
	}
	if form.Snapshot().SubmitLabel != "Login" {
		t.Fatal("expected label to return after the response")
	}
}

func TestCloseDropsLateResponseAndCancelsTimers(t *testing.T) {
	sender := &stubSender{started: make(chan struct{}), release: make(chan struct{})}
	sched := &manualScheduler{}
	form := newLoginForm(sender, sched)
	mustSet(t, form, map[string]string{model.FieldPhone: "03001234567", model.FieldPassword: "abcd"})

	done := make(chan error, 1)
	go func() {
		_, err := form.Submit(context.Background())
		done <- err
	}()
	<-sender.started

	form.Close()
	close(sender.release)

	if err := <-done; !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if len(sched.pending()) != 0 {
		t.Fatal("no timer should be scheduled after close")
	}
	if err := form.SetField(model.FieldPhone, "x"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed from SetField, got %v", err)
	}
}

func TestCloseCancelsPendingClearTimer(t *testing.T) {
	sched := &manualScheduler{}
	form := newLoginForm(&stubSender{}, sched)
	mustSet(t, form, map[string]string{model.FieldPhone: "03001234567", model.FieldPassword: "abcd"})
	if _, err := form.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	timer := sched.pending()[0]
	form.Close()
	if !timer.stopped {
		t.Fatal("expected clear timer to be canceled on close")
	}
}

func TestSubmitValuesSendsOneCallersFieldsOnly(t *testing.T) {
	sender := &stubSender{started: make(chan struct{}), release: make(chan struct{})}
	form := newLoginForm(sender, &manualScheduler{})

	first := model.Values{model.FieldPhone: "03001234567", model.FieldPassword: "first-pass"}
	second := model.Values{model.FieldPhone: "03119876543", model.FieldPassword: "second-pass"}

	done := make(chan error, 1)
	go func() {
		_, err := form.SubmitValues(context.Background(), first)
		done <- err
	}()
	<-sender.started

	if _, err := form.SubmitValues(context.Background(), second); !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("expected ErrSubmissionInFlight, got %v", err)
	}
	if got := form.Snapshot().Value(model.FieldPhone); got != first[model.FieldPhone] {
		t.Fatalf("rejected submission changed the form: phone %q", got)
	}

	close(sender.release)
	if err := <-done; err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if sender.calls() != 1 {
		t.Fatalf("expected one request, got %d", sender.calls())
	}
	payload, ok := sender.sent[0].payload.(model.LoginRequest)
	if !ok || payload.Phone != first[model.FieldPhone] || payload.Password != first[model.FieldPassword] {
		t.Fatalf("expected the first caller's payload, got %#v", sender.sent[0].payload)
	}
}

func TestSubmitValuesValidatesAppliedValues(t *testing.T) {
	sender := &stubSender{}
	form := newRegisterForm(sender, &manualScheduler{})

	_, err := form.SubmitValues(context.Background(), model.Values{
		model.FieldName:            "Ali",
		model.FieldPhone:           "03001234567",
		model.FieldPassword:        "Abc1",
		model.FieldConfirmPassword: "Abc2",
	})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Fields[model.FieldConfirmPassword] != "Passwords do not match" {
		t.Fatalf("expected mismatch error, got %v", err)
	}
	if sender.calls() != 0 {
		t.Fatalf("expected no request, got %d", sender.calls())
	}
	if form.Snapshot().Value(model.FieldName) != "Ali" {
		t.Fatal("expected submitted values to be kept on the form")
	}
}

func TestSubmitValuesRejectsUnknownField(t *testing.T) {
	sender := &stubSender{}
	form := newLoginForm(sender, &manualScheduler{})

	_, err := form.SubmitValues(context.Background(), model.Values{
		model.FieldPhone:    "03001234567",
		model.FieldPassword: "abcd",
		model.FieldName:     "Ali",
	})
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if sender.calls() != 0 || form.Snapshot().Value(model.FieldPhone) != "" {
		t.Fatal("an unknown field must leave the form untouched")
	}
}
