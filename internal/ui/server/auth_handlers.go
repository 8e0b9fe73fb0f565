package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Its-donkey/chatapp-web/internal/ui/forms"
	"github.com/Its-donkey/chatapp-web/internal/ui/model"
)

const maxJSONBody = 16 << 10

func (s *server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.showForm(w, r, model.FormLogin)
}

func (s *server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	s.showForm(w, r, model.FormRegister)
}

func (s *server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	s.submitHTML(w, r, model.FormLogin)
}

func (s *server) handleRegisterSubmit(w http.ResponseWriter, r *http.Request) {
	s.submitHTML(w, r, model.FormRegister)
}

func (s *server) handleLoginAPI(w http.ResponseWriter, r *http.Request) {
	s.submitAPI(w, r, model.FormLogin)
}

func (s *server) handleRegisterAPI(w http.ResponseWriter, r *http.Request) {
	s.submitAPI(w, r, model.FormRegister)
}

// showForm renders the caller's form instance, or a blank one when the caller
// has not submitted anything yet.
func (s *server) showForm(w http.ResponseWriter, r *http.Request, kind model.FormKind) {
	v, ok := s.knownVisitor(r)
	if !ok {
		form := s.detachedForm(kind)
		defer form.Close()
		s.renderForm(w, r, form.Snapshot(), nil, http.StatusOK)
		return
	}
	s.renderForm(w, r, formFor(v, kind).Snapshot(), nil, http.StatusOK)
}

func (s *server) renderForm(w http.ResponseWriter, r *http.Request, snap model.FormState, next *refresh, status int) {
	data := s.buildAuthPageData(r, snap)
	data.Refresh = next
	s.render(w, string(snap.Kind), data, status)
}

func (s *server) submitHTML(w http.ResponseWriter, r *http.Request, kind model.FormKind) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	form := formFor(s.visitor(w, r), kind)
	values := make(model.Values)
	for _, name := range form.Definition().Fields {
		values[name] = r.PostForm.Get(name)
	}

	outcome, status, err := s.submit(r.Context(), form, values)
	if err == nil && outcome.Status == model.StatusSucceeded {
		if outcome.RedirectAfter <= 0 {
			http.Redirect(w, r, outcome.Redirect, http.StatusSeeOther)
			return
		}
		s.renderForm(w, r, form.Snapshot(), &refresh{After: outcome.RedirectAfter, URL: outcome.Redirect}, http.StatusOK)
		return
	}
	s.renderForm(w, r, form.Snapshot(), nil, status)
}

// submitAPI shares the visitor's form instance when the request carries a
// known cookie. Other callers get a detached instance for this request only.
func (s *server) submitAPI(w http.ResponseWriter, r *http.Request, kind model.FormKind) {
	var form *forms.Form
	if v, ok := s.knownVisitor(r); ok {
		form = formFor(v, kind)
	} else {
		form = s.detachedForm(kind)
		defer form.Close()
	}

	// RegisterRequest carries every field either form can own.
	var req model.RegisterRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.SubmitResponse{
			Status:  form.Snapshot().Status,
			Message: "invalid JSON body",
		})
		return
	}
	values := model.Values{
		model.FieldName:            req.Name,
		model.FieldPhone:           req.Phone,
		model.FieldPassword:        req.Password,
		model.FieldConfirmPassword: req.ConfirmPassword,
	}

	outcome, status, err := s.submit(r.Context(), form, values)
	resp := model.SubmitResponse{Status: form.Snapshot().Status}
	if err != nil {
		var verr *forms.ValidationError
		if errors.As(err, &verr) {
			resp.Errors = verr.Fields
		} else {
			resp.Message = rejectionText(err)
		}
		writeJSON(w, status, resp)
		return
	}

	resp.Status = outcome.Status
	resp.Message = outcome.Message.Text
	resp.Redirect = outcome.Redirect
	resp.RedirectAfterMs = outcome.RedirectAfter.Milliseconds()
	writeJSON(w, status, resp)
}

// submit applies the form's own fields from values and submits them. The
// returned status is the HTTP status that describes the result; err is set
// only when nothing was sent.
func (s *server) submit(ctx context.Context, form *forms.Form, values model.Values) (model.Outcome, int, error) {
	owned := make(model.Values, len(form.Definition().Fields))
	for _, name := range form.Definition().Fields {
		owned[name] = values[name]
	}
	outcome, err := form.SubmitValues(ctx, owned)
	if err != nil {
		return outcome, statusForError(err), err
	}
	if outcome.Status == model.StatusFailed {
		return outcome, failureStatus(outcome.Cause), nil
	}
	return outcome, http.StatusOK, nil
}

func statusForError(err error) int {
	var verr *forms.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, forms.ErrSubmissionInFlight), errors.Is(err, forms.ErrInputsDisabled):
		return http.StatusConflict
	case errors.Is(err, forms.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func rejectionText(err error) string {
	switch {
	case errors.Is(err, forms.ErrSubmissionInFlight), errors.Is(err, forms.ErrInputsDisabled):
		return "A submission is already in progress"
	case errors.Is(err, forms.ErrClosed):
		return "This form has expired. Please reload the page."
	default:
		return "Unexpected error"
	}
}
