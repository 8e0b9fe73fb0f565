package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Its-donkey/chatapp-web/internal/ui/authapi"
	"github.com/Its-donkey/chatapp-web/internal/ui/forms"
	"github.com/Its-donkey/chatapp-web/internal/ui/model"
	"github.com/Its-donkey/chatapp-web/internal/ui/state"
)

const visitorCookieName = "chatapp_visitor"

// knownVisitor returns the visitor named by the request's cookie, if it is
// still tracked.
func (s *server) knownVisitor(r *http.Request) (*state.Visitor, bool) {
	cookie, err := r.Cookie(visitorCookieName)
	if err != nil {
		return nil, false
	}
	return s.visitors.Visitor(cookie.Value)
}

// visitor returns the caller's form instances, registering a new visitor and
// issuing a cookie when the request carries no known one. Only form posts
// call it; reads and cookie-less API calls use detached forms instead.
func (s *server) visitor(w http.ResponseWriter, r *http.Request) *state.Visitor {
	if v, ok := s.knownVisitor(r); ok {
		return v
	}
	v := s.visitors.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     visitorCookieName,
		Value:    v.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return v
}

// detachedForm builds a form instance that is never stored. Callers close it
// once they are done with it.
func (s *server) detachedForm(kind model.FormKind) *forms.Form {
	return s.newForm(kind)
}

func formFor(v *state.Visitor, kind model.FormKind) *forms.Form {
	if kind == model.FormRegister {
		return v.Register
	}
	return v.Login
}

// failureStatus maps a failed submission to the status returned to the browser.
// Upstream client errors pass through; everything else is a bad gateway.
func failureStatus(cause error) int {
	var rejection *authapi.ServerRejection
	if errors.As(cause, &rejection) && rejection.Status >= 400 && rejection.Status < 500 {
		return rejection.Status
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
