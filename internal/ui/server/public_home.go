package server

import (
	"net/http"
	"path/filepath"
)

func (s *server) assetHandler(name, contentType string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(s.assetsDir, name)
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		http.ServeFile(w, r, path)
	})
}

func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	base := s.buildBasePageData(r, "Welcome to "+s.siteName)
	base.PrimaryAction = &navAction{Label: "Get Started", Href: "/register"}
	base.SecondaryAction = &navAction{Label: "Login", Href: "/login"}
	data := homePageData{
		basePageData: base,
		Features:     homeFeatures,
	}
	s.render(w, "home", data, http.StatusOK)
}

func (s *server) handleHero(w http.ResponseWriter, r *http.Request) {
	base := s.buildBasePageData(r, "Hero · "+s.siteName)
	base.SecondaryAction = &navAction{Label: "Register", Href: "/register"}
	s.render(w, "hero", base, http.StatusOK)
}

func (s *server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	base := s.buildBasePageData(r, "Not found · "+s.siteName)
	s.render(w, "not_found", base, http.StatusNotFound)
}

func (s *server) render(w http.ResponseWriter, name string, data any, status int) {
	tmpl, ok := s.templates[name]
	if !ok {
		s.logger.Error("server", "missing template", nil, map[string]any{"template": name})
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status > 0 {
		w.WriteHeader(status)
	}
	if err := tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("server", "render template", err, map[string]any{"template": name})
	}
}
