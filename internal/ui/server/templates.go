package server

import (
	"fmt"
	"html/template"
	"math"
	"path/filepath"
	"strconv"
	"time"
)

// loadTemplates parses every page against the shared base layout. The map is
// keyed by the page name passed to ExecuteTemplate.
func loadTemplates(dir string) (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		"refreshSeconds": refreshSeconds,
	}

	base := filepath.Join(dir, "base.tmpl")
	authForm := filepath.Join(dir, "auth_form.tmpl")

	pages := []struct {
		name  string
		files []string
	}{
		{name: "home", files: []string{base, filepath.Join(dir, "home.tmpl")}},
		{name: "hero", files: []string{base, filepath.Join(dir, "hero.tmpl")}},
		{name: "login", files: []string{base, authForm, filepath.Join(dir, "login.tmpl")}},
		{name: "register", files: []string{base, authForm, filepath.Join(dir, "register.tmpl")}},
		{name: "not_found", files: []string{base, filepath.Join(dir, "not_found.tmpl")}},
	}

	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		tmpl, err := template.New(page.name).Funcs(funcs).ParseFiles(page.files...)
		if err != nil {
			return nil, fmt.Errorf("parse %s templates: %w", page.name, err)
		}
		templates[page.name] = tmpl
	}
	return templates, nil
}

// refreshSeconds formats a delay for a meta refresh tag. Browsers read only
// the integer part of the delay, so fractions round up rather than cutting
// the wait short.
func refreshSeconds(d time.Duration) string {
	if d <= 0 {
		return "0"
	}
	return strconv.FormatInt(int64(math.Ceil(d.Seconds())), 10)
}
