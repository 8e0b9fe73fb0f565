package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/Its-donkey/chatapp-web/internal/ui/model"
)

type navAction struct {
	Label string
	Href  string
}

type basePageData struct {
	PageTitle       string
	StylesheetPath  string
	SiteName        string
	CurrentYear     int
	PrimaryAction   *navAction
	SecondaryAction *navAction
	Refresh         *refresh
}

// refresh asks the browser to navigate after a delay.
type refresh struct {
	After time.Duration
	URL   string
}

type feature struct {
	Icon        string
	Title       string
	Description string
}

type homePageData struct {
	basePageData
	Features []feature
}

type fieldView struct {
	Name         string
	Label        string
	Type         string
	Placeholder  string
	Autocomplete string
	Value        string
	Error        string
}

type authPageData struct {
	basePageData
	Heading        string
	Intro          string
	Action         string
	Fields         []fieldView
	Message        model.Message
	InputsDisabled bool
	SubmitLabel    string
	AltPrompt      string
	AltLink        navAction
}

var homeFeatures = []feature{
	{Icon: "🔒", Title: "Secure", Description: "End-to-end encryption keeps your conversations private and safe."},
	{Icon: "⚡", Title: "Fast", Description: "Lightning-fast messaging with real-time delivery and notifications."},
	{Icon: "💬", Title: "Simple", Description: "Clean and intuitive interface designed for effortless communication."},
}

type fieldMeta struct {
	label        string
	inputType    string
	placeholder  string
	autocomplete string
}

var loginFieldMeta = map[string]fieldMeta{
	model.FieldPhone:    {label: "Phone Number", inputType: "tel", placeholder: "+92 XXX XXXXXXX or 03XX XXXXXXX", autocomplete: "tel"},
	model.FieldPassword: {label: "Password", inputType: "password", placeholder: "Enter your password", autocomplete: "current-password"},
}

var registerFieldMeta = map[string]fieldMeta{
	model.FieldName:            {label: "Username", inputType: "text", placeholder: "Enter your full name", autocomplete: "name"},
	model.FieldPhone:           {label: "Phone Number", inputType: "tel", placeholder: "+92 XXX XXXXXXX or 03XX XXXXXXX", autocomplete: "tel"},
	model.FieldPassword:        {label: "Password", inputType: "password", placeholder: "Create a strong password", autocomplete: "new-password"},
	model.FieldConfirmPassword: {label: "Confirm Password", inputType: "password", placeholder: "Confirm your password", autocomplete: "new-password"},
}

func (s *server) buildBasePageData(r *http.Request, title string) basePageData {
	if strings.TrimSpace(title) == "" {
		title = s.siteName
	}
	return basePageData{
		PageTitle:      title,
		StylesheetPath: s.stylesPath,
		SiteName:       s.siteName,
		CurrentYear:    s.currentYear,
	}
}

func (s *server) buildAuthPageData(r *http.Request, snap model.FormState) authPageData {
	meta := loginFieldMeta
	data := authPageData{
		Heading:   "Login",
		Intro:     "Welcome back! Please sign in",
		Action:    "/login",
		AltPrompt: "Don’t have an account?",
		AltLink:   navAction{Label: "Register", Href: "/register"},
	}
	if snap.Kind == model.FormRegister {
		meta = registerFieldMeta
		data = authPageData{
			Heading:   "Create Account",
			Intro:     "Join us today and get started",
			Action:    "/register",
			AltPrompt: "Already have an account?",
			AltLink:   navAction{Label: "Login", Href: "/login"},
		}
	}

	data.basePageData = s.buildBasePageData(r, data.Heading+" · "+s.siteName)
	data.basePageData.SecondaryAction = &data.AltLink
	data.Message = snap.Message
	data.InputsDisabled = snap.InputsDisabled
	data.SubmitLabel = snap.SubmitLabel
	for _, name := range snap.Fields {
		m := meta[name]
		value := snap.Value(name)
		// Passwords stay on the form instance and are never echoed into HTML.
		if m.inputType == "password" {
			value = ""
		}
		data.Fields = append(data.Fields, fieldView{
			Name:         name,
			Label:        m.label,
			Type:         m.inputType,
			Placeholder:  m.placeholder,
			Autocomplete: m.autocomplete,
			Value:        value,
			Error:        snap.Error(name),
		})
	}
	return data
}
