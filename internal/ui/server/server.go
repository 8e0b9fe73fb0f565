package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Its-donkey/chatapp-web/internal/ui/forms"
	"github.com/Its-donkey/chatapp-web/internal/ui/model"
	"github.com/Its-donkey/chatapp-web/internal/ui/state"
	"github.com/Its-donkey/chatapp-web/logging"
)

const (
	defaultSweepInterval = time.Minute
	shutdownTimeout      = 5 * time.Second
)

// Options configures the UI HTTP server.
type Options struct {
	Listen       string
	TemplatesDir string
	AssetsDir    string
	SiteName     string
	Logger       *logging.Logger
	Templates    map[string]*template.Template

	// Sender delivers form payloads to the auth API.
	Sender    forms.Sender
	Scheduler forms.Scheduler

	LoginMessageTTL       time.Duration
	RegisterMessageTTL    time.Duration
	RegisterRedirectDelay time.Duration
	PostLoginPath         string

	VisitorTTL     time.Duration
	MaxVisitors    int
	SweepInterval  time.Duration
	AllowedOrigins []string
}

type server struct {
	assetsDir      string
	stylesPath     string
	templates      map[string]*template.Template
	currentYear    int
	siteName       string
	postLoginPath  string
	allowedOrigins []string
	visitors       *state.Store
	newForm        func(kind model.FormKind) *forms.Form
	logger         *logging.Logger
}

// Run starts the UI HTTP server and blocks until ctx is done or the listener fails.
func Run(ctx context.Context, opts Options) error {
	if opts.Sender == nil {
		return errors.New("server: auth api sender is required")
	}
	if opts.Templates == nil {
		tmpls, err := loadTemplates(opts.TemplatesDir)
		if err != nil {
			return err
		}
		opts.Templates = tmpls
	}

	srv := newServer(opts)
	defer srv.visitors.Close()

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	interval := opts.SweepInterval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	go srv.visitors.Run(sweepCtx, interval)

	httpServer := &http.Server{
		Addr:              opts.Listen,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	srv.logger.Info("server", fmt.Sprintf("Serving %s UI on http://%s", srv.siteName, opts.Listen), nil)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}
}

func newServer(opts Options) *server {
	opts = applyDefaults(opts)
	logger := opts.Logger

	scheduler := opts.Scheduler
	sender := opts.Sender
	loginDef := forms.LoginDefinition(opts.PostLoginPath, opts.LoginMessageTTL)
	registerDef := forms.RegisterDefinition(opts.RegisterRedirectDelay, opts.RegisterMessageTTL)

	newForm := func(kind model.FormKind) *forms.Form {
		if kind == model.FormRegister {
			return forms.New(registerDef, sender, scheduler, logger)
		}
		return forms.New(loginDef, sender, scheduler, logger)
	}
	store := state.NewStore(opts.VisitorTTL, opts.MaxVisitors, func() (*forms.Form, *forms.Form) {
		return newForm(model.FormLogin), newForm(model.FormRegister)
	}, logger)

	return &server{
		assetsDir:      opts.AssetsDir,
		stylesPath:     "/styles.css",
		templates:      opts.Templates,
		currentYear:    time.Now().Year(),
		siteName:       opts.SiteName,
		postLoginPath:  opts.PostLoginPath,
		allowedOrigins: opts.AllowedOrigins,
		visitors:       store,
		newForm:        newForm,
		logger:         logger,
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(logging.NewHTTPLogger(s.logger, 0).Middleware)

	r.Get("/", s.handleHome)
	r.Get("/hero", s.handleHero)
	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLoginSubmit)
	r.Get("/register", s.handleRegisterPage)
	r.Post("/register", s.handleRegisterSubmit)

	r.Route("/api", func(r chi.Router) {
		if len(s.allowedOrigins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   s.allowedOrigins,
				AllowedMethods:   []string{http.MethodPost, http.MethodOptions},
				AllowedHeaders:   []string{"Content-Type"},
				AllowCredentials: true,
				MaxAge:           300,
			}))
		}
		r.Post("/login", s.handleLoginAPI)
		r.Post("/register", s.handleRegisterAPI)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/styles.css", s.assetHandler("styles.css", "text/css; charset=utf-8"))
	r.Get("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.NotFound(s.handleNotFound)

	return r
}

func applyDefaults(opts Options) Options {
	if opts.Listen == "" {
		opts.Listen = "127.0.0.1:4173"
	}
	if opts.AssetsDir == "" {
		opts.AssetsDir = "ui"
	}
	if opts.SiteName == "" {
		opts.SiteName = "ChatApp"
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = forms.RealScheduler()
	}
	if opts.LoginMessageTTL <= 0 {
		opts.LoginMessageTTL = 3 * time.Second
	}
	if opts.RegisterMessageTTL <= 0 {
		opts.RegisterMessageTTL = 1500 * time.Millisecond
	}
	if opts.PostLoginPath == "" {
		opts.PostLoginPath = "/hero"
	}
	if opts.VisitorTTL <= 0 {
		opts.VisitorTTL = 30 * time.Minute
	}
	if opts.MaxVisitors <= 0 {
		opts.MaxVisitors = 10000
	}
	return opts
}
