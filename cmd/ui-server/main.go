package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Its-donkey/chatapp-web/internal/ui/authapi"
	"github.com/Its-donkey/chatapp-web/internal/ui/config"
	"github.com/Its-donkey/chatapp-web/internal/ui/server"
	"github.com/Its-donkey/chatapp-web/logging"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	listen := flag.String("listen", cfg.ListenAddr, "address to serve the ChatApp UI")
	apiBase := flag.String("api", cfg.APIBaseURL, "base URL for the ChatApp auth API")
	templatesDir := flag.String("templates", cfg.TemplatesDir, "path to the html/template files")
	assetsDir := flag.String("assets", cfg.AssetsDir, "path where styles.css is located")
	logDir := flag.String("logs", cfg.LogDir, "directory for rotated JSON logs (empty disables file logging)")
	logLevel := flag.String("log-level", cfg.LogLevel, "minimum log level (DEBUG, INFO, WARN, ERROR)")
	flag.Parse()

	cfg.ListenAddr = *listen
	cfg.APIBaseURL = *apiBase
	cfg.TemplatesDir = *templatesDir
	cfg.AssetsDir = *assetsDir
	cfg.LogDir = *logDir
	cfg.LogLevel = *logLevel

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Printf("%v; using %s", err, level)
	}

	writers := []io.Writer{os.Stdout}
	if cfg.LogDir != "" {
		fileWriter, err := logging.NewFileWriter(cfg.LogDir, "ui-server.log", 10, 5)
		if err != nil {
			log.Fatalf("open log file: %v", err)
		}
		defer fileWriter.Close()
		writers = append(writers, fileWriter)
	}
	logger := logging.New(cfg.SiteName, level, writers...)

	templateRoot, err := filepath.Abs(cfg.TemplatesDir)
	if err != nil {
		log.Fatalf("resolve templates directory: %v", err)
	}
	assetRoot, err := filepath.Abs(cfg.AssetsDir)
	if err != nil {
		log.Fatalf("resolve assets directory: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := server.Options{
		Listen:                cfg.ListenAddr,
		TemplatesDir:          templateRoot,
		AssetsDir:             assetRoot,
		SiteName:              cfg.SiteName,
		Logger:                logger,
		Sender:                authapi.NewClient(cfg.APIBaseURL, cfg.APITimeout, logger),
		LoginMessageTTL:       cfg.LoginMessageTTL,
		RegisterMessageTTL:    cfg.RegisterMessageTTL,
		RegisterRedirectDelay: cfg.RegisterRedirectDelay,
		PostLoginPath:         cfg.PostLoginPath,
		VisitorTTL:            cfg.VisitorTTL,
		MaxVisitors:           cfg.MaxVisitors,
		AllowedOrigins:        cfg.AllowedOrigins,
	}

	if err := server.Run(ctx, opts); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("ui server: %v", err)
	}
}
