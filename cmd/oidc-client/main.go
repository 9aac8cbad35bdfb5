package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/tendant/chi-demo/app"

	"github.com/tendant/simple-oidc/pkg/config"
	"github.com/tendant/simple-oidc/pkg/sts"
)

type Config struct {
	Client config.ClientConfig

	// Server
	AppConfig app.AppConfig
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
	}))
	slog.SetDefault(logger)

	configFile := flag.String("config", "", "client configuration file (yaml, json, toml or env)")
	flag.Parse()

	slog.Info("Starting OIDC Client Demo")

	loadEnvFile()

	cfg := Config{}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("Failed to read configuration", "error", err)
		os.Exit(1)
	}
	if *configFile != "" {
		client, err := config.LoadClientConfigFile(*configFile)
		if err != nil {
			slog.Error("Failed to read configuration file", "path", *configFile, "error", err)
			os.Exit(1)
		}
		cfg.Client = client
	} else if err := cfg.Client.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	opts, err := cfg.Client.STSOptions()
	if err != nil {
		slog.Error("Invalid STS settings", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Client.HTTPTimeout)
	stsConfig, err := sts.Resolve(ctx, cfg.Client.STSURL, opts...)
	cancel()
	if err != nil {
		slog.Error("Failed to resolve STS configuration", "sts", cfg.Client.STSURL, "error", err)
		os.Exit(1)
	}
	defer stsConfig.Close()

	sessions := NewSessionStore()
	go sweepSessions(sessions, time.Minute)

	handler := NewHandler(stsConfig, cfg.Client, sessions)

	server := app.DefaultApp()
	app.RoutesHealthz(server.R)
	handler.Routes(server.R)

	slog.Info("OIDC Client started", "redirect_uri", cfg.Client.RedirectURI, "sts", cfg.Client.STSURL)
	server.Run()
}

func sweepSessions(sessions *SessionStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		if removed := sessions.Sweep(); removed > 0 {
			slog.Debug("Removed expired sessions", "count", removed)
		}
	}
}

// loadEnvFile loads .env next to the executable, or from the working directory
func loadEnvFile() {
	execPath, err := os.Executable()
	if err != nil {
		return
	}

	envFile := filepath.Join(filepath.Dir(execPath), ".env")
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		cwd, _ := os.Getwd()
		envFile = filepath.Join(cwd, ".env")
	}

	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		slog.Debug("No .env file found (using environment variables or defaults)")
		return
	}

	slog.Info("Loading configuration from .env file", "path", envFile)
	if err := godotenv.Load(envFile); err != nil {
		slog.Warn("Failed to load .env file", "error", err)
	}
}
