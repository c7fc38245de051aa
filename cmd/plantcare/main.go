package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	adapthttp "plantcare/internal/adapter/http"
	"plantcare/internal/adapter/memory"
	"plantcare/internal/adapter/postgres"
	"plantcare/internal/app"
	"plantcare/internal/config"
	"plantcare/internal/domain"
	"plantcare/internal/logging"
)

type store interface {
	domain.PlantRepository
	domain.SessionRepository
}

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("PLANTCARE_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db store
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory store")
		db = memory.New()
	} else {
		pg, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer func() { _ = pg.Close() }()
		db = pg
	}

	plants := app.NewPlantService(db, cfg.Strict)
	access := app.NewAccessService(db, cfg.Auth.PasswordHash, cfg.Auth.OIDC.AllowedEmail)

	srv := adapthttp.New(plants, access, cfg.WebDir, log)
	if cfg.Auth.OIDC.Enabled() {
		sso, err := adapthttp.NewOIDC(ctx, cfg.Auth.OIDC)
		if err != nil {
			return err
		}
		srv.WithSSO(sso)
	}
	if cfg.AuthEnabled() {
		go sweepSessions(ctx, access, log)
	}

	hs := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.Bool("strict", plants.Strict()), zap.Bool("auth", cfg.AuthEnabled()))
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return hs.Shutdown(shutdownCtx)
}

func sweepSessions(ctx context.Context, access *app.AccessService, log *zap.Logger) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := access.Sweep(ctx); err != nil {
				log.Warn("session sweep failed", zap.Error(err))
			}
		}
	}
}
