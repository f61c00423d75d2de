// Command vitalyx-gateway is the development credential gateway behind the
// session core: it signs accounts in, rotates refresh sessions, and pushes
// revocations and role changes to connected clients.
//
// Wiring order:
//
//	config → logger → database → repositories → ws hub → services →
//	handlers → routes + CORS → HTTP server, all under one errgroup.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/config"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg/logger"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/services"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/ws"
)

const (
	shutdownTimeout        = 5 * time.Second
	sessionCleanupInterval = 10 * time.Minute
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "vitalyx-gateway: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	base, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	log := logger.For(base, "main")
	log.Info("gateway starting", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ─── Storage ───
	repos, err := initRepositories(cfg, base)
	if err != nil {
		return err
	}
	defer repos.DB.Close()

	// ─── Push ───
	hub := ws.NewHub(base)
	go hub.Run()

	// ─── Services ───
	svcs, limiters, err := initServices(ctx, cfg, repos, hub, base)
	if err != nil {
		return err
	}
	defer svcs.Lockout.Close()
	defer limiters.Login.Stop()

	// ─── HTTP ───
	h := initHandlers(cfg, repos, svcs, limiters, hub)
	mux := http.NewServeMux()
	initRoutes(mux, h, svcs.Auth, repos.Store.Users())

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      withCORS(mux, cfg.CORS.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		services.RunSessionCleanup(gctx, repos.Store.Sessions(), sessionCleanupInterval, logger.For(base, "cleanup"))
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		// Close push connections first so clients see the server going away.
		hub.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("forced shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

// discardIfNil lets the init helpers run without a configured logger.
func discardIfNil(l *slog.Logger) *slog.Logger {
	if l == nil {
		return logger.Discard()
	}
	return l
}
