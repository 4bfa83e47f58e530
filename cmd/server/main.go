package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xtding233/binomial-theory/internal/config"
	"github.com/xtding233/binomial-theory/internal/server"
	"github.com/xtding233/binomial-theory/internal/store"
	"github.com/xtding233/binomial-theory/internal/theory"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	configDir := flag.String("config", "configs", "config base directory")
	variant := flag.String("variant", "", "theory variant to validate and watch at startup")
	dbPath := flag.String("db", "saves.db", "SQLite save file; empty disables saves")
	frame := flag.Duration("frame", 100*time.Millisecond, "frame loop period")
	watch := flag.Duration("watch", 2*time.Second, "config poll interval; 0 disables hot reload")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(logger, *addr, *configDir, *variant, *dbPath, *frame, *watch); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, addr, configDir, variant, dbPath string, frame, watch time.Duration) error {
	loader := config.NewLoader(configDir)
	raw, _, err := loader.Resolve(variant)
	if err != nil {
		return err
	}
	logger.Info("config loaded", "dir", configDir, "variant", variant, "version", raw.Version)

	if watch > 0 {
		w := config.WatchVariant(loader, variant, watch, func(cfg theory.Config, err error) {
			if err != nil {
				logger.Error("config reload rejected; new sessions keep failing until fixed", "error", err)
				return
			}
			logger.Info("config reloaded; applies to new sessions", "tau_multiplier", cfg.TauMultiplier, "clamp_base", cfg.ClampBase)
		})
		w.Start()
		defer w.Stop()
	}

	var st *store.Store
	if dbPath != "" {
		st, err = store.New(dbPath)
		if err != nil {
			return err
		}
		defer st.Close()
		logger.Info("save store opened", "path", dbPath)
	}

	srv, err := server.New(server.Options{
		Resolver: loader,
		Store:    st,
		Logger:   logger,
		Frame:    frame,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go srv.Run(ctx)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
