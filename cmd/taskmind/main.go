package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"taskmind/internal/client"
	"taskmind/internal/config"
	"taskmind/internal/scheduler"
	"taskmind/internal/server"
	"taskmind/internal/session"
	"taskmind/internal/storage/sqlite"
	"taskmind/internal/tasks"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(2)
	}
	logger.Info("TaskMind dashboard", slog.String("api", cfg.APIURL), slog.String("todo_prefix", cfg.TodoPathPrefix))

	store, err := sqlite.Open(cfg.DBPath, logger)
	if err != nil {
		logger.Error("unable to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	var sess *session.Manager
	remote := client.New(cfg.APIURL, cfg.TodoPathPrefix, cfg.RequestTimeout, func() string { return sess.Token() }, logger)
	sess = session.NewManager(store, remote, logger)

	svc := tasks.NewService(remote, logger)
	svc.OnUnauthorized(func(ctx context.Context) {
		if err := sess.Logout(ctx); err != nil {
			logger.Error("logout after rejected credential failed", slog.String("error", err.Error()))
		}
	})
	sess.OnLogout(svc.Collection().Reset)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sess.Restore(ctx); err != nil {
		logger.Warn("unable to restore session", slog.String("error", err.Error()))
	}

	if cfg.RefreshInterval > 0 {
		sched := scheduler.New(svc, sess, cfg.RequestTimeout, logger)
		if _, err := sched.ScheduleRefresh(cfg.RefreshInterval); err != nil {
			logger.Error("unable to schedule refresh", slog.String("error", err.Error()))
			os.Exit(1)
		}
		sched.Start()
		defer sched.Stop()
	}

	srv := server.New(sess, svc, logger, cfg.StaticDir)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
	}
	logger.Info("server stopped")
}
