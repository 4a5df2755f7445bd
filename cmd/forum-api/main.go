package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/forumcore/forum/internal/config"
	"github.com/forumcore/forum/internal/logger"
	"github.com/forumcore/forum/internal/router"
	"github.com/forumcore/forum/internal/setup"
)

func main() {
	var configFolder, grant string
	flag.StringVar(&configFolder, "config_folder", "config", "path to folder with configs")
	flag.StringVar(&grant, "grant", "", "grant a permission and exit, format user_id:permission")
	flag.Parse()

	cfg := config.MustLoad(configFolder)
	logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)

	deps, err := setup.SetupDependencies(cfg)
	if err != nil {
		logger.Log.Error("failed to setup dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Storage.Cleanup()

	if grant != "" {
		if err := grantPermission(deps, grant); err != nil {
			logger.Log.Error("failed to grant permission", "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              cfg.Public.ListenAddr,
		Handler:           router.New(ctx, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("server started", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("graceful shutdown failed", "error", err)
	}
}

func grantPermission(deps *setup.Dependencies, arg string) error {
	rawId, perm, ok := strings.Cut(arg, ":")
	if !ok {
		return fmt.Errorf("expected user_id:permission, got %q", arg)
	}
	id, err := strconv.ParseInt(rawId, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", rawId, err)
	}
	return deps.User.GrantPermission(context.Background(), id, perm)
}
