package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/feedkit/app/api"
	"github.com/lysyi3m/feedkit/app/async"
	"github.com/lysyi3m/feedkit/app/cfg"
	"github.com/lysyi3m/feedkit/app/feed"
	"github.com/lysyi3m/feedkit/app/xmltree"
)

func main() {
	appCfg, err := cfg.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	profileCache := feed.NewProfileCache(appCfg.ProfilesDir)
	if err := profileCache.Run(); err != nil {
		slog.Error("Failed to load profiles", "dir", appCfg.ProfilesDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Profiles loaded", "count", profileCache.GetProfileCount())

	processor := feed.NewProcessor(xmltree.Options{
		AttrKey: appCfg.AttrKey,
		TextKey: appCfg.TextKey,
	})

	if appCfg.OneShot() {
		if err := runOnce(appCfg, profileCache, processor); err != nil {
			slog.Error("Normalization failed", "file", appCfg.File, "error", err)
			os.Exit(1)
		}
		return
	}

	runServer(appCfg, profileCache, processor)
}

func runOnce(appCfg *cfg.Cfg, profileCache *feed.ProfileCache, processor *feed.Processor) error {
	profile, err := profileCache.GetProfile(appCfg.Profile)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(appCfg.File)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	pending := async.Go(func() (*feed.Result, error) {
		return processor.Run(data, appCfg.ContentType, profile)
	})

	printed := async.Maybe(func(err error, result *feed.Result) {
		if err != nil {
			return
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			slog.Error("Failed to write result", "error", err)
		}
	}, pending)

	_, err = printed.Wait(context.Background())
	return err
}

func runServer(appCfg *cfg.Cfg, profileCache *feed.ProfileCache, processor *feed.Processor) {
	handler := api.NewHandler(profileCache, processor, appCfg.BodyLimit, appCfg.Version)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port, "version", appCfg.Version)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig)
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}
}
