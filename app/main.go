package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lysyi3m/rss-scrape/app/api"
	"github.com/lysyi3m/rss-scrape/app/cfg"
	"github.com/lysyi3m/rss-scrape/app/feed"
	"github.com/lysyi3m/rss-scrape/app/tasks"
)

// Process exit codes, one per run outcome.
const (
	exitOK            = 0
	exitConfig        = 1
	exitFetch         = 2
	exitDrift         = 3
	exitNoPosts       = 4
	exitSerialization = 5
)

func main() {
	os.Exit(run())
}

func run() int {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitConfig
	}
	if appCfg == nil {
		// Help was shown
		return exitOK
	}

	setupLogging(appCfg.Debug)

	configCache := feed.NewConfigCache(appCfg.ProfilePath, feed.ConfigOverride{
		URL:      appCfg.URL,
		MaxItems: appCfg.MaxItems,
		Order:    feed.Order(appCfg.Order),
	})
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load scrape profile", "path", appCfg.ProfilePath, "error", err)
		return exitConfig
	}

	fetcher := feed.NewFetcher(&http.Client{Timeout: 60 * time.Second}, appCfg.UserAgent)
	pipeline := tasks.NewPipeline(fetcher, appCfg.Version)

	selfURL := ""
	if appCfg.BaseUrl != "" {
		selfURL = strings.TrimRight(appCfg.BaseUrl, "/") + "/feed.xml"
	}

	factory := func() (tasks.TaskInterface, error) {
		if err := configCache.Run(); err != nil {
			return nil, err
		}
		feedConfig, err := configCache.GetConfig()
		if err != nil {
			return nil, err
		}
		return tasks.NewGenerateFeedTask(feedConfig, pipeline, appCfg.OutputPath, appCfg.SnapshotPath, selfURL), nil
	}

	if appCfg.Serve {
		return serve(appCfg, configCache, factory)
	}

	return runOnce(configCache, pipeline, appCfg.OutputPath, appCfg.SnapshotPath, selfURL)
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func runOnce(configCache *feed.ConfigCache, pipeline tasks.Pipeline, outputPath, snapshotPath, selfURL string) int {
	feedConfig, err := configCache.GetConfig()
	if err != nil {
		slog.Error("Scrape profile not loaded", "error", err)
		return exitConfig
	}

	task := tasks.NewGenerateFeedTask(feedConfig, pipeline, outputPath, snapshotPath, selfURL)
	task.Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return exitCode(task.Execute(ctx))
}

func exitCode(err error) int {
	switch tasks.Classify(err) {
	case tasks.OutcomeSuccess:
		return exitOK
	case tasks.OutcomeFetch:
		return exitFetch
	case tasks.OutcomeDrift:
		return exitDrift
	case tasks.OutcomeNoPosts:
		return exitNoPosts
	case tasks.OutcomeSerialization:
		return exitSerialization
	default:
		return exitConfig
	}
}

func serve(appCfg *cfg.Cfg, configCache *feed.ConfigCache, factory tasks.TaskFactory) int {
	slog.Info("Starting RSS Scrape server", "version", appCfg.Version, "port", appCfg.Port, "interval", appCfg.GetInterval())

	scheduler := tasks.NewScheduler(factory, appCfg.GetInterval())
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(configCache, scheduler, appCfg.OutputPath, appCfg.Version)
	server := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr, "feed", "/feed.xml", "health", "/health")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	code := exitOK
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
		code = exitConfig
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	return code
}
