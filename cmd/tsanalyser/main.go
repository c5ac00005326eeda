package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Exarkun1/pylab4/internal/config"
	"github.com/Exarkun1/pylab4/internal/downloader"
	"github.com/Exarkun1/pylab4/internal/downsampling"
	"github.com/Exarkun1/pylab4/internal/logging"
	"github.com/Exarkun1/pylab4/internal/queue"
	"github.com/Exarkun1/pylab4/internal/render"
	"github.com/Exarkun1/pylab4/internal/router"
	"github.com/Exarkun1/pylab4/internal/services"
	"github.com/Exarkun1/pylab4/internal/shell"
	"github.com/Exarkun1/pylab4/internal/storage"
	"github.com/Exarkun1/pylab4/internal/utils"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("tsanalyser starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)
	if cfg.IsDevelopment() {
		logger.Debug("Development mode", "data_dir", cfg.Storage.DataDir, "charts", cfg.Render.OutputDir)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		logger.Fatal("Failed to create directories", "error", err)
	}

	store, err := storage.New(storage.Config{
		Type:        cfg.Storage.Type,
		Compression: cfg.Storage.Compression,
		IndexColumn: cfg.Analysis.IndexColumn,
		File:        storage.FileConfig{Dir: cfg.WorkbookDir()},
		Redis: storage.RedisConfig{
			URL:      cfg.Storage.RedisURL,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
			Key:      cfg.WorkbookKey(),
		},
	})
	if err != nil {
		logger.Fatal("Failed to open workbook", "type", cfg.Storage.Type, "error", err)
	}
	defer func() { _ = store.Close() }()
	logger.Info("Workbook opened", "type", cfg.Storage.Type, "workbook", cfg.Storage.Workbook)

	field, err := downloader.ParseField(cfg.Downloader.Field)
	if err != nil {
		logger.Fatal("Invalid downloader field", "error", err)
	}
	dl := downloader.NewClient(cfg.Downloader.BaseURL,
		downloader.WithTimeout(cfg.Downloader.Timeout),
		downloader.WithRetries(cfg.Downloader.MaxRetries, cfg.Downloader.RetryBackoff),
		downloader.WithUserAgent(cfg.Downloader.UserAgent),
		downloader.WithField(field),
		downloader.WithLogger(logger.With("component", "downloader")),
	)

	mode, err := downsampling.ParseMode(cfg.Render.Downsampling)
	if err != nil {
		logger.Fatal("Invalid downsampling mode", "error", err)
	}
	renderer, err := render.NewSVGRenderer(render.Config{
		OutputDir:    cfg.Render.OutputDir,
		Width:        cfg.Render.Width,
		Height:       cfg.Render.Height,
		MaxPoints:    cfg.Render.MaxPoints,
		Downsampling: mode,
		Location:     cfg.Analysis.Location(),
	})
	if err != nil {
		logger.Fatal("Failed to create renderer", "error", err)
	}

	var publisher queue.Publisher
	subject := ""
	if cfg.Queue.Enabled {
		logger.Info("Connecting to Queue", "type", cfg.Queue.Type, "url", cfg.Queue.URL)
		publisher, err = queue.NewPublisher(cfg.Queue)
		if err != nil {
			logger.Fatal("Failed to connect to Queue", "error", err)
		}
		defer func() { _ = publisher.Close() }()
		subject = cfg.Queue.Subject
		logger.Info("Queue connection established", "subject", subject)
	}

	svc := services.NewAnalysisService(logger, store, dl, renderer, publisher, services.AnalysisOptions{
		IndexColumn:           cfg.Analysis.IndexColumn,
		ValueColumn:           cfg.Analysis.ValueColumn,
		StrictAutocorrelation: cfg.Analysis.StrictAutocorrelation,
		Subject:               subject,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Enabled {
		app := router.New(logger, svc, cfg.Server, Version)
		go func() {
			addr := cfg.GetServerAddress()
			logger.Info("Server listening", "address", addr)
			if err := app.Listen(addr); err != nil {
				logger.Error("Server stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), utils.ShutdownTimeout)
			defer cancel()
			if err := app.ShutdownWithContext(shutdownCtx); err != nil {
				logger.Error("Server forced to shutdown", "error", err)
			}
		}()
	}

	sh := shell.New(svc, os.Stdin, os.Stdout,
		shell.WithLogger(logger),
		shell.WithTableFormat(cfg.Analysis.IndexColumn, cfg.Analysis.Location()),
	)
	if err := sh.Run(ctx); err != nil && ctx.Err() == nil {
		logging.ErrorCtx(ctx, "Command loop stopped", "error", err)
	}

	logger.Info("tsanalyser exited")
}
