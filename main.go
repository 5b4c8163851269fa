package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"powerposition/config"
	"powerposition/internal/metrics"
	"powerposition/internal/pipeline"
	"powerposition/internal/retry"
	"powerposition/logger"
	"powerposition/reader"
	"powerposition/writer"
)

func main() {
	log := logger.New()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	runOnce := flag.Bool("once", false, "Run a single extract and exit")
	flag.Parse()

	path := config.ResolveConfigPath(*configPath, "config/config.yml")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service":     cfg.PowerPosition.Name,
		"version":     cfg.PowerPosition.Version,
		"environment": config.AppEnvironment(),
		"config":      path,
	}).Info("starting powerposition")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, err := reader.New(cfg.Source, log)
	if err != nil {
		log.WithError(err).Error("failed to create trade source")
		os.Exit(1)
	}

	var uploader writer.Uploader
	if cfg.Storage.S3.Enabled {
		s3Uploader, err := writer.NewS3Uploader(ctx, cfg.Storage.S3, log)
		if err != nil {
			log.WithError(err).Error("failed to create S3 uploader")
			os.Exit(1)
		}
		uploader = s3Uploader
	} else {
		log.WithComponent("main").Info("S3 storage disabled; reports stay local")
	}

	reportWriter := writer.NewReportWriter(cfg.Report, uploader, log)
	extractor := pipeline.NewExtractor(source, reportWriter, cfg.Report.TimeZone, log)
	publisher := metrics.NewPublisher(ctx, cfg.Metrics.CloudWatch, log)

	scheduler := pipeline.NewScheduler(pipeline.SchedulerConfig{
		Interval: cfg.Schedule.Interval(),
		Retry:    retry.Policy{MaxAttempts: cfg.Schedule.Retry.MaxAttempts, Delay: cfg.Schedule.Retry.Delay},
	}, extractor, publisher, log)

	if *runOnce {
		if err := scheduler.RunCycle(ctx); err != nil {
			os.Exit(1)
		}
		return
	}

	if err := scheduler.Run(ctx); err != nil {
		log.WithError(err).Error("scheduler stopped unexpectedly")
		os.Exit(1)
	}
	log.Info("powerposition stopped")
}
