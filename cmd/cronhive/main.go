package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/t77yq/cronhive/internal/alert"
	"github.com/t77yq/cronhive/internal/discovery"
	"github.com/t77yq/cronhive/internal/inventory"
	"github.com/t77yq/cronhive/internal/model"
	"github.com/t77yq/cronhive/internal/report"
	"github.com/t77yq/cronhive/internal/storage"
	"github.com/t77yq/cronhive/internal/watch"
)

func main() {
	pflag.StringSlice("scan-file", nil, "Crontab file to scan (repeatable)")
	pflag.Bool("system", false, "Treat scanned files as system crontabs (user column present)")
	pflag.Bool("scan-user", false, "Scan the current user's crontab via crontab -l")
	pflag.String("output", "text", "Report format: text or json")
	pflag.Duration("grace", 5*time.Minute, "Tolerance before an overdue job counts as dead")
	pflag.String("store", "", "SQLite file to persist scan snapshots (optional)")
	pflag.String("watch", "", "Cron cadence for repeated scans (optional)")
	pflag.Bool("verbose", false, "Verbose logging")
	pflag.Parse()

	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		log.Fatalf("Failed to bind flags: %v", err)
	}

	// Optional config file; flags win over file values.
	viper.SetConfigName("cronhive")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/cronhive")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatalf("Failed to read config file: %v", err)
		}
	}

	var logger *zap.Logger
	var err error
	if viper.GetBool("verbose") {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	output := viper.GetString("output")
	if output != "text" && output != "json" {
		logger.Fatal("Invalid output format", zap.String("output", output))
	}

	scanner := discovery.NewScanner(logger)
	detector := inventory.NewDetector(viper.GetDuration("grace"))
	builder := inventory.NewBuilder(logger, detector)

	var store storage.SnapshotStore
	if path := viper.GetString("store"); path != "" {
		store, err = storage.NewSQLiteSnapshotStore(logger, path)
		if err != nil {
			logger.Fatal("Failed to open snapshot store", zap.Error(err))
		}
		defer store.Close()
	}

	var publisher *alert.Publisher
	if viper.GetBool("alerting.enabled") {
		publisher, err = alert.NewPublisher(logger, alert.Config{
			URL:           viper.GetString("alerting.url"),
			SubjectPrefix: viper.GetString("alerting.subject_prefix"),
		})
		if err != nil {
			logger.Fatal("Failed to connect alert publisher", zap.Error(err))
		}
		defer publisher.Close()
	}

	scan := func(ctx context.Context) (*model.Report, error) {
		var jobs []model.JobRecord

		for _, path := range viper.GetStringSlice("scan-file") {
			found, err := scanner.ScanFile(path, viper.GetBool("system"))
			if err != nil {
				return nil, err
			}
			jobs = append(jobs, found...)
		}

		if viper.GetBool("scan-user") {
			found, err := scanner.ScanUserCrontab(ctx)
			if err != nil {
				logger.Warn("Could not read user crontab", zap.Error(err))
			} else {
				jobs = append(jobs, found...)
			}
		}

		return builder.Build(ctx, jobs, time.Now()), nil
	}

	emit := func(ctx context.Context, rep *model.Report) {
		var renderErr error
		if output == "json" {
			renderErr = report.RenderJSON(os.Stdout, rep)
		} else {
			renderErr = report.RenderText(os.Stdout, rep)
		}
		if renderErr != nil {
			logger.Error("Failed to render report", zap.Error(renderErr))
		}

		if store != nil {
			if err := store.Store(ctx, rep); err != nil {
				logger.Error("Failed to store snapshot", zap.Error(err))
			}
		}
		if publisher != nil {
			if err := publisher.PublishDeadJobs(ctx, rep); err != nil {
				logger.Error("Failed to publish alerts", zap.Error(err))
			}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// First scan always runs, watch mode or not. A failed file scan is
	// fatal: without the source there is nothing to inventory.
	rep, err := scan(ctx)
	if err != nil {
		logger.Fatal("Scan failed", zap.Error(err))
	}
	emit(ctx, rep)

	watchExpr := viper.GetString("watch")
	if watchExpr == "" {
		return
	}

	watcher, err := watch.NewWatcher(ctx, logger, watchExpr, func(ctx context.Context) {
		rep, err := scan(ctx)
		if err != nil {
			logger.Error("Scheduled scan failed", zap.Error(err))
			return
		}
		emit(ctx, rep)
	})
	if err != nil {
		logger.Fatal("Failed to start watch mode", zap.Error(err))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	watcher.Start()

	sig := <-sigCh
	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	cancel()
	watcher.Stop()
}
