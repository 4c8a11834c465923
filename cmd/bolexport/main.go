package main

import (
	"context"
	"github.com/ivanpodgorny/bolexport/internal/client"
	"github.com/ivanpodgorny/bolexport/internal/config"
	"github.com/ivanpodgorny/bolexport/internal/logging"
	"github.com/ivanpodgorny/bolexport/internal/metrics"
	"github.com/ivanpodgorny/bolexport/internal/repository"
	"github.com/ivanpodgorny/bolexport/internal/service"
	"github.com/ivanpodgorny/bolexport/internal/validator"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	if err := Execute(); err != nil {
		log.Fatal(err)
	}
}

func Execute() error {
	cfg, err := config.NewBuilder().LoadDotEnv().LoadEnv().LoadFlags().Build()
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.New(os.Stdout, cfg.LogDir(), cfg.Verbose(), time.Now())
	if err != nil {
		return err
	}

	defer func() {
		_ = closeLog()
	}()

	v, err := validator.NewDefault()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		bol = client.NewBol(
			cfg.APIBase(),
			cfg.TokenURL(),
			cfg.ClientID(),
			cfg.ClientSecret(),
			client.WithLogger(logger),
			client.WithTimeout(cfg.HTTPTimeout()),
		)
		export = service.NewExport(
			bol,
			repository.NewState(cfg.StateDir(), logger),
			repository.NewSpreadsheet(cfg.ExportDir(), logger),
			v,
			logger,
		)
	)

	summary, err := export.Run(ctx, cfg.ExportDate(), cfg.DryRun())
	if err != nil {
		logger.Error("выгрузка завершилась с ошибкой", slog.String("error", err.Error()))
	}

	if cfg.MetricsFile() != "" {
		if mErr := metrics.Write(cfg.MetricsFile(), summary, err == nil, time.Now()); mErr != nil {
			logger.Warn(
				"не удалось записать метрики",
				slog.String("path", cfg.MetricsFile()),
				slog.String("error", mErr.Error()),
			)
		}
	}

	return err
}
