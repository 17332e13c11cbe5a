package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	cli "github.com/jawher/mow.cli"
	"github.com/sirupsen/logrus"

	"github.com/geniass/airpods-dealz/pkg/config"
	"github.com/geniass/airpods-dealz/pkg/cycle"
	"github.com/geniass/airpods-dealz/pkg/history"
	"github.com/geniass/airpods-dealz/pkg/metrics"
	"github.com/geniass/airpods-dealz/pkg/normalize"
	"github.com/geniass/airpods-dealz/pkg/notify"
	"github.com/geniass/airpods-dealz/pkg/product"
	"github.com/geniass/airpods-dealz/pkg/report"
	"github.com/geniass/airpods-dealz/pkg/scraper"
	"github.com/geniass/airpods-dealz/pkg/tracing"
)

func main() {
	app := cli.App("dealz", "Watch AirPods prices at Altex and Flanco and mail deep discounts")

	app.Command("run", "run one monitoring cycle", cmdRun)
	app.Command("export", "write the history ledger and current averages to an XLSX file", cmdExport)

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func cmdRun(cmd *cli.Cmd) {
	cacheDir := cmd.StringOpt("cache", "", "colly cache directory, overrides FETCH_CACHE_DIR")

	cmd.Action = func() {
		cfg := config.Load()
		if *cacheDir != "" {
			cfg.FetchCacheDir = *cacheDir
		}
		closeLog := setup(cfg)
		defer closeLog()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		shutdownTracer, err := tracing.InitTracer(ctx, cfg.OtelEndpoint)
		if err != nil {
			logrus.WithError(err).Warn("Tracing disabled")
		}
		defer shutdownTracer()

		backend, err := openHistory(ctx, cfg)
		if err != nil {
			exit("Could not open history", err)
		}
		defer backend.Close()

		rec := metrics.NewRecorder()
		engine := &cycle.Engine{
			Sources:   sources(cfg),
			Store:     backend.Store,
			Locker:    backend.Locker,
			Notifier:  notifier(cfg),
			Recipient: cfg.EmailTo,
			Family:    product.AirPods,
			Retry: scraper.RetryPolicy{
				MaxAttempts: cfg.RetryAttempts,
				Backoff:     cfg.RetryBackoff,
			},
			Metrics: rec,
		}

		runErr := engine.Run(ctx)
		if err := rec.Push(cfg.PushgatewayURL); err != nil {
			logrus.WithError(err).Warn("Could not push metrics")
		}
		if runErr != nil {
			exit("Cycle failed", runErr)
		}
	}
}

func cmdExport(cmd *cli.Cmd) {
	cmd.Spec = "[OUT]"
	out := cmd.StringArg("OUT", "products.xlsx", "spreadsheet to write")

	cmd.Action = func() {
		cfg := config.Load()
		closeLog := setup(cfg)
		defer closeLog()

		ctx := context.Background()
		backend, err := openHistory(ctx, cfg)
		if err != nil {
			exit("Could not open history", err)
		}
		defer backend.Close()

		ledger, err := backend.Store.Read(ctx)
		if err != nil {
			exit("Could not read history", err)
		}
		if err := report.WriteXLSX(*out, ledger, product.AirPods, time.Now()); err != nil {
			exit("Export failed", err)
		}
		logrus.WithFields(logrus.Fields{"path": *out, "entries": len(ledger)}).Info("Exported history")
	}
}

func setup(cfg config.Config) func() {
	closeLog, err := config.SetupLogging(cfg)
	if err != nil {
		logrus.WithError(err).Warn("Error log file disabled")
	}
	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Error("Invalid configuration")
		closeLog()
		cli.Exit(1)
	}
	return closeLog
}

func openHistory(ctx context.Context, cfg config.Config) (history.Backend, error) {
	return history.Open(ctx, history.Config{
		Backend: cfg.HistoryBackend,
		Path:    cfg.HistoryPath,
		DSN:     cfg.HistoryDSN,
		LockTTL: cfg.LockTTL,
	})
}

func sources(cfg config.Config) []cycle.Source {
	opts := scraper.DefaultOptions()
	opts.CacheDir = cfg.FetchCacheDir
	opts.HTTPRetryMax = cfg.HTTPRetryMax

	altexOpts, flancoOpts := opts, opts
	if cfg.SourceAURL != "" {
		altexOpts.StartURLs = []string{cfg.SourceAURL}
	}
	if cfg.SourceBURL != "" {
		flancoOpts.StartURLs = []string{cfg.SourceBURL}
	}

	return []cycle.Source{
		{
			ID:         "altex",
			Extractor:  scraper.NewAltexExtractor(altexOpts),
			Normalizer: normalize.Normalizer{Family: product.AirPods, Availability: normalize.AltexAvailability},
		},
		{
			ID:         "flanco",
			Extractor:  scraper.NewFlancoExtractor(flancoOpts),
			Normalizer: normalize.Normalizer{Family: product.AirPods, Availability: normalize.FlancoAvailability},
		},
	}
}

func notifier(cfg config.Config) notify.Notifier {
	var channels notify.Multi
	if cfg.EmailEnabled() {
		channels = append(channels, notify.NewEmail(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailUser, cfg.EmailPass))
	}
	if cfg.TelegramEnabled() {
		tg, err := notify.NewTelegram(cfg.TelegramToken)
		if err != nil {
			logrus.WithError(err).Error("Telegram alerts disabled")
		} else {
			channels = append(channels, notify.Addressed{Notifier: tg, Recipient: cfg.TelegramChatID})
		}
	}
	if len(channels) == 0 {
		return notify.Log{}
	}
	return channels
}

func exit(msg string, err error) {
	logrus.WithError(err).Error(msg)
	cli.Exit(1)
}
