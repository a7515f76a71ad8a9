package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MineralTracker/internal/batch"
	"MineralTracker/internal/chart"
	"MineralTracker/internal/collector"
	"MineralTracker/internal/config"
	"MineralTracker/internal/notifier"
	"MineralTracker/internal/publisher"
	"MineralTracker/internal/recorder"
	"MineralTracker/internal/report"
	"MineralTracker/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] MineralTracker starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var urlLog *publisher.URLLog
	if cfg.Upload.URLLog != "" {
		urlLog = publisher.NewURLLog(cfg.Upload.URLLog)
	}

	if cfg.Mode == "recent" {
		lines, err := urlLog.Recent(cfg.Upload.RecentCount)
		if err != nil {
			log.Fatalf("[FATAL] read url log: %v", err)
		}
		fmt.Print(report.FormatRecent(lines))
		return
	}

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "alpaca":
		fetcher = collector.NewAlpacaFetcher(cfg.DataSource.AlpacaKey, cfg.DataSource.AlpacaSecret,
			cfg.DataSource.AlpacaURL, cfg.DataSource.AlpacaFeed)
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())
	col := collector.NewCollector(fetcher, cfg.Symbols)

	// Init renderers
	modes, _ := cfg.RenderModes()
	var renderers []chart.Renderer
	for _, m := range modes {
		r, err := chart.New(m, cfg.Symbols, cfg.ChartOptions())
		if err != nil {
			log.Fatalf("[FATAL] init %s renderer: %v", m, err)
		}
		renderers = append(renderers, r)
	}

	// Init uploader
	var uploader publisher.Uploader
	if cfg.Upload.Enabled {
		gcs, err := publisher.NewGCSUploader(ctx, cfg.Upload.Bucket, cfg.Upload.Prefix, cfg.Upload.CredentialsFile)
		if err != nil {
			log.Fatalf("[FATAL] init uploader: %v", err)
		}
		defer gcs.Close()
		uploader = gcs
		log.Printf("[INFO] uploading to gs://%s/%s", cfg.Upload.Bucket, cfg.Upload.Prefix)
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init notifier
	var tn *notifier.TelegramNotifier
	var n notifier.Notifier
	if cfg.NotifyEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		n = tn
	}

	periods, _ := cfg.ParsedPeriods()
	start, end, _ := cfg.Window()
	driver, err := batch.NewDriver(batch.Options{
		Periods:       periods,
		Start:         start,
		End:           end,
		Workers:       cfg.Batch.Workers,
		SaveJSON:      *cfg.Output.SaveJSON,
		DataDir:       cfg.Output.DataDir,
		UploadRetries: cfg.Upload.Retries,
	}, col, renderers, uploader, urlLog, rec)
	if err != nil {
		log.Fatalf("[FATAL] init driver: %v", err)
	}

	switch cfg.Mode {
	case "backfill":
		begin := time.Now()
		sum, err := driver.Run(ctx)
		finish(ctx, n, "Back-fill", sum, time.Since(begin), err)
	case "current":
		begin := time.Now()
		sum, err := driver.RunCurrent(ctx)
		finish(ctx, n, "Current charts", sum, time.Since(begin), err)
	case "schedule":
		sched := scheduler.NewScheduler(ctx, driver, n, urlLog, cfg.Upload.RecentCount)
		if err := sched.Register(cfg.Schedule.Cron); err != nil {
			log.Fatalf("[FATAL] register cron task: %v", err)
		}
		sched.Start()
		defer sched.Stop()

		if tn != nil && cfg.Telegram.Commands {
			go tn.StartPolling(ctx, sched.HandleCommand)
			log.Println("[INFO] Telegram polling started")
		}
		if cfg.Schedule.RunOnStart {
			log.Println("[INFO] run_on_start enabled, rendering current charts now")
			go sched.RunNow()
		}

		log.Printf("[INFO] MineralTracker is running on %q. Press Ctrl+C to stop.", cfg.Schedule.Cron)
		<-ctx.Done()
		log.Println("[INFO] shutdown signal received, stopping...")
	}
	log.Println("[INFO] MineralTracker stopped")
}

func finish(ctx context.Context, n notifier.Notifier, title string, sum *batch.Summary, elapsed time.Duration, err error) {
	if sum != nil {
		for _, u := range sum.Units {
			log.Printf("[INFO] %s", report.FormatUnit(u))
		}
		log.Printf("[INFO] %s: %d units, %d OK", title, len(sum.Units), sum.Count(batch.StatusOK))
		if n != nil {
			if err := notifier.SendWithRetry(ctx, n, report.FormatSummary(title, sum, elapsed), 3); err != nil {
				log.Printf("[ERROR] send notification: %v", err)
			}
		}
	}
	switch {
	case err == nil:
	case batch.IsCancelled(err):
		log.Printf("[INFO] %s interrupted: %v", title, err)
	case batch.IsFatal(err):
		log.Fatalf("[FATAL] %s aborted: %v", title, err)
	default:
		log.Printf("[ERROR] %s: %v", title, err)
	}
}
