package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/danbauman77/reginfo-monitor/internal/config"
	"github.com/danbauman77/reginfo-monitor/internal/fetcher"
	"github.com/danbauman77/reginfo-monitor/internal/logger"
	"github.com/danbauman77/reginfo-monitor/internal/monitor"
	"github.com/danbauman77/reginfo-monitor/internal/notify"
	"github.com/danbauman77/reginfo-monitor/internal/store"
	"github.com/danbauman77/reginfo-monitor/internal/version"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		info := version.GetInfo()
		fmt.Println(info.String())
		os.Exit(0)
	}

	// Load configuration; any problem here is fatal
	cfg, err := config.Load(*configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(&cfg.Log)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	// Wire collaborators
	st := store.New(cfg.DataDirectory, cfg.KeepFiles, log)
	f := fetcher.NewClient(cfg.Fetch, log)

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Email.Enabled && cfg.Email.Username != "" && cfg.Email.Password != "" {
		n, err := notify.NewEmailNotifier(&cfg.Email, cfg.Fetch.BaseURL, log)
		if err != nil {
			log.Fatal("Failed to initialize email notifier", zap.Error(err))
		}
		notifier = n
	} else {
		log.Info("Email not configured, notifications disabled")
	}

	m := monitor.New(cfg, st, f, notifier, log)

	// One run per invocation; scheduling belongs to cron. Individually
	// failed RINs are in the summary and do not affect the exit code.
	m.Run(context.Background())
}
