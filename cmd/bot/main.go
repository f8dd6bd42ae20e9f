package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"RsiSentinel/internal/calculator"
	"RsiSentinel/internal/collector"
	"RsiSentinel/internal/config"
	"RsiSentinel/internal/metrics"
	"RsiSentinel/internal/notifier"
	"RsiSentinel/internal/scheduler"

	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.Info("RsiSentinel starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}
	configureLogger(log, cfg)

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := metrics.NewMetrics()
	if cfg.Metrics.ListenAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.ListenAddr, m, log); err != nil {
				log.WithError(err).Error("metrics server stopped")
			}
		}()
	}

	fetchCfg := cfg.FetchConfig()
	fetcher := collector.NewBybitFetcher(fetchCfg, cfg.Proxy, log, m)
	log.WithFields(logrus.Fields{
		"source":   fetcher.Name(),
		"symbol":   fetchCfg.Symbol,
		"interval": fetchCfg.Interval,
	}).Info("data source configured")

	// Init chat session and notifier
	var (
		session notifier.Session
		n       notifier.Notifier
		tn      *notifier.TelegramNotifier
	)
	switch cfg.Chat.Provider {
	case config.ProviderTelegram:
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		session, n = tn, tn
	case config.ProviderLog:
		session, n = notifier.NewLocalSession(), notifier.NewLogNotifier(log)
	default:
		session = notifier.NewGatewaySession(cfg.Discord.Token, log)
		n = notifier.NewDiscordNotifier(cfg.Discord.Token, cfg.Discord.ChannelID, cfg.Proxy)
	}
	log.WithField("notifier", n.Name()).Info("chat provider configured")

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, fetcher, calculator.NewRSICalculator(), n, m, log)
	sched.Symbol = fetchCfg.Symbol
	sched.Interval = fetchCfg.Interval
	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		log.Fatalf("register cron task: %v", err)
	}
	if tn != nil {
		tn.Commands = sched.HandleCommand
	}

	sessionErr := make(chan error, 1)
	go func() { sessionErr <- session.Run(ctx) }()

	select {
	case <-session.Ready():
	case err := <-sessionErr:
		if err != nil {
			log.Fatalf("chat session: %v", err)
		}
		return
	case <-ctx.Done():
		log.Info("shutdown before chat session was ready")
		return
	}

	if *cfg.Schedule.RunOnStart {
		sched.RunCheck(ctx)
	}
	sched.Start()
	log.Info("RsiSentinel is running. Press Ctrl+C to stop.")

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, stopping...")
	case err := <-sessionErr:
		if err != nil {
			log.WithError(err).Error("chat session ended")
		}
	}
	cancel()

	select {
	case <-sched.Stop().Done():
	case <-time.After(15 * time.Second):
		log.Warn("running check did not finish in time")
	}
	log.Info("RsiSentinel stopped")
}

func configureLogger(log *logrus.Logger, cfg *config.Config) {
	if cfg.Log.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.WithError(err).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
}
