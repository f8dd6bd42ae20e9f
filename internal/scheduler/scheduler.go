package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"RsiSentinel/internal/calculator"
	"RsiSentinel/internal/collector"
	"RsiSentinel/internal/config"
	"RsiSentinel/internal/metrics"
	"RsiSentinel/internal/model"
	"RsiSentinel/internal/notifier"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler owns the RSI check cycle and the cron driver that triggers it.
type Scheduler struct {
	Cron      *cron.Cron
	Fetcher   collector.Fetcher
	Indicator calculator.Indicator
	Notifier  notifier.Notifier
	Metrics   *metrics.Metrics
	Log       logrus.FieldLogger
	Ctx       context.Context

	Symbol   string
	Interval model.Interval

	running atomic.Bool
}

// NewScheduler creates a new Scheduler. ctx bounds every check it runs.
func NewScheduler(ctx context.Context, fetcher collector.Fetcher, ind calculator.Indicator, n notifier.Notifier, m *metrics.Metrics, log logrus.FieldLogger) *Scheduler {
	cronLog := cron.PrintfLogger(log)
	return &Scheduler{
		Cron: cron.New(
			cron.WithParser(config.CronParser),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog)),
		),
		Fetcher:   fetcher,
		Indicator: ind,
		Notifier:  n,
		Metrics:   m,
		Log:       log,
		Ctx:       ctx,
	}
}

// Register adds the periodic check on the given cron spec.
func (s *Scheduler) Register(spec string) error {
	sched, err := config.ParseSchedule(spec)
	if err != nil {
		return fmt.Errorf("register rsi check: %w", err)
	}
	s.Cron.Schedule(sched, cron.FuncJob(s.checkTask))
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.Info("scheduler started")
}

// Stop stops the cron scheduler. The returned context is done once a running
// check has finished.
func (s *Scheduler) Stop() context.Context {
	ctx := s.Cron.Stop()
	s.Log.Info("scheduler stopped")
	return ctx
}

func (s *Scheduler) checkTask() {
	s.RunCheck(s.Ctx)
}

// HandleCommand processes a chat command and returns a reply.
// Group chats address bots as /rsi@botname.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	if i := strings.IndexByte(command, '@'); i > 0 {
		command = command[:i]
	}
	switch command {
	case "/rsi", "rsi":
		r := s.RunCheck(ctx)
		return notifier.FormatCheckReport(&r)
	default:
		return notifier.HelpText
	}
}
