package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"MineralTracker/internal/batch"
	"MineralTracker/internal/notifier"
	"MineralTracker/internal/publisher"
	"MineralTracker/internal/report"

	"github.com/robfig/cron/v3"
)

// Runner renders the current chart set.
type Runner interface {
	RunCurrent(ctx context.Context) (*batch.Summary, error)
}

// Scheduler regenerates the current chart set on a cron schedule.
type Scheduler struct {
	Cron        *cron.Cron
	Runner      Runner
	Notifier    notifier.Notifier // optional
	URLLog      *publisher.URLLog // optional
	RecentCount int
	Ctx         context.Context

	running sync.Mutex
}

// NewScheduler creates a new Scheduler. Overlapping cron firings are skipped.
func NewScheduler(ctx context.Context, runner Runner, n notifier.Notifier, urlLog *publisher.URLLog, recent int) *Scheduler {
	logger := cron.PrintfLogger(log.Default())
	return &Scheduler{
		Cron:        cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(logger))),
		Runner:      runner,
		Notifier:    n,
		URLLog:      urlLog,
		RecentCount: recent,
		Ctx:         ctx,
	}
}

// Register adds the current-set job on a six-field cron expression.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, func() { s.runCurrent(s.Ctx) }); err != nil {
		return fmt.Errorf("register current-set task %q: %w", spec, err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes the current-set job immediately.
func (s *Scheduler) RunNow() *batch.Summary {
	return s.runCurrent(s.Ctx)
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	switch command {
	case "/run":
		if s.runCurrent(ctx) == nil {
			return "A chart run is already in progress."
		}
		return ""
	case "/recent":
		return s.recent()
	default:
		return "Available commands:\n• /run - regenerate current charts\n• /recent - last uploaded chart URLs"
	}
}

// runCurrent returns nil when another run holds the lock.
func (s *Scheduler) runCurrent(ctx context.Context) *batch.Summary {
	if !s.running.TryLock() {
		log.Println("[WARN] current-set run already in progress, skipping")
		return nil
	}
	defer s.running.Unlock()

	log.Println("[INFO] running current-set task")
	start := time.Now()
	sum, err := s.Runner.RunCurrent(ctx)
	if err != nil {
		log.Printf("[ERROR] current-set run: %v", err)
		s.trySend(fmt.Sprintf("❌ Chart run failed: %v", err))
	}
	if sum == nil {
		sum = &batch.Summary{}
	}
	s.trySend(report.FormatSummary("Current charts", sum, time.Since(start)))
	return sum
}

func (s *Scheduler) recent() string {
	if s.URLLog == nil {
		return report.FormatRecent(nil)
	}
	lines, err := s.URLLog.Recent(s.RecentCount)
	if err != nil {
		return fmt.Sprintf("❌ read URL log: %v", err)
	}
	return report.FormatRecent(lines)
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := notifier.SendWithRetry(s.Ctx, s.Notifier, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
