// Package reminder runs a periodic job that tells users how many memos are
// waiting for review.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
)

// DueCounter counts due memos per user. store.MemoStore satisfies it.
type DueCounter interface {
	CountDueByUser(ctx context.Context, now time.Time) (map[uuid.UUID]int, error)
}

// Notifier delivers a reminder to one user.
type Notifier interface {
	NotifyDue(ctx context.Context, userID uuid.UUID, count int) error
}

// LogNotifier writes reminders to the structured log. It is the default
// Notifier until a delivery channel exists.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. If logger is nil, slog.Default() is used.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With(slog.String("component", "log_notifier"))}
}

var _ Notifier = (*LogNotifier)(nil)

// NotifyDue implements Notifier.
func (n *LogNotifier) NotifyDue(ctx context.Context, userID uuid.UUID, count int) error {
	n.logger.InfoContext(ctx, "memos due for review",
		slog.String("user_id", userID.String()),
		slog.Int("due_count", count))
	return nil
}

// Scheduler owns the gocron scheduler for the reminder job.
type Scheduler struct {
	counter  DueCounter
	notifier Notifier
	timeout  time.Duration
	now      func() time.Time
	cron     *gocron.Scheduler
	cancel   context.CancelFunc
	logger   *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithRunTimeout bounds a single run. The default is 30 seconds.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.timeout = d }
}

// NewScheduler creates a reminder Scheduler. It panics if counter or notifier is nil.
func NewScheduler(counter DueCounter, notifier Notifier, logger *slog.Logger, opts ...Option) *Scheduler {
	if counter == nil {
		panic("counter cannot be nil")
	}
	if notifier == nil {
		panic("notifier cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Scheduler{
		counter:  counter,
		notifier: notifier,
		timeout:  30 * time.Second,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "reminder")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunOnce counts due memos and notifies every user with at least one. It
// returns the number of users notified. Notification failures do not stop
// the run; they are joined into the returned error.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	counts, err := s.counter.CountDueByUser(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to count due memos: %w", err)
	}

	var (
		notified int
		errs     []error
	)
	for userID, count := range counts {
		if count <= 0 {
			continue
		}
		if err := s.notifier.NotifyDue(ctx, userID, count); err != nil {
			s.logger.WarnContext(ctx, "reminder delivery failed",
				slog.String("user_id", userID.String()),
				slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
			continue
		}
		notified++
	}

	return notified, errors.Join(errs...)
}

// Start schedules RunOnce on the cron expression and starts the scheduler
// in the background. Runs never overlap. The job stops when ctx is done or
// Stop is called.
func (s *Scheduler) Start(ctx context.Context, cronExpr string) error {
	if s.cron != nil {
		return errors.New("reminder scheduler already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	cron := gocron.NewScheduler(time.UTC)
	cron.SingletonModeAll()

	if _, err := cron.Cron(cronExpr).Do(s.run, runCtx); err != nil {
		cancel()
		return fmt.Errorf("invalid reminder schedule %q: %w", cronExpr, err)
	}

	s.cron = cron
	s.cancel = cancel
	cron.StartAsync()

	s.logger.Info("reminder scheduler started", slog.String("cron", cronExpr))
	return nil
}

// Stop halts the scheduler and cancels an in-flight run.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	s.cancel()
	s.cron.Stop()
	s.cron = nil
	s.logger.Info("reminder scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	notified, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "reminder run failed",
			slog.String("error", err.Error()),
			slog.Int("notified", notified))
		return
	}
	s.logger.InfoContext(ctx, "reminder run completed",
		slog.Int("notified", notified),
		slog.Duration("duration", time.Since(start)))
}
