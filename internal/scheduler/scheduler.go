// Package scheduler runs the periodic loan jobs: the overdue sweep and
// upcoming payment reminders.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/segyhp/lending-engine/internal/config"
	"github.com/segyhp/lending-engine/internal/domain"
	"github.com/segyhp/lending-engine/pkg/logger"
)

// LoanJobs is what the scheduler needs from the service layer
type LoanJobs interface {
	MarkOverdue(ctx context.Context) (int, error)
	UpcomingReminders(ctx context.Context, days int) ([]domain.Reminder, error)
}

type Scheduler struct {
	cron    *cron.Cron
	jobs    LoanJobs
	cfg     config.SchedulerConfig
	timeout time.Duration
}

func New(jobs LoanJobs, cfg config.SchedulerConfig, loc *time.Location) *Scheduler {
	cl := cronLogger{log: logger.L().Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		jobs:    jobs,
		cfg:     cfg,
		timeout: 5 * time.Minute,
	}
}

// Register adds the jobs to the cron table
func (s *Scheduler) Register() error {
	if _, err := s.cron.AddFunc(s.cfg.OverdueSpec, func() { s.RunOverdueSweep(context.Background()) }); err != nil {
		return fmt.Errorf("scheduling overdue sweep: %w", err)
	}

	if _, err := s.cron.AddFunc(s.cfg.ReminderSpec, func() { s.SendReminders(context.Background()) }); err != nil {
		return fmt.Errorf("scheduling payment reminders: %w", err)
	}

	logger.Info("cron jobs scheduled",
		zap.String("overdue_spec", s.cfg.OverdueSpec),
		zap.String("reminder_spec", s.cfg.ReminderSpec),
	)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and returns a context that is done once running
// jobs have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

// RunOverdueSweep marks past-due installments of active loans as overdue
func (s *Scheduler) RunOverdueSweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(logger.WithTraceID(ctx, uuid.NewString()), s.timeout)
	defer cancel()

	start := time.Now()
	marked, err := s.jobs.MarkOverdue(ctx)
	if err != nil {
		logger.CtxError(ctx, "overdue sweep finished with errors", err, zap.Int("marked", marked))
		return
	}

	logger.CtxInfo(ctx, "overdue sweep finished",
		zap.Int("marked", marked),
		zap.Duration("duration", time.Since(start)),
	)
}

// SendReminders logs a reminder for every installment due within the
// configured horizon.
func (s *Scheduler) SendReminders(ctx context.Context) {
	ctx, cancel := context.WithTimeout(logger.WithTraceID(ctx, uuid.NewString()), s.timeout)
	defer cancel()

	reminders, err := s.jobs.UpcomingReminders(ctx, s.cfg.ReminderDays)
	if err != nil {
		logger.CtxError(ctx, "loading payment reminders failed", err)
		return
	}

	for _, r := range reminders {
		logger.CtxInfo(ctx, "payment reminder",
			zap.String("loan_id", r.LoanID),
			zap.String("borrower", r.BorrowerName),
			zap.String("contact", r.BorrowerContact),
			zap.Int("installment", r.Number),
			zap.Time("due_date", r.DueDate),
			zap.String("amount", r.Amount.String()),
		)
	}

	logger.CtxInfo(ctx, "payment reminders sent", zap.Int("count", len(reminders)))
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
