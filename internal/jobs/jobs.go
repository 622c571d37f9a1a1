// Package jobs runs the periodic background work: the monthly vacation
// accrual and the optional weekly shift generation.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/jobflow/jobflow-backend/internal/accrual"
	"github.com/jobflow/jobflow-backend/internal/config"
	"github.com/jobflow/jobflow-backend/internal/period"
	"github.com/jobflow/jobflow-backend/internal/schedule"
)

const jobTimeout = 10 * time.Minute

type AccrualRunner interface {
	RunAll(ctx context.Context, per period.Period) (accrual.RunResult, error)
}

type ShiftGenerator interface {
	Generate(ctx context.Context, req schedule.GenerateRequest) (schedule.GenerateResult, error)
}

type Scheduler struct {
	cron     *cron.Cron
	accruals AccrualRunner
	shifts   ShiftGenerator
	loc      *time.Location
	log      *zap.SugaredLogger
	now      func() time.Time
}

// NewScheduler registers the jobs whose cron expression is set. An empty
// expression disables the job.
func NewScheduler(accrualCfg config.AccrualConfig, scheduleCfg config.ScheduleConfig, accruals AccrualRunner, shifts ShiftGenerator, log *zap.SugaredLogger) (*Scheduler, error) {
	loc := time.UTC
	if accrualCfg.Timezone != "" {
		l, err := time.LoadLocation(accrualCfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", accrualCfg.Timezone, err)
		}
		loc = l
	}

	log = log.Named("jobs")
	s := &Scheduler{
		accruals: accruals,
		shifts:   shifts,
		loc:      loc,
		log:      log,
		now:      time.Now,
	}
	clog := cronLogger{log: log}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)

	if accrualCfg.Cron != "" {
		if _, err := s.cron.AddFunc(accrualCfg.Cron, func() { s.RunAccrual(context.Background()) }); err != nil {
			return nil, fmt.Errorf("accrual cron %q: %w", accrualCfg.Cron, err)
		}
	}
	if scheduleCfg.Cron != "" {
		if _, err := s.cron.AddFunc(scheduleCfg.Cron, func() { s.GenerateNextWeek(context.Background()) }); err != nil {
			return nil, fmt.Errorf("schedule cron %q: %w", scheduleCfg.Cron, err)
		}
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Infow("scheduler started", "jobs", len(s.cron.Entries()), "timezone", s.loc.String())
}

// Stop prevents new runs and waits for running jobs until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Infow("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// RunAccrual accrues the previous calendar month for every active employee.
func (s *Scheduler) RunAccrual(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	per := period.PreviousMonth(s.now().In(s.loc))
	res, err := s.accruals.RunAll(ctx, per)
	if err != nil {
		s.log.Errorw("accrual run failed", "period", per.String(), "error", err)
		return
	}
	s.log.Infow("accrual run finished", "period", res.Period, "processed", res.Processed, "failed", res.Failed)
}

// GenerateNextWeek plans the coming Monday to Sunday from work patterns.
func (s *Scheduler) GenerateNextWeek(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	per := NextWeek(s.now().In(s.loc))
	res, err := s.shifts.Generate(ctx, schedule.GenerateRequest{
		From: per.From.Format(period.DateLayout),
		To:   per.To.Format(period.DateLayout),
	})
	if err != nil {
		s.log.Errorw("shift generation failed", "period", per.String(), "error", err)
		return
	}
	s.log.Infow("shift generation finished", "period", res.Period, "created", len(res.Created))
}

// NextWeek returns the Monday to Sunday week after the one containing t.
func NextWeek(t time.Time) period.Period {
	day := period.Day(t)
	offset := (int(day.Weekday()) + 6) % 7
	monday := day.AddDate(0, 0, 7-offset)
	return period.Period{From: monday, To: monday.AddDate(0, 0, 6)}
}

// cronLogger adapts zap to cron's logger.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
