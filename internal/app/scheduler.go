package app

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/skater-value/internal/platform/logging"
	"github.com/robfig/cron/v3"
)

// Scheduler runs a job once immediately and then on a cron schedule until its context ends.
// A tick that arrives while the previous run is still going is skipped.
type Scheduler struct {
	cron    *cron.Cron
	entryID cron.EntryID
	spec    string
	logger  *logging.Logger
	// ctx is handed to every run; set before the cron goroutine starts.
	ctx context.Context
}

func NewScheduler(spec string, loc *time.Location, job func(context.Context), logger *logging.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if loc == nil {
		loc = time.Local
	}
	logger = logger.Named("scheduler")

	adapter := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(adapter),
		cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
	)

	s := &Scheduler{cron: c, spec: spec, logger: logger, ctx: context.Background()}
	entryID, err := c.AddFunc(spec, func() { job(s.ctx) })
	if err != nil {
		return nil, fmt.Errorf("parse PIPELINE_SCHEDULE %q: %w", spec, err)
	}
	s.entryID = entryID
	return s, nil
}

// Run blocks until ctx is cancelled and any in-flight run has returned.
func (s *Scheduler) Run(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	s.logger.Info("schedule started", "spec", s.spec, "next_run", s.cron.Entry(s.entryID).Next)

	s.cron.Entry(s.entryID).WrappedJob.Run()

	<-ctx.Done()
	s.logger.Info("schedule stopping", "reason", ctx.Err())
	<-s.cron.Stop().Done()
}

type cronLogger struct {
	logger *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
