package scheduler

import (
	"context"
	"time"

	"happyshaa/pkg/logger"

	"github.com/robfig/cron/v3"
)

type Job interface{ Run(ctx context.Context) }

type FuncJob func(ctx context.Context)

func (f FuncJob) Run(ctx context.Context) { f(ctx) }

// Cron runs background jobs. Jobs receive a context that is cancelled
// when the cron is stopped, and a panicking job is recovered and logged.
type Cron struct {
	c      *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

func NewCron(loc *time.Location, log *logger.Logger) *Cron {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = logger.Nop()
	}
	cronLog := cron.PrintfLogger(log.Logrus())

	ctx, cancel := context.WithCancel(context.Background())
	return &Cron{
		c: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (cr *Cron) Start() { cr.c.Start() }

// Stop cancels running jobs and waits for them to return.
func (cr *Cron) Stop() {
	cr.cancel()
	<-cr.c.Stop().Done()
}

func (cr *Cron) Add(expr string, job Job) (cron.EntryID, error) {
	return cr.c.AddFunc(expr, func() { job.Run(cr.ctx) })
}

func (cr *Cron) AddFunc(expr string, fn func(ctx context.Context)) (cron.EntryID, error) {
	return cr.Add(expr, FuncJob(fn))
}

func (cr *Cron) Remove(id cron.EntryID) { cr.c.Remove(id) }

func (cr *Cron) Entries() []cron.Entry { return cr.c.Entries() }
