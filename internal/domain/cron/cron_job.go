package cron

import (
	"context"
	"sync"
	"time"

	"github.com/checkin-lab/backend/pkg/xcontext"
)

// CronJob is a recurring background task. After each Do, the scheduler asks
// Next for the following run. RunNow jobs get an immediate first run on Start.
type CronJob interface {
	Do(context.Context)
	RunNow() bool
	Next() time.Time
}

// Scheduler drives registered jobs until Stop is called. Start blocks for the
// lifetime of the scheduler, so callers usually run it as the main loop of the
// cron process.
type Scheduler struct {
	mutex   sync.Mutex
	running sync.WaitGroup
	timers  map[CronJob]*time.Timer
}

func NewScheduler() *Scheduler {
	return &Scheduler{timers: make(map[CronJob]*time.Timer)}
}

// Register must be called before Start.
func (s *Scheduler) Register(job CronJob) {
	s.timers[job] = nil
}

func (s *Scheduler) Start(ctx context.Context) {
	xcontext.Logger(ctx).Infof("Cron scheduler started with %d jobs", len(s.timers))

	for job := range s.timers {
		s.running.Add(1)

		if job.RunNow() {
			go s.run(ctx, job)
		} else {
			s.arm(ctx, job)
		}
	}

	s.running.Wait()
	xcontext.Logger(ctx).Infof("Cron scheduler stopped")
}

// Stop cancels pending runs and releases Start. A job currently inside Do
// finishes its run.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, timer := range s.timers {
		// A nil timer means the job is inside a run right now; dropping it
		// from the map below keeps it from rearming when Do returns.
		if timer != nil {
			timer.Stop()
		}

		s.running.Done()
	}

	// Dropped jobs are never rearmed by run.
	s.timers = make(map[CronJob]*time.Timer)
}

func (s *Scheduler) run(ctx context.Context, job CronJob) {
	started := time.Now()
	job.Do(ctx)
	xcontext.Logger(ctx).Infof("%T finished in %s", job, time.Since(started))

	s.arm(ctx, job)
}

func (s *Scheduler) arm(ctx context.Context, job CronJob) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.timers[job]; ok {
		s.timers[job] = time.AfterFunc(time.Until(job.Next()), func() { s.run(ctx, job) })
	}
}
