// Package worker runs the periodic housekeeping of the engine.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"github.com/NotCool09/myowobot/internal/service"
)

// Interval is how often each job runs.
const Interval = time.Minute

// Worker sweeps expired shop effects and reaps idle blackjack rounds.
type Worker struct {
	engine *service.Engine
	sched  gocron.Scheduler
}

// New schedules the jobs. They run once Start is called.
func New(engine *service.Engine) (*Worker, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(engine.Clock().Location()))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	w := &Worker{engine: engine, sched: sched}

	jobs := []struct {
		name string
		fn   func()
	}{
		{"sweep-effects", func() { w.SweepEffects(context.Background()) }},
		{"reap-blackjack", func() { w.ReapBlackjack(context.Background()) }},
	}
	for _, j := range jobs {
		_, err := sched.NewJob(
			gocron.DurationJob(Interval),
			gocron.NewTask(j.fn),
			gocron.WithName(j.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to schedule %s: %w", j.name, err)
		}
	}
	return w, nil
}

// Start starts the scheduler.
func (w *Worker) Start() {
	log.Info().Dur("interval", Interval).Msg("Starting worker")
	w.sched.Start()
}

// Stop waits for running jobs and stops the scheduler.
func (w *Worker) Stop() error {
	return w.sched.Shutdown()
}

// Jobs lists the scheduled job names.
func (w *Worker) Jobs() []string {
	jobs := w.sched.Jobs()
	names := make([]string, len(jobs))
	for i, j := range jobs {
		names[i] = j.Name()
	}
	return names
}

// SweepEffects evicts expired shop effects.
func (w *Worker) SweepEffects(ctx context.Context) int {
	n := w.engine.Effects().Sweep(ctx)
	if n > 0 {
		log.Debug().Int("count", n).Msg("Swept expired effects")
	}
	return n
}

// ReapBlackjack closes rounds with no move for service.BlackjackIdle.
// Their stakes stay forfeited.
func (w *Worker) ReapBlackjack(ctx context.Context) []int64 {
	ids := w.engine.ReapBlackjack(ctx)
	for _, id := range ids {
		log.Info().Int64("user_id", id).Msg("Reaped idle blackjack round")
	}
	return ids
}
