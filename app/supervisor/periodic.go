package supervisor

import (
	"context"
	"time"

	"yatube/app/logging"
)

// Task is one run of a periodic job.
type Task func(ctx context.Context) error

// Periodic runs a task on a fixed interval. A failing run is logged and the
// schedule continues; only context cancellation stops the service.
type Periodic struct {
	name     string
	interval time.Duration
	task     Task
}

// NewPeriodic schedules task every interval.
func NewPeriodic(name string, interval time.Duration, task Task) *Periodic {
	return &Periodic{name: name, interval: interval, task: task}
}

// Serve implements suture.Service.
func (p *Periodic) Serve(ctx context.Context) error {
	log := logging.WithComponent(p.name)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.task(ctx); err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Msg("periodic task failed")
			}
		}
	}
}

func (p *Periodic) String() string {
	return p.name
}
