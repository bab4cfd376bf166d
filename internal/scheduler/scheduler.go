// Package scheduler runs periodic jobs until their context is cancelled.
package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Job runs Run every Every. A zero or negative Every disables the job.
type Job struct {
	Name  string
	Every time.Duration
	Run   func(ctx context.Context)
}

// Run starts every job on its own ticker and blocks until ctx is done.
// Ticks that arrive while a job is still running are dropped.
func Run(ctx context.Context, log logrus.FieldLogger, jobs ...Job) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, job := range jobs {
		job := job
		if job.Every <= 0 {
			log.WithField("job", job.Name).Info("Job disabled")
			continue
		}
		g.Go(func() error {
			loop(ctx, log.WithField("job", job.Name), job)
			return nil
		})
	}
	return g.Wait()
}

func loop(ctx context.Context, log logrus.FieldLogger, job Job) {
	ticker := time.NewTicker(job.Every)
	defer ticker.Stop()

	log.WithField("every", job.Every).Debug("Job scheduled")
	for {
		select {
		case <-ctx.Done():
			log.Debug("Job stopped")
			return
		case <-ticker.C:
			start := time.Now()
			job.Run(ctx)
			log.WithField("took", time.Since(start)).Debug("Job ran")
		}
	}
}
