// Package jobs schedules background maintenance work.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds a single purge run.
const DefaultTimeout = 30 * time.Second

// Purger deletes expired idempotency records and reports how many went.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// NewScheduler returns a stopped cron scheduler that runs the idempotency
// purge on spec (standard 5-field syntax or descriptors such as "@every 1h").
// Overlapping runs are skipped and panics are recovered.
//
// An empty spec disables the job: the scheduler is returned with no entries.
func NewScheduler(spec string, p Purger, timeout time.Duration) (*cron.Cron, error) {
	lg := cronLogger{l: log.Logger.With().Str("component", "jobs").Logger()}
	c := cron.New(
		cron.WithLogger(lg),
		cron.WithChain(cron.Recover(lg), cron.SkipIfStillRunning(lg)),
	)
	if spec == "" {
		return c, nil
	}
	if _, err := c.AddFunc(spec, PurgeIdempotency(p, timeout)); err != nil {
		return nil, fmt.Errorf("jobs: idempotency purge schedule %q: %w", spec, err)
	}
	return c, nil
}

// PurgeIdempotency returns one purge run as a cron job.
func PurgeIdempotency(p Purger, timeout time.Duration) func() {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		start := time.Now()
		n, err := p.PurgeExpired(ctx)
		if err != nil {
			log.Error().Err(err).Str("job", "idempotency_purge").Msg("purge failed")
			return
		}
		log.Info().
			Str("job", "idempotency_purge").
			Int64("deleted", n).
			Dur("took", time.Since(start)).
			Msg("purge finished")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	l zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
