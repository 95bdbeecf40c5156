package jobs

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePurger struct {
	n        int64
	err      error
	calls    int
	deadline bool
}

func (f *fakePurger) PurgeExpired(ctx context.Context) (int64, error) {
	f.calls++
	_, f.deadline = ctx.Deadline()
	return f.n, f.err
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestPurgeIdempotency_LogsOutcome(t *testing.T) {
	buf := captureLog(t)

	p := &fakePurger{n: 3}
	PurgeIdempotency(p, 0)()
	assert.Equal(t, 1, p.calls)
	assert.True(t, p.deadline, "run must be bounded by a timeout")
	assert.Contains(t, buf.String(), `"deleted":3`)

	buf.Reset()
	PurgeIdempotency(&fakePurger{err: errors.New("db down")}, time.Second)()
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), "db down")
}

func TestNewScheduler(t *testing.T) {
	c, err := NewScheduler("@every 1h", &fakePurger{}, time.Second)
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)

	c, err = NewScheduler("", &fakePurger{}, time.Second)
	require.NoError(t, err)
	assert.Empty(t, c.Entries())

	_, err = NewScheduler("every now and then", &fakePurger{}, time.Second)
	assert.Error(t, err)
}

func TestNewScheduler_Runs(t *testing.T) {
	captureLog(t)
	p := &purgeSignal{done: make(chan struct{}, 1)}
	c, err := NewScheduler("@every 1s", p, time.Second)
	require.NoError(t, err)
	c.Start()
	defer c.Stop()

	select {
	case <-p.done:
	case <-time.After(3 * time.Second):
		t.Fatal("purge did not run")
	}
}

type purgeSignal struct{ done chan struct{} }

func (p *purgeSignal) PurgeExpired(context.Context) (int64, error) {
	select {
	case p.done <- struct{}{}:
	default:
	}
	return 0, nil
}
