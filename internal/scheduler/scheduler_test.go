package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestSchedulerRunsJob(t *testing.T) {
	s := New(quiet())
	var runs atomic.Int32
	require.NoError(t, s.Add("sweep", "@every 1s", func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("logged, not fatal")
	}))
	assert.True(t, s.IsRunning())

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	s := New(quiet())
	err := s.Add("broken", "not a schedule", func(context.Context) error { return nil })
	assert.Error(t, err)
	assert.False(t, s.IsRunning())
	s.Start()
	s.Stop()
}
