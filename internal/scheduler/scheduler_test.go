package scheduler_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locopon/locopon/internal/logger"
	"github.com/locopon/locopon/internal/scheduler"
)

func TestNew_InvalidSpec(t *testing.T) {
	t.Parallel()

	_, err := scheduler.New(
		scheduler.Specs{Scrape: "not a cron spec"},
		scheduler.Jobs{Scrape: func(context.Context) {}},
		logger.NewNoOp(),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scrape")
}

func TestNew_SkipsUnboundJobs(t *testing.T) {
	t.Parallel()

	// Only the scrape job is bound; the empty digest spec and the nil
	// cleanup job must not fail construction.
	s, err := scheduler.New(
		scheduler.Specs{Scrape: "0 */6 * * *", Cleanup: "30 3 * * *"},
		scheduler.Jobs{Scrape: func(context.Context) {}},
		logger.NewNoOp(),
	)
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestRun_ExecutesJobsAndStopsOnCancel(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32

	// @every descriptor keeps the test fast.
	s, err := scheduler.New(
		scheduler.Specs{Scrape: "@every 100ms"},
		scheduler.Jobs{Scrape: func(ctx context.Context) {
			if ctx.Err() == nil {
				runs.Add(1)
			}
		}},
		logger.NewNoOp(),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return runs.Load() >= 2
	}, 3*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}
