package worker

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type fakeExpiryService struct {
	sweeps   int32
	cleanups int32
	block    chan struct{}
}

func (f *fakeExpiryService) ExpirePendingReservations(ctx context.Context) (int, error) {
	atomic.AddInt32(&f.sweeps, 1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
		}
	}
	return 1, nil
}

func (f *fakeExpiryService) CleanupOldExpiredReservations(ctx context.Context) (int64, error) {
	atomic.AddInt32(&f.cleanups, 1)
	return 0, nil
}

func TestSweeperRunsOnInterval(t *testing.T) {
	svc := &fakeExpiryService{}
	logger := zerolog.New(io.Discard)
	s := NewSweeper(svc, 20*time.Millisecond, 4, &logger)

	s.Start(context.Background())
	time.Sleep(90 * time.Millisecond)
	s.Stop()

	// One immediate sweep plus at least two ticks.
	assert.GreaterOrEqual(t, atomic.LoadInt32(&svc.sweeps), int32(3))
}

func TestSweeperSkipsOverlappingTick(t *testing.T) {
	svc := &fakeExpiryService{block: make(chan struct{})}
	logger := zerolog.New(io.Discard)
	s := NewSweeper(svc, 10*time.Millisecond, 4, &logger)

	s.Start(context.Background())
	time.Sleep(80 * time.Millisecond)

	// The first sweep is still blocked, every tick since was skipped.
	assert.Equal(t, int32(1), atomic.LoadInt32(&svc.sweeps))

	close(svc.block)
	s.Stop()
}

func TestSweeperStartIsIdempotent(t *testing.T) {
	svc := &fakeExpiryService{}
	logger := zerolog.New(io.Discard)
	s := NewSweeper(svc, time.Hour, 4, &logger)

	ctx := context.Background()
	s.Start(ctx)
	s.Start(ctx)
	s.Stop()
	// Stopping twice must not panic or hang.
	s.Stop()

	assert.Equal(t, int32(1), atomic.LoadInt32(&svc.sweeps))
}

func TestTimeUntilNextHour(t *testing.T) {
	d := timeUntilNextHour(4)
	assert.Greater(t, d, time.Duration(0))
	assert.LessOrEqual(t, d, 24*time.Hour)
}
