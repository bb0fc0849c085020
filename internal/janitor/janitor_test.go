package janitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pribylovaa/authcore/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// fakePurger считает вызовы и запоминает переданное время.
type fakePurger struct {
	mu    sync.Mutex
	calls int
	last  time.Time
	n     int64
	err   error
}

func (f *fakePurger) DeleteExpiredRevocations(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.last = now

	return f.n, f.err
}

func (f *fakePurger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

// Не параллельный: сравнивает значение глобального счётчика.
func TestPurgeOnce_PassesClockAndCountsPurged(t *testing.T) {
	p := &fakePurger{n: 3}
	j := New(p, time.Minute)

	fixed := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	j.now = func() time.Time { return fixed }

	before := testutil.ToFloat64(metrics.RevocationsPurged)

	n, err := j.PurgeOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
	require.Equal(t, fixed, p.last)
	require.Equal(t, before+3, testutil.ToFloat64(metrics.RevocationsPurged))
}

func TestPurgeOnce_Error(t *testing.T) {
	t.Parallel()

	boom := errors.New("db down")
	j := New(&fakePurger{err: boom}, time.Minute)

	_, err := j.PurgeOnce(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestStart_TicksUntilCanceled(t *testing.T) {
	t.Parallel()

	p := &fakePurger{}
	j := New(p, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := j.Start(ctx)

	require.Eventually(t, func() bool { return p.count() >= 2 }, time.Second, 5*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after cancel")
	}
}

func TestStart_KeepsRunningAfterErrors(t *testing.T) {
	t.Parallel()

	p := &fakePurger{err: errors.New("db down")}
	j := New(p, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	j.Start(ctx)

	require.Eventually(t, func() bool { return p.count() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestStart_NonPositivePeriodIsNoop(t *testing.T) {
	t.Parallel()

	p := &fakePurger{}
	done := New(p, 0).Start(context.Background())

	select {
	case <-done:
	default:
		t.Fatal("done must be closed immediately")
	}
	require.Zero(t, p.count())
}
