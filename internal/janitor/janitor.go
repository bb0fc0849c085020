// janitor периодически удаляет из хранилища отзывов записи, срок которых истёк.
package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pribylovaa/authcore/internal/metrics"
	"github.com/pribylovaa/authcore/internal/pkg/log"
)

// Purger удаляет записи об отзыве с ExpiresAt не позже now.
type Purger interface {
	DeleteExpiredRevocations(ctx context.Context, now time.Time) (int64, error)
}

// Janitor — фоновая очистка просроченных отзывов.
type Janitor struct {
	purger Purger
	period time.Duration
	now    func() time.Time
}

// New создаёт Janitor с периодом period.
func New(purger Purger, period time.Duration) *Janitor {
	return &Janitor{
		purger: purger,
		period: period,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// PurgeOnce выполняет один проход очистки.
func (j *Janitor) PurgeOnce(ctx context.Context) (int64, error) {
	const op = "janitor.PurgeOnce"

	n, err := j.purger.DeleteExpiredRevocations(ctx, j.now())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	metrics.RevocationsPurged.Add(float64(n))

	return n, nil
}

// Start запускает очистку в отдельной горутине до отмены ctx.
// Возвращаемый канал закрывается после остановки горутины.
// При period <= 0 очистка не запускается.
func (j *Janitor) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})

	if j.period <= 0 {
		close(done)
		return done
	}

	lg := log.From(ctx)

	go func() {
		defer close(done)

		t := time.NewTicker(j.period)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				n, err := j.PurgeOnce(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					lg.Error("revocation_janitor_failed", slog.String("err", err.Error()))
					continue
				}
				if n > 0 {
					lg.Debug("revocations_purged", slog.Int64("count", n))
				}
			}
		}
	}()

	return done
}
