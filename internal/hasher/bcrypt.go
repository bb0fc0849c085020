// hasher реализует одностороннее хэширование паролей на bcrypt.
//
// Основные аспекты:
//   - стоимость (work factor) задаётся конфигурацией, а не константой;
//   - bcrypt выполняется в ограниченном пуле: число одновременных вычислений
//     не превышает Workers, поэтому всплеск логинов не выедает все CPU;
//   - ожидание слота и само вычисление прерываются отменой ctx;
//   - пароли длиннее 72 байт предварительно сворачиваются SHA-256, так что форма
//     входа никогда не приводит к ошибке хэширования.
package hasher

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/pribylovaa/authcore/internal/autherr"
	"github.com/pribylovaa/authcore/internal/metrics"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// maxBcryptInput — предел длины входа bcrypt в байтах.
const maxBcryptInput = 72

// Config — параметры хэширования.
type Config struct {
	// Cost — bcrypt work factor, [bcrypt.MinCost, bcrypt.MaxCost].
	Cost int
	// Workers — размер пула; <= 0 означает GOMAXPROCS.
	Workers int
}

// Bcrypt — хэшер паролей. Безопасен для конкурентного использования.
type Bcrypt struct {
	cost int
	sem  *semaphore.Weighted
}

// New создаёт хэшер с проверкой параметров.
func New(cfg Config) (*Bcrypt, error) {
	const op = "hasher.New"

	if cfg.Cost < bcrypt.MinCost || cfg.Cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%s: cost %d out of range [%d, %d]", op, cfg.Cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	return &Bcrypt{
		cost: cfg.Cost,
		sem:  semaphore.NewWeighted(int64(workers)),
	}, nil
}

// Cost возвращает текущий work factor.
func (b *Bcrypt) Cost() int { return b.cost }

// Hash хэширует пароль. Каждый вызов использует новую соль.
func (b *Bcrypt) Hash(ctx context.Context, password string) (string, error) {
	const op = "hasher.Hash"

	var (
		hash []byte
		err  error
	)

	if runErr := b.run(ctx, "hash", func() {
		hash, err = bcrypt.GenerateFromPassword(prepare(password), b.cost)
	}); runErr != nil {
		return "", fmt.Errorf("%s: %w", op, runErr)
	}

	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, autherr.ErrHashingFailure, err)
	}

	return string(hash), nil
}

// Verify сравнивает пароль с хэшем за постоянное время.
// Несовпадение — (false, nil); повреждённый хэш — ErrHashingFailure.
func (b *Bcrypt) Verify(ctx context.Context, password, hash string) (bool, error) {
	const op = "hasher.Verify"

	var err error
	if runErr := b.run(ctx, "verify", func() {
		err = bcrypt.CompareHashAndPassword([]byte(hash), prepare(password))
	}); runErr != nil {
		return false, fmt.Errorf("%s: %w", op, runErr)
	}

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%s: %w: %w", op, autherr.ErrHashingFailure, err)
	}
}

// NeedsRehash сообщает, что хэш создан с иной стоимостью, чем текущая.
func (b *Bcrypt) NeedsRehash(hash string) (bool, error) {
	const op = "hasher.NeedsRehash"

	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return false, fmt.Errorf("%s: %w: %w", op, autherr.ErrHashingFailure, err)
	}

	return cost != b.cost, nil
}

// run выполняет fn в отдельной горутине, заняв слот пула.
// При отмене ctx возвращает ctx.Err() не дожидаясь fn; слот освобождается
// по завершении fn.
func (b *Bcrypt) run(ctx context.Context, op string, fn func()) error {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		defer b.sem.Release(1)
		defer metrics.HashPoolInFlight.Dec()

		metrics.HashPoolInFlight.Inc()
		started := time.Now()
		fn()
		metrics.HashDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// prepare сворачивает слишком длинный пароль в фиксированные 44 байта.
func prepare(password string) []byte {
	if len(password) <= maxBcryptInput {
		return []byte(password)
	}

	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
