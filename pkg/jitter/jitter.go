// Package jitter добавляет случайность в интервалы повторов,
// чтобы consumer'ы нескольких инстансов не переподключались к брокеру синхронно.
package jitter

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// DefaultJitter — стандартный коэффициент джиттера (50%)
const DefaultJitter = 0.5

var (
	globalRand = rand.New(rand.NewSource(time.Now().UnixNano()))
	randMutex  sync.Mutex
)

// Duration возвращает продолжительность в диапазоне [d, d*(1+jitterFactor)].
func Duration(d time.Duration, jitterFactor float64) time.Duration {
	randMutex.Lock()
	j := globalRand.Float64() * jitterFactor * float64(d)
	randMutex.Unlock()
	return d + time.Duration(j)
}

// Backoff описывает экспоненциальную задержку с джиттером.
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Factor float64 // коэффициент джиттера, 0 — без случайности
}

// Next возвращает задержку для попытки attempt (нумерация с нуля).
// Без джиттера результат не превышает Max.
func (b Backoff) Next(attempt int) time.Duration {
	d := b.Base
	for i := 0; i < attempt && d < b.Max; i++ {
		d *= 2
	}
	if b.Max > 0 && d > b.Max {
		d = b.Max
	}
	if b.Factor <= 0 {
		return d
	}
	return Duration(d, b.Factor)
}

// Sleep ждёт задержку для attempt или отмену контекста.
// Возвращает false, если контекст был отменён раньше.
func (b Backoff) Sleep(ctx context.Context, attempt int) bool {
	t := time.NewTimer(b.Next(attempt))
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
