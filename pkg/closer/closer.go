package closer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Closer закрывает зарегистрированные ресурсы в обратном порядке (LIFO).
type Closer struct {
	mu            sync.Mutex
	once          sync.Once
	items         []item
	forcedTimeout time.Duration
}

// Func — сигнатура функции закрытия ресурса.
type Func func(ctx context.Context) error

type item struct {
	name string
	fn   Func
}

// NewCloser создает новый экземпляр Closer.
// forcedTimeout — время на принудительное закрытие оставшихся ресурсов, если ctx в Close истёк.
func NewCloser(forcedTimeout time.Duration) *Closer {
	const defaultForcedTimeout = 2 * time.Second

	if forcedTimeout <= 0 {
		forcedTimeout = defaultForcedTimeout
	}

	return &Closer{forcedTimeout: forcedTimeout}
}

// Add регистрирует функцию закрытия под именем name (имя попадает в текст ошибки).
func (c *Closer) Add(name string, f Func) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, item{name: name, fn: f})
}

// AddFunc регистрирует функцию без контекста и ошибки, например pgxpool.Pool.Close.
func (c *Closer) AddFunc(name string, f func()) {
	c.Add(name, func(context.Context) error {
		f()
		return nil
	})
}

// Close запускает закрытие один раз. Повторные вызовы возвращают nil.
func (c *Closer) Close(ctx context.Context) error {
	var err error
	c.once.Do(func() {
		c.mu.Lock()
		items := c.items
		c.mu.Unlock()

		left, errs := c.closeInOrder(ctx, items)
		if len(left) > 0 {
			errs = append(errs, c.closeForced(left)...)
			err = fmt.Errorf("shutdown interrupted, %d/%d closed gracefully:\n%s",
				len(items)-len(left), len(items), strings.Join(errs, "\n"))
			return
		}

		if len(errs) > 0 {
			err = fmt.Errorf("shutdown finished with error(s):\n%s", strings.Join(errs, "\n"))
		}
	})

	return err
}

// closeInOrder возвращает ресурсы, до которых не дошла очередь из-за отмены ctx.
func (c *Closer) closeInOrder(ctx context.Context, items []item) ([]item, []string) {
	var errs []string
	for i := len(items) - 1; i >= 0; i-- {
		it := items[i]
		done := make(chan error, 1)

		go func() { done <- it.fn(ctx) }()

		select {
		case err := <-done:
			if err != nil {
				errs = append(errs, fmt.Sprintf("[!] %s: %v", it.name, err))
			}
		case <-ctx.Done():
			return items[:i+1], errs
		}
	}

	return nil, errs
}

func (c *Closer) closeForced(items []item) []string {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []string
	)

	ctx, cancel := context.WithTimeout(context.Background(), c.forcedTimeout)
	defer cancel()

	for _, it := range items {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := it.fn(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Sprintf("[FORCED] %s: %v", it.name, err))
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return errs
}
