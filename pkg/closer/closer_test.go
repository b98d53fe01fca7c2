package closer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloseRunsInReverseOrder(t *testing.T) {
	c := NewCloser(0)
	var order []string

	c.AddFunc("db", func() { order = append(order, "db") })
	c.AddFunc("redis", func() { order = append(order, "redis") })
	c.Add("http", func(context.Context) error {
		order = append(order, "http")
		return nil
	})

	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, []string{"http", "redis", "db"}, order)
}

func TestCloseCollectsErrorsAndRunsOnce(t *testing.T) {
	c := NewCloser(0)
	calls := 0
	c.Add("kafka", func(context.Context) error {
		calls++
		return errors.New("broker gone")
	})

	err := c.Close(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka: broker gone")

	assert.NoError(t, c.Close(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestCloseForcesRemainingOnTimeout(t *testing.T) {
	c := NewCloser(100 * time.Millisecond)
	forced := make(chan struct{}, 1)

	c.AddFunc("first", func() { forced <- struct{}{} })
	c.Add("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.Close(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shutdown interrupted")

	select {
	case <-forced:
	default:
		t.Fatal("remaining closer was not forced")
	}
}
