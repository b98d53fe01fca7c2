package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront-catalog/internal/cfg"
	"github.com/DRSN-tech/storefront-catalog/internal/usecase"
	"github.com/DRSN-tech/storefront-catalog/pkg/jitter"
	"github.com/DRSN-tech/storefront-catalog/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// messageReader — то, что consumer использует от kafka.Reader.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var errMalformedEvent = errors.New("malformed catalog change event")

// ChangeConsumer читает события изменения каталога и сбрасывает по ним кэши.
type ChangeConsumer struct {
	reader  messageReader
	handler usecase.ChangeHandler
	logger  logger.Logger
	backoff jitter.Backoff
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewChangeConsumer(cfg *cfg.KafkaCfg, handler usecase.ChangeHandler, logger logger.Logger) *ChangeConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})

	return newChangeConsumer(reader, handler, logger, jitter.Backoff{
		Base:   cfg.MinBackoff,
		Max:    cfg.MaxBackoff,
		Factor: jitter.DefaultJitter,
	})
}

func newChangeConsumer(reader messageReader, handler usecase.ChangeHandler, logger logger.Logger, backoff jitter.Backoff) *ChangeConsumer {
	return &ChangeConsumer{
		reader:  reader,
		handler: handler,
		logger:  logger,
		backoff: backoff,
	}
}

func (c *ChangeConsumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(ctx)
	}()
}

// Stop останавливает чтение, ждёт обработку текущего сообщения и закрывает reader.
func (c *ChangeConsumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()

	return c.reader.Close()
}

func (c *ChangeConsumer) run(ctx context.Context) {
	c.logger.Infof("catalog change consumer started")

	attempt := 0
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Infof("catalog change consumer stopped")
				return
			}

			c.logger.Warnf("kafka fetch failed (attempt %d, retryable=%t): %v", attempt+1, isRetryableError(err), err)
			if !c.backoff.Sleep(ctx, attempt) {
				return
			}
			attempt++
			continue
		}
		attempt = 0

		if err := c.handleMessage(ctx, msg); err != nil {
			if errors.Is(err, errMalformedEvent) {
				// битое сообщение не станет валидным при повторе: пропускаем его
				c.logger.Errorf(err, "skipping message partition=%d offset=%d", msg.Partition, msg.Offset)
			} else {
				c.logger.Warnf("catalog change handling failed, offset=%d: %v", msg.Offset, err)
			}
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Warnf("kafka commit failed, offset=%d: %v", msg.Offset, err)
		}
	}
}

func (c *ChangeConsumer) handleMessage(ctx context.Context, msg kafka.Message) error {
	event, err := DecodeChange(msg.Value)
	if err != nil {
		return err
	}

	return c.handler.HandleProductChange(ctx, event)
}

// DecodeChange разбирает и проверяет событие изменения каталога.
func DecodeChange(value []byte) (usecase.ProductChangeEvent, error) {
	var event usecase.ProductChangeEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return event, fmt.Errorf("%w: %w", errMalformedEvent, err)
	}

	switch event.Operation {
	case usecase.OperationUpsert, usecase.OperationDelete:
	default:
		return event, fmt.Errorf("%w: operation %q", errMalformedEvent, event.Operation)
	}
	if event.ProductID == "" && event.Category == "" {
		return event, fmt.Errorf("%w: neither product_id nor category set", errMalformedEvent)
	}

	return event, nil
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"i/o timeout",
		"network is unreachable",
		"broker not available",
		"connection reset",
		"broken pipe",
		"no such host",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(errStr, phrase) {
			return true
		}
	}
	return false
}
