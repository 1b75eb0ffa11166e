package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"resume-parser-go/internal/storage/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestApplyPublishResult(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	msg := &models.OutboxMessage{Status: models.OutboxStatusPending, ErrorMessage: "old"}
	applyPublishResult(msg, nil, now)
	assert.Equal(t, models.OutboxStatusSent, msg.Status)
	assert.Equal(t, &now, msg.ProcessedAt)
	assert.Empty(t, msg.ErrorMessage)

	msg = &models.OutboxMessage{Status: models.OutboxStatusPending}
	for i := 1; i < maxRetryCount; i++ {
		applyPublishResult(msg, errors.New("channel closed"), now)
		assert.Equal(t, models.OutboxStatusPending, msg.Status, "第%d次失败仍可重试", i)
	}
	applyPublishResult(msg, errors.New("channel closed"), now)
	assert.Equal(t, models.OutboxStatusFailed, msg.Status)
	assert.Equal(t, maxRetryCount, msg.RetryCount)
	assert.Equal(t, "channel closed", msg.ErrorMessage)
	assert.Nil(t, msg.ProcessedAt)
}

func TestNewMessageRelay_Options(t *testing.T) {
	r := NewMessageRelay(nil, nil, zerolog.Nop(), WithPollingInterval(time.Second), WithBatchSize(50))
	assert.Equal(t, time.Second, r.pollingInterval)
	assert.Equal(t, 50, r.batchSize)

	r = NewMessageRelay(nil, nil, zerolog.Nop(), WithPollingInterval(0), WithBatchSize(-1))
	assert.Equal(t, defaultPollingInterval, r.pollingInterval)
	assert.Equal(t, defaultBatchSize, r.batchSize)
}

func TestRun_StopsOnCancel(t *testing.T) {
	r := NewMessageRelay(nil, nil, zerolog.Nop(), WithPollingInterval(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run 未在取消后退出")
	}
}
