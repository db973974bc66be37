package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-account-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-account-ledger/internal/app/core/usecase"
)

// messageWriter kafka.Writer 中 Publisher 需要的部分
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher 將餘額事件寫入 Kafka
// 以帳戶 ID 作為 key，同一帳戶的事件會落在同一個 partition 並保持順序
type Publisher struct {
	writer  messageWriter
	timeout time.Duration
	logger  *zap.Logger
}

// publishTimeout 非同步模式下 WriteMessages 只負責排入佇列，不會等到 broker 回應
const publishTimeout = 2 * time.Second

// NewPublisher 建立 Kafka Publisher
//
// 參數:
//
//	brokers: Kafka broker 地址
//	topic: 事件 topic
//	logger: 日誌
func NewPublisher(brokers []string, topic string, logger *zap.Logger) *Publisher {
	return newPublisher(newWriter(brokers, topic, logger), publishTimeout, logger)
}

// newWriter 非同步 writer，實際送出的結果由 Completion 記錄
func newWriter(brokers []string, topic string, logger *zap.Logger) *kafka.Writer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		Async:        true,
		Logger:       kafka.LoggerFunc(func(msg string, args ...interface{}) { logger.Debug(fmt.Sprintf(msg, args...)) }),
		ErrorLogger:  kafka.LoggerFunc(func(msg string, args ...interface{}) { logger.Error(fmt.Sprintf(msg, args...)) }),
	}
	writer.Completion = completionLogger(topic, logger)
	return writer
}

func completionLogger(topic string, logger *zap.Logger) func(messages []kafka.Message, err error) {
	return func(messages []kafka.Message, err error) {
		for _, msg := range messages {
			if err != nil {
				logger.Error("Failed to write balance event to Kafka",
					zap.String("topic", topic),
					zap.String("account_id", string(msg.Key)),
					zap.Error(err),
				)
				continue
			}
			logger.Debug("Balance event written to Kafka",
				zap.String("topic", topic),
				zap.String("account_id", string(msg.Key)),
			)
		}
	}
}

func newPublisher(writer messageWriter, timeout time.Duration, logger *zap.Logger) *Publisher {
	return &Publisher{
		writer:  writer,
		timeout: timeout,
		logger:  logger,
	}
}

// Publish 將一筆事件排入 writer
// 回傳的錯誤只代表無法排入，broker 端的失敗由 Completion 記錄，不會拖慢請求
func (p *Publisher) Publish(ctx context.Context, event domain.BalanceEvent) error {
	msg, err := encodeEvent(event)
	if err != nil {
		return err
	}

	produceCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(produceCtx, msg); err != nil {
		return fmt.Errorf("failed to produce balance event to Kafka: %w", err)
	}
	p.logger.Debug("Balance event queued",
		zap.String("type", string(event.Type)),
		zap.Stringer("account_id", event.AccountID),
	)
	return nil
}

func (p *Publisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka publisher: %w", err)
	}
	p.logger.Info("Kafka publisher closed")
	return nil
}

func encodeEvent(event domain.BalanceEvent) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode balance event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(event.AccountID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}, nil
}

var _ usecase.EventPublisher = (*Publisher)(nil)
