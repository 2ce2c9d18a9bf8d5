package emitters

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"token-monitor/internal/config"
	"token-monitor/internal/interfaces"
	"token-monitor/internal/models"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const defaultWriteTimeout = 10 * time.Second

// messageWriter is the subset of *kafka.Writer used by KafkaEmitter
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaEmitter implements EventEmitter using Kafka
type KafkaEmitter struct {
	writer  messageWriter
	logger  *zerolog.Logger
	timeout time.Duration
	mu      sync.Mutex
}

var _ interfaces.EventEmitter = (*KafkaEmitter)(nil)

// NewKafkaEmitter creates a new KafkaEmitter
func NewKafkaEmitter(cfg config.KafkaConfig, logger *zerolog.Logger) *KafkaEmitter {
	return newKafkaEmitter(&kafka.Writer{
		Addr:                   kafka.TCP(cfg.BrokerAddress),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		AllowAutoTopicCreation: true,
	}, logger)
}

func newKafkaEmitter(writer messageWriter, logger *zerolog.Logger) *KafkaEmitter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &KafkaEmitter{writer: writer, logger: logger, timeout: defaultWriteTimeout}
}

// ReportMessage builds the Kafka message for a report. Reports of the same
// transaction share a key so they land on the same partition.
func ReportMessage(report models.TokenCreationReport) (kafka.Message, error) {
	value, err := json.Marshal(report)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal report: %w", err)
	}
	return kafka.Message{
		Key:   []byte(report.TxHash),
		Value: value,
		Headers: []kafka.Header{
			{Key: "chain", Value: []byte(report.Chain.String())},
			{Key: "classification", Value: []byte(report.Classification.String())},
		},
	}, nil
}

func (k *KafkaEmitter) EmitEvent(report models.TokenCreationReport) error {
	msg, err := ReportMessage(report)
	if err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.writer == nil {
		return fmt.Errorf("kafka emitter is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
	defer cancel()

	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	k.logger.Debug().
		Str("chain", report.Chain.String()).
		Str("txHash", report.TxHash).
		Msg("Successfully emitted report to Kafka")
	return nil
}

func (k *KafkaEmitter) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.writer != nil {
		err := k.writer.Close()
		k.writer = nil
		return err
	}
	return nil
}
