package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/mikey/rfq-workflow/internal/ports"
	"go.uber.org/zap"
)

// KafkaSink publishes every row of a table as a JSON object to the topic
// <prefix>.<channel>, keyed by the record id column when present
type KafkaSink struct {
	producer sarama.SyncProducer
	prefix   string
	logger   *zap.Logger
}

// NewKafkaProducer creates a synchronous producer for the given brokers
func NewKafkaProducer(brokers []string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V3_6_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return producer, nil
}

// NewKafkaSink creates a new Kafka sink
func NewKafkaSink(producer sarama.SyncProducer, prefix string, logger *zap.Logger) *KafkaSink {
	return &KafkaSink{producer: producer, prefix: prefix, logger: logger}
}

// Topic returns the topic used for a channel
func (k *KafkaSink) Topic(channel ports.Channel) string {
	if k.prefix == "" {
		return string(channel)
	}
	return k.prefix + "." + string(channel)
}

// Write publishes the rows in one batch
func (k *KafkaSink) Write(ctx context.Context, channel ports.Channel, table ports.Table) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	topic := k.Topic(channel)
	if len(table.Rows) == 0 {
		return "kafka://" + topic, nil
	}

	idCol := -1
	for i, c := range table.Columns {
		if c == "id" {
			idCol = i
			break
		}
	}

	msgs := make([]*sarama.ProducerMessage, 0, len(table.Rows))
	for _, row := range table.Rows {
		obj := make(map[string]string, len(table.Columns))
		for i, c := range table.Columns {
			if i < len(row) {
				obj[c] = row[i]
			}
		}
		payload, err := json.Marshal(obj)
		if err != nil {
			return "", fmt.Errorf("failed to encode row: %w", err)
		}
		msg := &sarama.ProducerMessage{Topic: topic, Value: sarama.ByteEncoder(payload)}
		if idCol >= 0 && idCol < len(row) {
			msg.Key = sarama.StringEncoder(row[idCol])
		}
		msgs = append(msgs, msg)
	}

	if err := k.producer.SendMessages(msgs); err != nil {
		return "", fmt.Errorf("failed to publish %s records: %w", channel, err)
	}

	k.logger.Debug("Published records", zap.String("topic", topic), zap.Int("count", len(msgs)))
	return "kafka://" + topic, nil
}

// Close closes the producer
func (k *KafkaSink) Close() error {
	return k.producer.Close()
}
