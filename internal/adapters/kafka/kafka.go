// Package kafka publishes message events for downstream consumers
// (notification fan-out, analytics). Delivery of events is independent from
// chat delivery; a broker outage never blocks the relay.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/IBM/sarama"

	"github.com/korsetof/chatmod/internal/relay"
)

// MessageEventProducer writes relay message events to one Kafka topic.
type MessageEventProducer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

// NewMessageEventProducer connects a synchronous producer to the brokers.
func NewMessageEventProducer(brokers []string, topic string, logger *slog.Logger) (*MessageEventProducer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Partitioner = sarama.NewHashPartitioner
	config.Version = sarama.V2_0_0_0
	config.ClientID = "chatmod"

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	logger.Info("kafka producer connected", "brokers", brokers, "topic", topic)
	return &MessageEventProducer{producer: producer, topic: topic, logger: logger}, nil
}

// PublishMessageEvent emits one event, keyed by sender so each sender's
// events stay ordered within a partition.
func (p *MessageEventProducer) PublishMessageEvent(_ context.Context, ev relay.MessageEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal message event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatUint(uint64(ev.SenderID), 10)),
		Value: sarama.ByteEncoder(payload),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to publish message event: %w", err)
	}

	p.logger.Debug("message event published",
		"kind", ev.Kind, "messageID", ev.MessageID, "partition", partition, "offset", offset)
	return nil
}

// Close shuts the underlying producer down.
func (p *MessageEventProducer) Close() error {
	return p.producer.Close()
}
