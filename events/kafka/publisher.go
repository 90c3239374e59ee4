// Package kafka publishes transfer-completed events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/qora/testnet-faucet/faucet"
)

const defaultTopic = "faucet.transfer_completed"

// Publisher writes TransferCompleted events. It satisfies
// faucet.EventPublisher; the orchestrator treats publish failures as
// best-effort, so a broker outage never blocks transfers.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a publisher for the given brokers. An empty
// topic selects the default.
func NewPublisher(brokers []string, topic string) *Publisher {
	if topic == "" {
		topic = defaultTopic
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *Publisher) PublishTransferCompleted(ctx context.Context, ev faucet.TransferCompleted) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.Recipient),
		Value: data,
	})
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error { return p.writer.Close() }

var _ faucet.EventPublisher = (*Publisher)(nil)
