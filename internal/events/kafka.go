package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// KafkaPublisher writes stock events to a Kafka topic keyed by item id
type KafkaPublisher struct {
	producer sarama.AsyncProducer
	topic    string
	done     chan struct{}
}

// NewKafkaPublisher connects an async producer to the given brokers
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Return.Errors = true
	cfg.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, topic), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer
func NewKafkaPublisherWithProducer(producer sarama.AsyncProducer, topic string) *KafkaPublisher {
	p := &KafkaPublisher{
		producer: producer,
		topic:    topic,
		done:     make(chan struct{}),
	}
	go p.drainErrors()
	return p
}

func (p *KafkaPublisher) drainErrors() {
	defer close(p.done)
	for err := range p.producer.Errors() {
		zap.L().Error("kafka publish failed", zap.String("topic", p.topic), zap.Error(err.Err))
	}
}

// Publish enqueues ev on the producer
func (p *KafkaPublisher) Publish(ctx context.Context, ev StockChanged) {
	value, err := json.Marshal(ev)
	if err != nil {
		zap.L().Error("failed to encode stock event", zap.Error(err))
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.ItemID),
		Value: sarama.ByteEncoder(value),
	}

	select {
	case p.producer.Input() <- msg:
	case <-ctx.Done():
		zap.L().Warn("stock event dropped", zap.String("itemId", ev.ItemID), zap.Error(ctx.Err()))
	}
}

// Close flushes pending messages and stops the producer
func (p *KafkaPublisher) Close() error {
	err := p.producer.Close()
	<-p.done
	return err
}
