package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/diewo77/stock-ledger/internal/ledger"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Writer is the subset of *kafka.Writer used by KafkaEmitter.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaEmitter publishes events as JSON, keyed by tenant so a tenant's
// events stay ordered within one partition. The trace context of the
// mutation travels in the message headers.
type KafkaEmitter struct {
	w Writer
}

func NewKafkaEmitter(brokers []string, topic string) *KafkaEmitter {
	return &KafkaEmitter{w: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}}
}

func NewKafkaEmitterWithWriter(w Writer) *KafkaEmitter {
	return &KafkaEmitter{w: w}
}

func (k *KafkaEmitter) Emit(ctx context.Context, ev ledger.Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", ev.ID, err)
	}
	headers := headerCarrier{{Key: "event-kind", Value: []byte(ev.Kind)}}
	otel.GetTextMapPropagator().Inject(ctx, &headers)
	msg := kafka.Message{
		Key:     []byte(strconv.FormatUint(uint64(ev.TenantID), 10)),
		Value:   value,
		Headers: []kafka.Header(headers),
		Time:    ev.OccurredAt,
	}
	if err := k.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish event %s: %w", ev.ID, err)
	}
	return nil
}

func (k *KafkaEmitter) Close() error { return k.w.Close() }

// headerCarrier adapts kafka headers to the otel propagation carrier.
type headerCarrier []kafka.Header

var _ propagation.TextMapCarrier = (*headerCarrier)(nil)

func (h *headerCarrier) Get(key string) string {
	for _, hd := range *h {
		if hd.Key == key {
			return string(hd.Value)
		}
	}
	return ""
}

func (h *headerCarrier) Set(key, value string) {
	for i, hd := range *h {
		if hd.Key == key {
			(*h)[i].Value = []byte(value)
			return
		}
	}
	*h = append(*h, kafka.Header{Key: key, Value: []byte(value)})
}

func (h *headerCarrier) Keys() []string {
	keys := make([]string, len(*h))
	for i, hd := range *h {
		keys[i] = hd.Key
	}
	return keys
}
