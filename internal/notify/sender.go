package notify

import (
	"context"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/domain/order"
)

// EventOrderConfirmation is the event_type header of confirmation messages.
const EventOrderConfirmation = "order.confirmation"

// MessageWriter is the subset of *kafka.Writer used by KafkaSender.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

var (
	_ MessageWriter  = (*kafka.Writer)(nil)
	_ order.Notifier = (*KafkaSender)(nil)
	_ order.Notifier = (*LogSender)(nil)
	_ order.Notifier = (*BreakerSender)(nil)
)

// NewKafkaWriter returns a writer for topic on brokers.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
}

// KafkaSender publishes confirmation events keyed by order id, so events of
// one order stay on one partition.
type KafkaSender struct {
	w MessageWriter
}

// NewKafkaSender creates a KafkaSender.
func NewKafkaSender(w MessageWriter) *KafkaSender {
	return &KafkaSender{w: w}
}

func (s *KafkaSender) SendOrderConfirmation(ctx context.Context, o *order.Order) error {
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(o.ID, 10)),
		Value: EncodeConfirmation(o),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventOrderConfirmation)},
		},
	}
	if err := s.w.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, "write message")
	}
	return nil
}

// EncodeConfirmation renders the confirmation event payload.
func EncodeConfirmation(o *order.Order) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("event")
	e.Str(EventOrderConfirmation)
	e.FieldStart("order_id")
	e.Int64(o.ID)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("customer_id")
	e.Int64(o.CustomerID)
	e.FieldStart("email")
	e.Str(o.Billing.Email)
	e.FieldStart("name")
	e.Str(o.Billing.FirstName + " " + o.Billing.LastName)
	e.FieldStart("currency")
	e.Str(string(o.Currency))
	e.FieldStart("total")
	e.Str(o.Total.StringFixed(2))
	e.FieldStart("items")
	e.ArrStart()
	for _, li := range o.LineItems {
		e.ObjStart()
		e.FieldStart("name")
		e.Str(li.Name)
		e.FieldStart("quantity")
		e.Int(li.Quantity)
		e.FieldStart("total")
		e.Str(li.Total.StringFixed(2))
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("created_at")
	e.Str(o.CreatedAt.UTC().Format(time.RFC3339))
	e.ObjEnd()
	return e.Bytes()
}

// LogSender only logs confirmations. It is used when no broker is configured.
type LogSender struct{}

func (LogSender) SendOrderConfirmation(ctx context.Context, o *order.Order) error {
	zctx.From(ctx).Info("Order confirmation",
		zap.Int64("order_id", o.ID),
		zap.String("email", o.Billing.Email),
		zap.String("total", o.Total.StringFixed(2)),
		zap.String("currency", string(o.Currency)),
	)
	return nil
}

// BreakerSender stops calling a failing notifier for a cool-down period.
type BreakerSender struct {
	next order.Notifier
	cb   *gobreaker.CircuitBreaker[struct{}]
}

// NewBreakerSender wraps next. The breaker opens after failures consecutive
// errors and probes again after cooldown.
func NewBreakerSender(lg *zap.Logger, next order.Notifier, failures uint32, cooldown time.Duration) *BreakerSender {
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "order-notifier",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			lg.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})
	return &BreakerSender{next: next, cb: cb}
}

func (s *BreakerSender) SendOrderConfirmation(ctx context.Context, o *order.Order) error {
	_, err := s.cb.Execute(func() (struct{}, error) {
		return struct{}{}, s.next.SendOrderConfirmation(ctx, o)
	})
	return err
}
