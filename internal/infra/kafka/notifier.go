package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/notification"

	"github.com/segmentio/kafka-go"
)

const orderCreatedEvent = "order.created"

// テストで差し替えられるように*kafka.Writerの必要部分だけ
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

type orderLine struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int64  `json:"quantity"`
}

type orderCreated struct {
	Event   string      `json:"event"`
	OrderID string      `json:"order_id"`
	Email   string      `json:"email"`
	Total   string      `json:"total"`
	Items   []orderLine `json:"items"`
	SentAt  time.Time   `json:"sent_at"`
}

// 注文確定イベントをKafkaへ（キーは注文ID）
type KafkaNotifier struct {
	writer MessageWriter
	now    func() time.Time
}

var _ notification.Notifier = (*KafkaNotifier)(nil)

func NewKafkaNotifier(writer MessageWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: writer, now: time.Now}
}

func (n *KafkaNotifier) Name() string {
	return "kafka"
}

func (n *KafkaNotifier) Notify(ctx context.Context, receipt model.Receipt) error {
	items := make([]orderLine, 0, len(receipt.Lines))
	for _, l := range receipt.Lines {
		items = append(items, orderLine{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.UnitPrice.StringFixed(2),
			Quantity:  l.Quantity,
		})
	}

	now := n.now().UTC()
	data, err := json.Marshal(orderCreated{
		Event:   orderCreatedEvent,
		OrderID: receipt.OrderID,
		Email:   receipt.Email,
		Total:   receipt.Total.StringFixed(2),
		Items:   items,
		SentAt:  now,
	})
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(receipt.OrderID),
		Value: data,
		Time:  now,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(orderCreatedEvent)},
		},
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish: %w", err)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
