package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"campus-events/internal/model"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName          = "events"
	ExchangeKind          = "topic"
	RoutingEventPublished = "event.published"
)

// AMQPNotifier 將活動通知發佈到 RabbitMQ topic exchange，供其他服務訂閱
type AMQPNotifier struct {
	conn    *amqp.Connection
	mu      sync.Mutex // amqp.Channel 不可併發使用
	channel *amqp.Channel
}

func NewAMQPNotifier(url string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(ExchangeName, ExchangeKind, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}

	return &AMQPNotifier{conn: conn, channel: ch}, nil
}

func (p *AMQPNotifier) Name() string { return "amqp" }

func (p *AMQPNotifier) Notify(ctx context.Context, notice *model.EventNotice) error {
	body, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("marshal notice: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx,
		ExchangeName,
		RoutingEventPublished,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    notice.EventID.String(),
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish notice: %w: %w", ErrTransient, err)
	}
	return nil
}

func (p *AMQPNotifier) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
