package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeName is the topic exchange notifications are published to.
// Consumers bind with role.* or user.<id> patterns.
const ExchangeName = "notifications"

// Publisher relays notifications through RabbitMQ.  Delivery is
// best-effort: publish failures are logged and never surface to the
// request that triggered the event.
type Publisher struct {
	url string
}

func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// Publish sends the notification once per audience routing key.  A short
// lived connection per call keeps the publisher stateless; the broker is
// local and the event volume is low.
func (p *Publisher) Publish(ctx context.Context, n Notification, audiences []string) {
	if p == nil || p.url == "" || len(audiences) == 0 {
		return
	}

	body, err := json.Marshal(n)
	if err != nil {
		log.Printf("notify: marshal %s event: %v", n.Type, err)
		return
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("notify: dial broker: %v", err)
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("notify: open channel: %v", err)
		return
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(ExchangeName, "topic", true, false, false, false, nil); err != nil {
		log.Printf("notify: declare exchange: %v", err)
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	for _, key := range audiences {
		err := ch.PublishWithContext(pubCtx, ExchangeName, key, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    n.Timestamp,
			Body:         body,
		})
		if err != nil {
			log.Printf("notify: publish %s to %s: %v", n.Type, key, err)
		}
	}
}
