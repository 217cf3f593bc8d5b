// Package queue carries JSON messages between the API and the background workers over RabbitMQ.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Declare makes sure the durable queues exist.
func Declare(ch *amqp.Channel, names ...string) error {
	for _, name := range names {
		_, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // auto-delete
			false, // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", name, err)
		}
	}
	return nil
}

type Publisher struct {
	ch      *amqp.Channel
	timeout time.Duration
}

func NewPublisher(ch *amqp.Channel, timeout time.Duration) *Publisher {
	return &Publisher{
		ch:      ch,
		timeout: timeout,
	}
}

// Publish sends v as a persistent JSON message to the named queue.
func (p *Publisher) Publish(ctx context.Context, queue string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.ch.PublishWithContext(
		ctx,
		"",
		queue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Outcome is what a consumer decided to do with a delivery.
type Outcome int

const (
	Ack Outcome = iota
	// Requeue hands the message back to the broker for another try.
	Requeue
	// Drop discards a message that can never be processed.
	Drop
)

func (o Outcome) String() string {
	switch o {
	case Ack:
		return "ack"
	case Requeue:
		return "requeue"
	case Drop:
		return "drop"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Settle acknowledges the delivery according to the outcome.
func Settle(d amqp.Delivery, o Outcome) error {
	switch o {
	case Requeue:
		return d.Nack(false, true)
	case Drop:
		return d.Nack(false, false)
	default:
		return d.Ack(false)
	}
}

// Handler decides the outcome of one message body.
type Handler func(ctx context.Context, body []byte) Outcome

// Consume runs workers goroutines over the deliveries until ctx is done or the channel closes,
// and waits for the in-flight messages to be settled.
func Consume(ctx context.Context, deliveries <-chan amqp.Delivery, workers int, handle Handler) {
	if workers < 1 {
		workers = 1
	}

	wg := sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-deliveries:
					if !ok {
						return
					}
					outcome := handle(ctx, d.Body)
					if err := Settle(d, outcome); err != nil {
						slog.Error("could not settle message", "outcome", outcome, "error", err)
					}
				}
			}
		}()
	}

	wg.Wait()
}
