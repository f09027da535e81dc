package queue

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Broker abstracts the message broker so the dispatcher can be tested
// without a live RabbitMQ. Deliveries carry their own Acknowledger, which
// is how acks and requeues reach the broker.
type Broker interface {
	// Ping verifies the broker is reachable. Called once at startup.
	Ping() error
	// Publish writes one persistent message to a durable named queue,
	// declaring the queue first.
	Publish(queue string, body []byte) error
	// Consume opens a prefetch-1 subscription on the queue. The returned
	// channel closes when the underlying connection is lost or ctx is
	// cancelled.
	Consume(ctx context.Context, queue string) (<-chan amqp.Delivery, error)
}
