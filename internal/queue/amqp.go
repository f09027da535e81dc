package queue

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPBroker implements Broker over RabbitMQ. The publish path opens a
// fresh connection per call: simple and stateless, at the cost of a dial
// round trip. Operators who need more throughput can front it with a
// connection pool without changing the Broker contract.
type AMQPBroker struct {
	uri string
}

func NewAMQPBroker(uri string) *AMQPBroker {
	return &AMQPBroker{uri: uri}
}

func (b *AMQPBroker) Ping() error {
	conn, err := amqp.Dial(b.uri)
	if err != nil {
		return err
	}
	return conn.Close()
}

// declareQueue is idempotent and safe to call before every operation;
// queue existence is not guaranteed across broker restarts.
func declareQueue(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	return err
}

func (b *AMQPBroker) Publish(queue string, body []byte) error {
	conn, err := amqp.Dial(b.uri)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}

	if err := declareQueue(ch, queue); err != nil {
		return err
	}

	return ch.PublishWithContext(
		context.Background(),
		"",    // default exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func (b *AMQPBroker) Consume(ctx context.Context, queue string) (<-chan amqp.Delivery, error) {
	conn, err := amqp.Dial(b.uri)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err := declareQueue(ch, queue); err != nil {
		_ = conn.Close()
		return nil, err
	}

	// Prefetch 1 keeps delivery fair when multiple workers share a queue.
	if err := ch.Qos(1, 0, false); err != nil {
		_ = conn.Close()
		return nil, err
	}

	deliveries, err := ch.Consume(
		queue,
		"",    // consumer tag
		false, // autoAck: acks are manual
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	return deliveries, nil
}
