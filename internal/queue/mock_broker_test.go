package queue_test

import (
	"context"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// mockBroker is an in-memory Broker. Nacked deliveries go back to the end
// of their queue, which is close enough to RabbitMQ's requeue behavior for
// these tests.
type mockBroker struct {
	mu        sync.Mutex
	connected bool
	queues    map[string][][]byte
	acked     map[string]int
}

func newMockBroker() *mockBroker {
	return &mockBroker{
		connected: true,
		queues:    make(map[string][][]byte),
		acked:     make(map[string]int),
	}
}

func (b *mockBroker) Ping() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return amqp.ErrClosed
	}
	return nil
}

func (b *mockBroker) Publish(queue string, body []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return amqp.ErrClosed
	}
	cp := make([]byte, len(body))
	copy(cp, body)
	b.queues[queue] = append(b.queues[queue], cp)
	return nil
}

func (b *mockBroker) pop(queue string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	q := b.queues[queue]
	if len(q) == 0 {
		return nil, false
	}
	body := q[0]
	b.queues[queue] = q[1:]
	return body, true
}

func (b *mockBroker) requeue(queue string, body []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queues[queue] = append(b.queues[queue], body)
}

func (b *mockBroker) queueLen(queue string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queues[queue])
}

func (b *mockBroker) ackedCount(queue string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.acked[queue]
}

func (b *mockBroker) Consume(ctx context.Context, queue string) (<-chan amqp.Delivery, error) {
	b.mu.Lock()
	if !b.connected {
		b.mu.Unlock()
		return nil, amqp.ErrClosed
	}
	b.mu.Unlock()

	ch := make(chan amqp.Delivery)

	go func() {
		defer close(ch)
		tick := time.NewTicker(2 * time.Millisecond)
		defer tick.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				body, ok := b.pop(queue)
				if !ok {
					continue
				}
				d := amqp.Delivery{
					Acknowledger: &mockAcknowledger{broker: b, queue: queue, body: body},
					Body:         body,
				}
				select {
				case ch <- d:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

type mockAcknowledger struct {
	broker *mockBroker
	queue  string
	body   []byte
}

func (a *mockAcknowledger) Ack(tag uint64, multiple bool) error {
	a.broker.mu.Lock()
	defer a.broker.mu.Unlock()
	a.broker.acked[a.queue]++
	return nil
}

func (a *mockAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	if requeue {
		a.broker.requeue(a.queue, a.body)
	}
	return nil
}

func (a *mockAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}
