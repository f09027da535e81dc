// Package queue publishes background work to durable broker queues and
// runs the long-lived consumer loops that drain them.
//
// Delivery is at least once: a handler error negatively acknowledges the
// message with requeue, so handlers must tolerate duplicates. Publishing is
// best-effort and never a precondition for the caller's primary action.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"chatboard/backend/internal/models"
)

// Queue names, shared with the other deployments of this application.
const (
	QueueEmail             = "email_notifications"
	QueuePush              = "push_notifications"
	QueueMessageProcessing = "message_processing"
	QueueUserActivity      = "user_activity"
	QueueSystemLogs        = "system_logs"
)

// ErrInvalidTask rejects malformed input before any I/O is attempted.
var ErrInvalidTask = errors.New("queue: invalid task")

// Handler processes one delivered task. A nil return acknowledges the
// message; any error requeues it for redelivery.
type Handler func(task models.NotificationTask) error

// Publisher is the producer surface handed to the API layer.
type Publisher interface {
	Available() bool
	Publish(queueName string, task models.NotificationTask) (bool, error)
	QueueEmailNotification(recipient, subject, message string) bool
	QueuePushNotification(username, title, message string) bool
	QueueMessageProcessing(username, message string) bool
	LogUserActivity(username, activity string, details map[string]string) bool
}

// Dispatcher implements Publisher and starts consumer loops. The broker is
// probed once at construction; when unreachable, every publish reports
// failure and no consumers start, but nothing panics or blocks.
type Dispatcher struct {
	broker    Broker
	available bool
}

func NewDispatcher(broker Broker) *Dispatcher {
	d := &Dispatcher{broker: broker}

	if broker == nil {
		log.Println("Warning: message broker not configured. Queue features disabled.")
		return d
	}

	if err := broker.Ping(); err != nil {
		log.Printf("Warning: message broker not available (%v). Queue features disabled.", err)
		return d
	}

	d.available = true
	log.Println("Message broker connection established")
	return d
}

func (d *Dispatcher) Available() bool { return d.available }

// Publish serializes the task and writes it to the named durable queue.
// The error return is reserved for malformed input, rejected before any
// I/O; a false with nil error means the broker could not take the message
// and the caller should proceed without the side effect.
func (d *Dispatcher) Publish(queueName string, task models.NotificationTask) (bool, error) {
	if queueName == "" || task.Type == "" {
		return false, ErrInvalidTask
	}

	if task.Timestamp.IsZero() {
		task.Timestamp = time.Now()
	}

	body, err := json.Marshal(task)
	if err != nil {
		return false, errors.Join(ErrInvalidTask, err)
	}

	if !d.available {
		return false, nil
	}

	if err := d.broker.Publish(queueName, body); err != nil {
		log.Printf("queue: publish to %s failed: %v", queueName, err)
		return false, nil
	}
	return true, nil
}

func (d *Dispatcher) QueueEmailNotification(recipient, subject, message string) bool {
	ok, _ := d.Publish(QueueEmail, models.NotificationTask{
		Type:      models.TaskEmail,
		Recipient: recipient,
		Subject:   subject,
		Message:   message,
	})
	return ok
}

func (d *Dispatcher) QueuePushNotification(username, title, message string) bool {
	ok, _ := d.Publish(QueuePush, models.NotificationTask{
		Type:     models.TaskPush,
		Username: username,
		Title:    title,
		Message:  message,
	})
	return ok
}

func (d *Dispatcher) QueueMessageProcessing(username, message string) bool {
	ok, _ := d.Publish(QueueMessageProcessing, models.NotificationTask{
		Type:     models.TaskMessageProcessing,
		Username: username,
		Message:  message,
	})
	return ok
}

func (d *Dispatcher) LogUserActivity(username, activity string, details map[string]string) bool {
	ok, _ := d.Publish(QueueUserActivity, models.NotificationTask{
		Type:     models.TaskUserActivity,
		Username: username,
		Activity: activity,
		Details:  details,
	})
	return ok
}

// RegisterConsumer starts one goroutine draining the named queue. Each
// delivery is handled in order: success acks, failure nacks with requeue.
// Payloads that do not decode are acked and dropped, otherwise a poison
// message would redeliver forever. The loop ends only when the delivery
// channel closes (connection loss); the operator restarts the worker.
func (d *Dispatcher) RegisterConsumer(ctx context.Context, queueName string, handler Handler) {
	if !d.available {
		log.Printf("queue: consumer for %s not started: broker not available", queueName)
		return
	}

	go func() {
		deliveries, err := d.broker.Consume(ctx, queueName)
		if err != nil {
			log.Printf("queue: consumer for %s failed to subscribe: %v", queueName, err)
			return
		}

		log.Printf("queue: consumer for %s started", queueName)

		for delivery := range deliveries {
			var task models.NotificationTask
			if err := json.Unmarshal(delivery.Body, &task); err != nil {
				log.Printf("queue: dropping undecodable message on %s: %v", queueName, err)
				_ = delivery.Ack(false)
				continue
			}

			if err := handler(task); err != nil {
				log.Printf("queue: handler for %s failed, requeueing: %v", queueName, err)
				_ = delivery.Nack(false, true)
				continue
			}

			_ = delivery.Ack(false)
		}

		log.Printf("queue: consumer for %s stopped: connection lost", queueName)
	}()
}
