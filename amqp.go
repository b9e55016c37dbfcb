package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ReconcileRequest asks a worker to reconcile one user's current-month report.
type ReconcileRequest struct {
	UserID      string    `json:"user_id"`
	RequestedAt time.Time `json:"requested_at"`
}

func decodeReconcileRequest(body []byte) (ReconcileRequest, error) {
	var req ReconcileRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return ReconcileRequest{}, fmt.Errorf("unmarshal reconcile request: %w", err)
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		return ReconcileRequest{}, errors.New("reconcile request has no user_id")
	}
	return req, nil
}

// reconcileQueue publishes and consumes reconcile requests over RabbitMQ.
type reconcileQueue struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	queue    string
	logger   *slog.Logger
}

func newReconcileQueue(url, exchange, queue string, logger *slog.Logger) (*reconcileQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	q := &reconcileQueue{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		queue:    queue,
		logger:   logger,
	}

	if err := q.setup(); err != nil {
		q.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return q, nil
}

func (q *reconcileQueue) setup() error {
	if err := q.channel.ExchangeDeclare(q.exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := q.channel.QueueDeclare(q.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	// routing key is the queue name
	if err := q.channel.QueueBind(q.queue, q.queue, q.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	// one unacked request per consumer
	if err := q.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	return nil
}

// Publish enqueues a reconcile request for userID.
func (q *reconcileQueue) Publish(ctx context.Context, userID string) error {
	body, err := json.Marshal(ReconcileRequest{UserID: userID, RequestedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = q.channel.PublishWithContext(ctx, q.exchange, q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Consume hands each request to handle until ctx is cancelled.
func (q *reconcileQueue) Consume(ctx context.Context, handle func(context.Context, ReconcileRequest) error) error {
	deliveries, err := q.channel.Consume(q.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	q.logger.Info("consuming reconcile requests", "queue", q.queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			q.handleDelivery(ctx, d, handle)
		}
	}
}

// handleDelivery acks a handled request and rejects everything else without
// requeueing: malformed bodies and failed reconciliations are logged and dropped.
// The next sweep enqueues the user again.
func (q *reconcileQueue) handleDelivery(ctx context.Context, d amqp.Delivery, handle func(context.Context, ReconcileRequest) error) {
	req, err := decodeReconcileRequest(d.Body)
	if err != nil {
		q.logger.Error("dropping malformed reconcile request", "error", err)
		_ = d.Nack(false, false)
		return
	}

	if err := handle(ctx, req); err != nil {
		q.logger.Error("reconcile request failed, dropping", "user_id", req.UserID, "error", err)
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

func (q *reconcileQueue) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}
