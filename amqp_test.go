package main

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

// ackRecorder is an amqp.Acknowledger that remembers how a delivery was settled.
type ackRecorder struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (a *ackRecorder) Ack(uint64, bool) error {
	a.acked = true
	return nil
}

func (a *ackRecorder) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked, a.requeue = true, requeue
	return nil
}

func (a *ackRecorder) Reject(_ uint64, requeue bool) error {
	a.nacked, a.requeue = true, requeue
	return nil
}

func TestReconcileQueue_HandleDelivery(t *testing.T) {
	q := &reconcileQueue{logger: discardLogger()}

	tests := []struct {
		name       string
		body       string
		handlerErr error
		wantCalled bool
		wantAck    bool
	}{
		{"success", `{"user_id":"u1"}`, nil, true, true},
		{"malformed body", `{"user_id":`, nil, false, false},
		{"missing user", `{}`, nil, false, false},
		{"persistence failure", `{"user_id":"u1"}`, &PersistenceError{Op: "upsert report", Err: errors.New("db down")}, true, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := &ackRecorder{}
			called := false
			handle := func(_ context.Context, req ReconcileRequest) error {
				called = true
				assert.Equal(t, "u1", req.UserID)
				return tc.handlerErr
			}

			q.handleDelivery(context.Background(), amqp.Delivery{Acknowledger: rec, Body: []byte(tc.body)}, handle)

			assert.Equal(t, tc.wantCalled, called)
			assert.Equal(t, tc.wantAck, rec.acked)
			assert.Equal(t, !tc.wantAck, rec.nacked)
			assert.False(t, rec.requeue, "deliveries are never requeued")
		})
	}
}
