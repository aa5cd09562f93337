// Package queue publishes and consumes reservation events over
// RabbitMQ.  Delivery is best effort: publishers log and return
// errors so callers can ignore them, and the consumer never stops the
// server on a bad message.
package queue

// ReservationEvent is published on every customer-facing reservation
// notification: confirmations, status updates, reminders and alerts.
// It carries enough to log or deliver the message without querying the
// primary database.
type ReservationEvent struct {
    ReservationID uint64 `json:"reservation_id,omitempty"`
    CustomerID    uint64 `json:"customer_id"`
    CustomerName  string `json:"customer_name,omitempty"`
    Kind          string `json:"kind"`
    Message       string `json:"message"`
    OccurredAt    string `json:"occurred_at"`
}
