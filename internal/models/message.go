package models

import (
	"strconv"
	"time"
)

// SmsMessage is a single received SMS. It is immutable once received;
// forwarders only read from it.
type SmsMessage struct {
	Sender    string `json:"sender"`
	Body      string `json:"body"`
	Timestamp int64  `json:"timestamp"` // epoch milliseconds
	ThreadID  string `json:"threadId,omitempty"`
}

// PayloadFields returns the message as a flat string mapping, the shape every
// forwarder merges into its outgoing payload. The thread id travels along
// under the reserved key so the query encoder can strip it; it must never
// reach a remote endpoint.
func (m SmsMessage) PayloadFields() map[string]string {
	return map[string]string{
		"sender":    m.Sender,
		"body":      m.Body,
		"timestamp": strconv.FormatInt(m.Timestamp, 10),
		"thread_id": m.ThreadID,
	}
}

// DeliveryStatus is the recorded outcome of a single forward attempt.
type DeliveryStatus string

const (
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
)

// DeliveryRecord is one row of the local delivery log. The sender is stored
// masked; the log is for operator inspection, not for receipts.
type DeliveryRecord struct {
	ID            string
	ForwarderKind string
	Sender        string
	Status        DeliveryStatus
	Detail        string
	ForwardedAt   time.Time
}
