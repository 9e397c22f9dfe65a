// Package forwarder turns received SMS messages into outbound requests
// against one of several remote endpoints and interprets the responses as
// delivery success or failure. Forwarder configurations round-trip through a
// single persisted JSON blob handled by Codec.
package forwarder

import (
	"context"

	"smsrelay/internal/models"
)

// Kind tags a forwarder variant. The tag doubles as the top-level key of the
// persisted configuration blob.
type Kind string

const (
	KindStdout       Kind = "Stdout"
	KindHTTPCallback Kind = "HttpCallback"
	KindTelegramBot  Kind = "TelegramBot"
	KindManagedRelay Kind = "ManagedRelay"
)

// HTTP methods a callback forwarder may use on the wire.
const (
	MethodGet  = "GET"
	MethodPost = "POST"
	MethodPut  = "PUT"
)

// Forwarder attempts delivery of a single SMS message. Forward reports an
// ordinary network or HTTP failure as an error value, never as a panic; each
// call is one HTTP round trip and forwarders are immutable after
// construction, so concurrent calls are safe.
type Forwarder interface {
	Kind() Kind
	Forward(ctx context.Context, msg models.SmsMessage) error
}

// mergeFields overlays extra onto the message fields. Static payload entries
// win over message fields on key collision.
func mergeFields(base, extra map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
