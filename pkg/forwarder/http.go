package forwarder

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"smsrelay/internal/constants"
	"smsrelay/internal/models"

	"github.com/sirupsen/logrus"
)

// DeliveryError reports a failed forward attempt: either a transport error
// or a response status other than 200. It is an outcome, not a fatal
// condition; callers log it and move on to the next message.
type DeliveryError struct {
	Kind   Kind
	Status int // 0 when the request never completed
	Err    error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s delivery failed: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s delivery failed: status %d", e.Kind, e.Status)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// httpSender is the shared request/response handling embedded by every
// forwarder variant that speaks plain HTTP.
type httpSender struct {
	client *http.Client
	logger *logrus.Logger
}

func newHTTPSender(client *http.Client, logger *logrus.Logger) httpSender {
	if client == nil {
		client = &http.Client{Timeout: time.Duration(constants.DefaultHTTPTimeoutSec) * time.Second}
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	return httpSender{client: client, logger: logger}
}

type buildRequestFunc func(ctx context.Context, msg models.SmsMessage) (*http.Request, error)

// send builds the variant-specific request and performs the single round
// trip. Success is status 200 exactly; other 2xx codes count as failures,
// matching what the wrapped services return on confirmed delivery.
func (s *httpSender) send(ctx context.Context, kind Kind, msg models.SmsMessage, build buildRequestFunc) error {
	req, err := build(ctx, msg)
	if err != nil {
		return &DeliveryError{Kind: kind, Err: fmt.Errorf("failed to build request: %w", err)}
	}

	s.logger.WithFields(logrus.Fields{
		"forwarder": kind,
		"method":    req.Method,
		"host":      req.URL.Host,
	}).Debug("Sending forward request")

	resp, err := s.client.Do(req)
	if err != nil {
		return &DeliveryError{Kind: kind, Err: err}
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused; the body content is not part
	// of the delivery contract.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK {
		return &DeliveryError{Kind: kind, Status: resp.StatusCode}
	}

	return nil
}
