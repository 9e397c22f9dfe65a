package service

import (
	"context"
	"sync"
	"time"

	"smsrelay/internal/metrics"
	"smsrelay/internal/models"
	"smsrelay/internal/privacy"
	"smsrelay/internal/tracing"
	"smsrelay/pkg/forwarder"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ConfigStore is the persistence surface the dispatcher needs.
type ConfigStore interface {
	SaveForwarderConfig(ctx context.Context, blob string) error
	GetForwarderConfig(ctx context.Context) (string, error)
	DeleteForwarderConfig(ctx context.Context) error
	RecordDelivery(ctx context.Context, rec models.DeliveryRecord) error
}

// Dispatcher owns the active forwarder and routes every incoming SMS
// through it. The active forwarder is replaced by value swap, never mutated
// in place, so dispatching and swapping may run concurrently.
type Dispatcher struct {
	mu     sync.RWMutex
	active forwarder.Forwarder

	codec  *forwarder.Codec
	store  ConfigStore
	logger *logrus.Logger
}

func NewDispatcher(codec *forwarder.Codec, store ConfigStore, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		codec:  codec,
		store:  store,
		logger: logger,
	}
}

// Activate decodes a configuration blob, persists its canonical encoding
// and swaps it in as the active forwarder. A malformed or incomplete config
// fails fast and leaves the previous forwarder untouched.
func (d *Dispatcher) Activate(ctx context.Context, blob string) error {
	fwd, err := d.codec.Decode(blob)
	if err != nil {
		return err
	}

	// Re-encode before saving: this canonicalizes legacy flat configs and
	// pins a freshly generated confirmation code so it survives restarts.
	canonical, err := d.codec.Encode(fwd)
	if err != nil {
		return err
	}
	if err := d.store.SaveForwarderConfig(ctx, canonical); err != nil {
		return err
	}

	d.mu.Lock()
	d.active = fwd
	d.mu.Unlock()

	d.logger.WithField("forwarder", fwd.Kind()).Info("Forwarder activated")
	return nil
}

// Restore loads the persisted configuration at startup. With nothing
// persisted the dispatcher stays unconfigured and Restore returns nil.
func (d *Dispatcher) Restore(ctx context.Context) error {
	blob, err := d.store.GetForwarderConfig(ctx)
	if err != nil {
		return err
	}
	if blob == "" {
		d.logger.Info("No forwarder configured")
		return nil
	}
	return d.Activate(ctx, blob)
}

// Deactivate removes the persisted configuration and clears the active
// forwarder.
func (d *Dispatcher) Deactivate(ctx context.Context) error {
	if err := d.store.DeleteForwarderConfig(ctx); err != nil {
		return err
	}

	d.mu.Lock()
	d.active = nil
	d.mu.Unlock()

	d.logger.Info("Forwarder deactivated")
	return nil
}

// Active returns the current forwarder, or nil when none is configured.
func (d *Dispatcher) Active() forwarder.Forwarder {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.active
}

// EncodeActive returns the canonical configuration blob of the active
// forwarder, or "" when none is configured.
func (d *Dispatcher) EncodeActive() (string, error) {
	fwd := d.Active()
	if fwd == nil {
		return "", nil
	}
	return d.codec.Encode(fwd)
}

// Dispatch forwards one message through the active forwarder. A delivery
// failure is returned for reporting but is an isolated outcome: it is
// logged, counted and recorded, and the next message proceeds regardless.
func (d *Dispatcher) Dispatch(ctx context.Context, msg models.SmsMessage) error {
	fwd := d.Active()
	if fwd == nil {
		d.logger.Warn("Dropping SMS: no forwarder configured")
		return models.ConfigError{Message: "no forwarder configured"}
	}

	ctx, span := tracing.StartSpan(ctx, "dispatcher.forward")
	defer span.End()

	start := time.Now()
	err := fwd.Forward(ctx, msg)
	elapsed := time.Since(start)

	kind := string(fwd.Kind())
	status := models.DeliveryDelivered
	detail := ""
	if err != nil {
		status = models.DeliveryFailed
		detail = err.Error()
		tracing.RecordError(ctx, err)
	}

	metrics.IncrementCounter("sms_forwarded_total", map[string]string{
		"forwarder": kind,
		"status":    string(status),
	})
	metrics.RecordTimer("sms_forward_duration", elapsed, map[string]string{"forwarder": kind})

	maskedSender := privacy.MaskPhoneNumber(msg.Sender)

	entry := d.logger.WithFields(logrus.Fields{
		"forwarder": kind,
		"sender":    maskedSender,
		"elapsed":   elapsed.String(),
	})
	if err != nil {
		entry.WithError(err).Warn("SMS delivery failed")
	} else {
		entry.Info("SMS delivered")
	}

	record := models.DeliveryRecord{
		ID:            uuid.NewString(),
		ForwarderKind: kind,
		Sender:        maskedSender,
		Status:        status,
		Detail:        detail,
		ForwardedAt:   time.Now(),
	}
	if recErr := d.store.RecordDelivery(ctx, record); recErr != nil {
		d.logger.WithError(recErr).Warn("Failed to record delivery outcome")
	}

	return err
}
