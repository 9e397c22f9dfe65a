package forwarder

import (
	"context"

	"smsrelay/internal/models"

	"github.com/sirupsen/logrus"
)

// StdoutForwarder emits messages to the log and always reports success.
// Used for local inspection and dry runs.
type StdoutForwarder struct {
	logger *logrus.Logger
}

func NewStdoutForwarder(logger *logrus.Logger) *StdoutForwarder {
	if logger == nil {
		logger = logrus.New()
	}
	return &StdoutForwarder{logger: logger}
}

func (f *StdoutForwarder) Kind() Kind {
	return KindStdout
}

func (f *StdoutForwarder) Forward(ctx context.Context, msg models.SmsMessage) error {
	f.logger.WithFields(logrus.Fields{
		"sender":    msg.Sender,
		"timestamp": msg.Timestamp,
		"body":      msg.Body,
	}).Info("SMS message")
	return nil
}
