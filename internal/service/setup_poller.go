package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"smsrelay/internal/metrics"

	"github.com/sirupsen/logrus"
)

// LinkChecker is the slice of the managed relay forwarder the poller needs.
type LinkChecker interface {
	CheckLinked(ctx context.Context) bool
	SetupURL() string
}

// SetupPoller polls the relay's link-check endpoint until the user has
// completed the pairing handshake. A failed check is treated exactly like
// "not yet linked" and retried on the next tick.
type SetupPoller struct {
	checker  LinkChecker
	interval time.Duration
	logger   *logrus.Logger

	linked atomic.Bool
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSetupPoller(checker LinkChecker, interval time.Duration, logger *logrus.Logger) *SetupPoller {
	return &SetupPoller{
		checker:  checker,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the polling loop. It returns immediately; polling stops
// when the link is confirmed, Stop is called or the context is canceled.
func (p *SetupPoller) Start(ctx context.Context) {
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.WithField("setup_url", p.checker.SetupURL()).
		Info("Waiting for relay pairing, open the setup link to complete it")

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(pollCtx)
	}()
}

// Stop terminates the polling loop and waits for it to exit.
func (p *SetupPoller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

// Linked reports whether the pairing handshake has been observed complete.
func (p *SetupPoller) Linked() bool {
	return p.linked.Load()
}

func (p *SetupPoller) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if p.checker.CheckLinked(ctx) {
			p.linked.Store(true)
			metrics.SetGauge("relay_linked", 1, nil)
			p.logger.Info("Relay pairing confirmed")
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
