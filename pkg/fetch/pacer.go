package fetch

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Pacer imposes a fixed pause before every network request
type Pacer struct {
	delay time.Duration
	log   *logrus.Entry
}

// NewPacer creates a Pacer. A non-positive delay disables pacing.
func NewPacer(delay time.Duration, log *logrus.Entry) *Pacer {
	return &Pacer{delay: delay, log: log}
}

// Delay returns the configured pause
func (p *Pacer) Delay() time.Duration {
	return p.delay
}

// Wait sleeps for the configured delay or until ctx is done
func (p *Pacer) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.delay <= 0 {
		return nil
	}
	p.log.WithField("sleep", p.delay).Debug("Pacing before request")

	timer := time.NewTimer(p.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
