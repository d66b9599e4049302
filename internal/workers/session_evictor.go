package workers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultEvictInterval = time.Minute

// ConcludedEvictor is the part of the interview service the evictor needs.
type ConcludedEvictor interface {
	EvictConcluded(before time.Time) int
}

// SessionEvictor drops concluded interviews from the live store once they
// have been kept for TTL. Their reports are archived when they conclude.
type SessionEvictor struct {
	Sessions ConcludedEvictor
	TTL      time.Duration
	Interval time.Duration
	Logger   *logrus.Logger

	now func() time.Time
}

// Run blocks until ctx is done.
func (e *SessionEvictor) Run(ctx context.Context) {
	interval := e.Interval
	if interval <= 0 {
		interval = DefaultEvictInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	e.Logger.WithFields(logrus.Fields{"ttl": e.TTL.String(), "interval": interval.String()}).Info("session evictor started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			e.Sweep()
		}
	}
}

func (e *SessionEvictor) Sweep() int {
	now := time.Now
	if e.now != nil {
		now = e.now
	}
	n := e.Sessions.EvictConcluded(now().Add(-e.TTL))
	if n > 0 {
		e.Logger.WithField("evicted", n).Info("concluded sessions evicted")
	}
	return n
}
