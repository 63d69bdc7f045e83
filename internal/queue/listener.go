package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// Listener wraps pq.Listener on the scanner_requests channel so the
// worker can block until new work arrives instead of polling.
type Listener struct {
	l   *pq.Listener
	log *slog.Logger
}

// NewListener opens a dedicated LISTEN connection; pq's reconnect backoff
// runs from 10s up to 1min.
func NewListener(connStr string, log *slog.Logger) (*Listener, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "queue.listener")

	reportProblem := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Warn("listener event", "event", ev, "error", err)
		}
	}
	l := pq.NewListener(connStr, 10*time.Second, time.Minute, reportProblem)
	if err := l.Listen("scanner_requests"); err != nil {
		l.Close()
		return nil, err
	}
	return &Listener{l: l, log: log}, nil
}

// Wait blocks until a notification arrives, 90 seconds pass without one
// (treated the same as a notification so the caller re-drains in case a
// notify was missed during a reconnect), or ctx is cancelled.
func (l *Listener) Wait(ctx context.Context) error {
	select {
	case <-l.l.Notify:
		return nil
	case <-time.After(90 * time.Second):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Listener) Close() error {
	return l.l.Close()
}
