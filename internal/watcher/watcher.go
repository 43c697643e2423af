// Package watcher owns the connection to the rain multiplexer. It keeps
// exactly one session open, feeds decoded status lines to the publisher,
// and reconnects forever with a fixed delay when the link fails.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/warwick-one-metre/rg11d/internal/measurement"
	"github.com/warwick-one-metre/rg11d/internal/transport"
)

// DefaultReconnectDelay matches the multiplexer's observed recovery time
// after a power cycle; it is deliberately constant, not exponential.
const DefaultReconnectDelay = 10 * time.Second

// Sink receives measurements. Clear marks the start and end of a
// connection epoch so stale readings never leak across sessions.
type Sink interface {
	Update(measurement.Measurement)
	Clear()
}

// Option tweaks a Watcher; used by tests to inject clock and sleep.
type Option func(*Watcher)

func WithReconnectDelay(d time.Duration) Option {
	return func(w *Watcher) { w.delay = d }
}

// WithSleep replaces the backoff sleep. The function must honor ctx.
func WithSleep(sleep func(ctx context.Context, d time.Duration)) Option {
	return func(w *Watcher) { w.sleep = sleep }
}

func WithClock(now func() time.Time) Option {
	return func(w *Watcher) { w.now = now }
}

type Watcher struct {
	transport transport.Transport
	sink      Sink
	version   string
	logger    *slog.Logger
	delay     time.Duration
	sleep     func(ctx context.Context, d time.Duration)
	now       func() time.Time

	mu        sync.RWMutex
	connected bool
}

func New(tr transport.Transport, sink Sink, version string, logger *slog.Logger, opts ...Option) *Watcher {
	w := &Watcher{
		transport: tr,
		sink:      sink,
		version:   version,
		logger:    logger,
		delay:     DefaultReconnectDelay,
		sleep:     sleepContext,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Connected reports whether a session with the device is currently open.
func (w *Watcher) Connected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected
}

func (w *Watcher) setConnected(v bool) {
	w.mu.Lock()
	w.connected = v
	w.mu.Unlock()
}

// Run drives the connect/read/reconnect loop until ctx is cancelled.
// Transport errors never terminate it; only a configuration error
// surfacing from Dial is fatal.
func (w *Watcher) Run(ctx context.Context) error {
	everConnected := false
	failing := false

	for ctx.Err() == nil {
		conn, err := w.transport.Dial()
		if err != nil {
			if transport.IsConfigError(err) {
				return fmt.Errorf("dial %s: %w", w.transport, err)
			}
			// Log only the first error of a failure streak so a long
			// outage does not flood the log every retry.
			if !failing {
				w.logger.Error("multiplexer connection failed", "transport", w.transport.String(), "error", err)
				failing = true
			}
			w.sleep(ctx, w.delay)
			continue
		}

		if failing {
			w.logger.Info("multiplexer connection restored", "transport", w.transport.String())
		} else if !everConnected {
			w.logger.Info("connected to multiplexer", "transport", w.transport.String())
		}
		everConnected = true
		failing = false

		// New epoch: readings from the previous session must not be
		// attributed to this one.
		w.sink.Clear()
		w.setConnected(true)

		err = w.readSession(ctx, conn)

		w.setConnected(false)
		w.sink.Clear()
		conn.Close()

		if ctx.Err() != nil {
			break
		}

		w.logger.Error("multiplexer connection lost", "transport", w.transport.String(), "error", err)
		failing = true
		w.sleep(ctx, w.delay)
	}
	return nil
}

// readSession reads lines until the connection fails. The first line is
// discarded: it may be the tail of a line that began before we attached.
func (w *Watcher) readSession(ctx context.Context, conn transport.Conn) error {
	// Close the connection when ctx is cancelled so a blocked read
	// returns promptly during shutdown.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	first := true
	for {
		line, err := conn.ReadLine()
		if err != nil {
			return err
		}
		if first {
			first = false
			continue
		}

		line = strings.TrimRight(line, " \t\r\n")
		if err := checkASCII(line); err != nil {
			return err
		}

		w.sink.Update(measurement.New(line, w.version, w.now()))
	}
}

// checkASCII rejects lines with bytes outside printable ASCII. The
// multiplexer speaks 7-bit ASCII; anything else means framing garbage,
// which ends the session rather than being skipped.
func checkASCII(line string) error {
	for i := 0; i < len(line); i++ {
		if line[i] < 0x20 || line[i] > 0x7e {
			return fmt.Errorf("malformed line %q: non-ASCII byte at %d", line, i)
		}
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
