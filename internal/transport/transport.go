// Package transport provides line-oriented access to the rain multiplexer
// over either a Linux serial device or a TCP socket bridge.
package transport

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by ReadLine after Close has been called.
var ErrClosed = errors.New("transport: connection closed")

// ConfigError marks a configuration problem that retrying cannot fix
// (bad baud rate, empty device path). The watcher treats every other
// error as retryable.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "transport config: " + e.Reason
}

// IsConfigError reports whether err is fatal rather than retryable.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// Conn is a single session with the multiplexer. ReadLine blocks until a
// full line arrives, the configured read timeout elapses, or the
// connection fails; the returned line excludes the delimiter.
type Conn interface {
	ReadLine() (string, error)
	Close() error
}

// Transport opens connections to the device. Exactly one implementation
// is selected by configuration at startup.
type Transport interface {
	Dial() (Conn, error)
	fmt.Stringer
}
