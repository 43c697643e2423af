package transport

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// TCP connects to a serial-to-ethernet bridge exposing the multiplexer
// on a plain socket.
type TCP struct {
	host    string
	port    int
	timeout time.Duration
}

func NewTCP(host string, port int, timeout time.Duration) (*TCP, error) {
	if host == "" {
		return nil, &ConfigError{Reason: "tcp host is empty"}
	}
	if port <= 0 || port > 65535 {
		return nil, &ConfigError{Reason: fmt.Sprintf("tcp port %d out of range", port)}
	}
	if timeout <= 0 {
		return nil, &ConfigError{Reason: "read timeout must be positive"}
	}
	return &TCP{host: host, port: port, timeout: timeout}, nil
}

func (t *TCP) String() string {
	return fmt.Sprintf("tcp://%s", net.JoinHostPort(t.host, fmt.Sprint(t.port)))
}

func (t *TCP) Dial() (Conn, error) {
	addr := net.JoinHostPort(t.host, fmt.Sprint(t.port))
	c, err := net.DialTimeout("tcp", addr, t.timeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &tcpConn{conn: c, timeout: t.timeout}, nil
}

// tcpConn is read by the single watcher goroutine; Close may be called
// from another goroutine and unblocks an in-flight read by closing the
// underlying socket.
type tcpConn struct {
	conn      net.Conn
	timeout   time.Duration
	pending   string
	closeOnce sync.Once
}

// ReadLine accumulates bytes until a '\n'. Whatever follows the newline
// stays buffered for the next call. Every read carries the configured
// deadline; the multiplexer emits continuously, so a quiet socket is a
// dead socket.
func (c *tcpConn) ReadLine() (string, error) {
	buf := make([]byte, 4096)
	for {
		if idx := strings.IndexByte(c.pending, '\n'); idx >= 0 {
			line := c.pending[:idx]
			c.pending = c.pending[idx+1:]
			return line, nil
		}
		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return "", fmt.Errorf("set read deadline: %w", err)
		}
		n, err := c.conn.Read(buf)
		if n > 0 {
			c.pending += string(buf[:n])
		}
		if err != nil {
			return "", fmt.Errorf("socket read: %w", err)
		}
	}
}

func (c *tcpConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}
