package transport

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Serial opens the multiplexer's RS-232 line directly. Linux only.
type Serial struct {
	device  string
	baud    uint32
	timeout time.Duration
}

func NewSerial(device string, baud int, timeout time.Duration) (*Serial, error) {
	if device == "" {
		return nil, &ConfigError{Reason: "serial device path is empty"}
	}
	if timeout <= 0 {
		return nil, &ConfigError{Reason: "read timeout must be positive"}
	}
	b, ok := baudFlag(baud)
	if !ok {
		return nil, &ConfigError{Reason: fmt.Sprintf("unsupported baud rate %d", baud)}
	}
	return &Serial{device: device, baud: b, timeout: timeout}, nil
}

func (s *Serial) String() string {
	return "serial://" + s.device
}

// Dial opens the device in raw mode: no echo, no line editing, 8N1,
// VMIN=1/VTIME=0 so poll(2) drives the timeout instead of termios.
func (s *Serial) Dial() (Conn, error) {
	fd, err := syscall.Open(s.device, syscall.O_RDWR|syscall.O_NOCTTY|syscall.O_NONBLOCK, 0666)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.device, err)
	}

	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("get termios: %w", err)
	}

	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	termios.Oflag &^= unix.OPOST
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Cflag &^= unix.CSIZE | unix.PARENB
	termios.Cflag |= unix.CS8
	termios.Cflag &^= unix.CBAUD
	termios.Cflag |= s.baud
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("set termios: %w", err)
	}

	syscall.SetNonblock(fd, false)

	// Self-pipe so Close can wake a blocked poll.
	pipeFds := make([]int, 2)
	if err := unix.Pipe(pipeFds); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("pipe: %w", err)
	}

	return &serialConn{
		fd:      fd,
		file:    os.NewFile(uintptr(fd), s.device),
		timeout: s.timeout,
		pipeR:   pipeFds[0],
		pipeW:   pipeFds[1],
	}, nil
}

type serialConn struct {
	fd      int
	file    *os.File
	timeout time.Duration
	pipeR   int
	pipeW   int

	pending   string
	closeOnce sync.Once
	closeErr  error
}

func (c *serialConn) ReadLine() (string, error) {
	buf := make([]byte, 4096)
	deadline := time.Now().Add(c.timeout)
	for {
		if idx := strings.IndexByte(c.pending, '\n'); idx >= 0 {
			line := c.pending[:idx]
			c.pending = c.pending[idx+1:]
			return line, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return "", fmt.Errorf("serial read: %w", os.ErrDeadlineExceeded)
		}

		pfd := []unix.PollFd{
			{Fd: int32(c.fd), Events: unix.POLLIN},
			{Fd: int32(c.pipeR), Events: unix.POLLIN},
		}
		n, err := unix.Poll(pfd, int(remaining.Milliseconds())+1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return "", fmt.Errorf("poll: %w", err)
		}
		if n == 0 {
			return "", fmt.Errorf("serial read: %w", os.ErrDeadlineExceeded)
		}
		if pfd[1].Revents != 0 {
			var b [1]byte
			unix.Read(c.pipeR, b[:])
			return "", ErrClosed
		}
		if pfd[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			return "", fmt.Errorf("serial device hangup")
		}
		if pfd[0].Revents&unix.POLLIN != 0 {
			nr, err := c.file.Read(buf)
			if nr > 0 {
				c.pending += string(buf[:nr])
			}
			if err != nil {
				return "", fmt.Errorf("serial read: %w", err)
			}
		}
	}
}

func (c *serialConn) Close() error {
	c.closeOnce.Do(func() {
		unix.Write(c.pipeW, []byte{1})
		c.closeErr = c.file.Close()
		unix.Close(c.pipeR)
		unix.Close(c.pipeW)
	})
	return c.closeErr
}

func baudFlag(baud int) (uint32, bool) {
	switch baud {
	case 1200:
		return unix.B1200, true
	case 2400:
		return unix.B2400, true
	case 4800:
		return unix.B4800, true
	case 9600:
		return unix.B9600, true
	case 19200:
		return unix.B19200, true
	case 38400:
		return unix.B38400, true
	case 57600:
		return unix.B57600, true
	case 115200:
		return unix.B115200, true
	default:
		return 0, false
	}
}
