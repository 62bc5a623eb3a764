// Package socket implements a length-prefixed multi-item framing protocol
// over TCP. Conversations are turn based: a Swapper decides what each side
// sends next, and a single-goroutine reactor multiplexes every connection
// of a client call or a server through non-blocking reads and writes.
package socket

import (
	"io"
	"net"
	"syscall"

	"code.hybscloud.com/iox"
	"github.com/pkg/errors"
)

// conn is one TCP connection registered on a reactor. It owns the
// connection's state and performs one non-blocking step per readiness event.
type conn struct {
	tcp     *net.TCPConn
	raw     syscall.RawConn
	fd      int
	role    role
	state   state
	session *Session
	sender  *sendBuffer
	logger  Logger

	closed  bool
	onClose func(cause error)
}

// newConn wraps an established TCP connection. The socket is switched to
// non-blocking use: every read and write goes straight to the descriptor.
func newConn(tcp *net.TCPConn, r role, s *Session) (*conn, error) {
	raw, err := tcp.SyscallConn()
	if err != nil {
		return nil, transportError("syscall conn", err)
	}

	fd, err := descriptor(raw)
	if err != nil {
		return nil, transportError("descriptor", err)
	}

	return &conn{
		tcp:     tcp,
		raw:     raw,
		fd:      fd,
		role:    r,
		state:   stateAccepting,
		session: s,
		logger:  s.logger,
	}, nil
}

// Read implements io.Reader on the raw descriptor. It never blocks:
// iox.ErrWouldBlock is returned when no data is available and io.EOF once
// the peer closed its side.
func (c *conn) Read(p []byte) (int, error) {
	n, err := readNonblocking(c.raw, p)
	if err != nil && !iox.IsWouldBlock(err) && err != io.EOF {
		return n, transportError("read", err)
	}
	return n, err
}

// Write implements io.Writer on the raw descriptor. It never blocks and may
// write only part of p.
func (c *conn) Write(p []byte) (int, error) {
	n, err := writeNonblocking(c.raw, p)
	if err != nil && !iox.IsWouldBlock(err) {
		return n, transportError("write", err)
	}
	return n, err
}

func (c *conn) descriptor() int {
	return c.fd
}

func (c *conn) interest() interest {
	if c.state == stateWriting {
		return interestWrite
	}
	return interestRead
}

// start puts the connection in its initial state: a client composes its
// first message right away, a server announces the session and reads.
func (c *conn) start() bool {
	c.logger.Info("connection established", "role", c.role)

	switch c.role {
	case roleServer:
		c.session.notifyAccepted()
		next, eff := transition(c.role, stateAccepting, ResultFinished, true)
		c.apply(next, eff, nil)
	case roleClient:
		c.apply(stateWriting, effectWrite, nil)
	}

	return c.state != stateTerminated
}

// onReady performs one step for the current state and reports whether the
// connection is still alive.
func (c *conn) onReady() bool {
	var (
		res Result
		err error
	)

	switch c.state {
	case stateReading:
		res, _, err = c.session.receiveBuffer().read(c)
	case stateWriting:
		res, err = c.sender.write(c)
	default:
		return false
	}

	if err != nil {
		c.logger.Debug("step failed", "state", c.state, "result", res, "error", errText(err))
	}

	next, eff := transition(c.role, c.state, res, c.session.more())
	c.apply(next, eff, err)

	return c.state != stateTerminated
}

func (c *conn) apply(next state, eff effect, cause error) {
	c.state = next

	switch eff {
	case effectWrite:
		sender, err := c.session.nextSender()
		if err != nil {
			c.terminate(err)
			return
		}
		c.sender = sender
	case effectRead:
		c.sender = nil
	case effectClose:
		c.terminate(cause)
	}
}

// shutdown terminates the connection from outside its own state machine.
func (c *conn) shutdown(cause error) error {
	return c.terminate(cause)
}

// terminate closes the socket and fires the disconnect listeners once.
// A plain swapper abort is reported to listeners as a graceful end.
func (c *conn) terminate(cause error) error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.state = stateTerminated
	c.sender = nil

	var err error
	if cerr := c.tcp.Close(); cerr != nil {
		err = transportError("close", cerr)
	}

	notified := cause
	if errors.Is(cause, ErrSwapperAbort) {
		notified = nil
	}

	if cause != nil {
		c.logger.Info("connection closed with error", "error", errText(cause))
	} else {
		c.logger.Info("connection closed")
	}

	if c.onClose != nil {
		c.onClose(cause)
	}
	c.session.notifyDisconnected(notified)

	return err
}
