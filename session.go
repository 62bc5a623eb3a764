package socket

import (
	"github.com/google/uuid"
)

// Session binds one connection to its swapper, its receive buffer and the
// listeners captured when the connection started.
type Session struct {
	id        string
	remote    string
	swapper   *Swapper
	listeners Listeners
	maxFrame  int
	logger    Logger

	recv *receiveBuffer
	last *Message
}

func newSession(remote string, sw *Swapper, opts *options) *Session {
	id := uuid.New().String()
	return &Session{
		id:        id,
		remote:    remote,
		swapper:   sw,
		listeners: opts.listeners.clone(),
		maxFrame:  opts.maxFrameSize,
		logger:    withAttrs(opts.logger, "session_id", id, "addr", remote),
	}
}

// ID returns the unique session identifier used in logs.
func (s *Session) ID() string {
	return s.id
}

// RemoteAddr returns the peer address.
func (s *Session) RemoteAddr() string {
	return s.remote
}

// Last returns the most recently received message, or nil.
func (s *Session) Last() *Message {
	return s.last
}

// receiveBuffer returns the connection's receive buffer, creating it on
// first use. Completed messages are remembered for the next swap.
func (s *Session) receiveBuffer() *receiveBuffer {
	if s.recv == nil {
		s.recv = newReceiveBuffer(s.remote, s.maxFrame, func(remote string, msg *Message) {
			s.last = msg
			s.logger.Debug("frame received", "bytes", msg.Size(), "items", msg.Len())
			s.listeners.received(remote, msg)
		})
	}
	return s.recv
}

// nextSender asks the swapper for the next message and wraps it in a send
// buffer. It returns ErrSwapperAbort, or the swapper's own error, when the
// swapper declined to produce a message.
func (s *Session) nextSender() (*sendBuffer, error) {
	msg, err := s.swapper.Swap(s.remote, s.last)
	if err != nil {
		return nil, err
	}

	return newSendBuffer(s.remote, msg, s.maxFrame, func(remote string, n int) {
		s.logger.Debug("frame sent", "bytes", n)
		s.listeners.sent(remote, n)
	})
}

// more reports whether the swapper wants another round.
func (s *Session) more() bool {
	return s.swapper.Continue()
}

// notifyAccepted fires the accept listeners. Servers call it once per session.
func (s *Session) notifyAccepted() {
	s.listeners.accepted(s.remote)
}

func (s *Session) notifyDisconnected(cause error) {
	s.listeners.disconnected(s.remote, cause)
}
