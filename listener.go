package socket

// Listener callbacks run inline on the reactor goroutine. A slow callback
// delays every connection served by the same reactor.
type (
	// AcceptListener is called once when the server accepts a connection.
	AcceptListener func(remote string)
	// SendListener is called after a frame of n bytes has been fully written.
	SendListener func(remote string, n int)
	// ReceiveListener is called when a frame has been fully read, before the
	// swapper sees the message. Items it consumes are gone for the swapper.
	ReceiveListener func(remote string, msg *Message)
	// DisconnectListener is called when a connection terminates. cause is nil
	// when the swapper ended the conversation.
	DisconnectListener func(remote string, cause error)
	// ShutdownListener is called when a server loop stops.
	ShutdownListener func()
)

// Listeners is the set of callbacks captured by a session when it starts.
// Several callbacks of the same kind run in registration order.
type Listeners struct {
	Accept     []AcceptListener
	Send       []SendListener
	Receive    []ReceiveListener
	Disconnect []DisconnectListener
	Shutdown   []ShutdownListener
}

// clone copies the slices so later option changes never reach a live session.
func (l Listeners) clone() Listeners {
	return Listeners{
		Accept:     append([]AcceptListener(nil), l.Accept...),
		Send:       append([]SendListener(nil), l.Send...),
		Receive:    append([]ReceiveListener(nil), l.Receive...),
		Disconnect: append([]DisconnectListener(nil), l.Disconnect...),
		Shutdown:   append([]ShutdownListener(nil), l.Shutdown...),
	}
}

func (l Listeners) accepted(remote string) {
	for _, fn := range l.Accept {
		fn(remote)
	}
}

func (l Listeners) sent(remote string, n int) {
	for _, fn := range l.Send {
		fn(remote, n)
	}
}

func (l Listeners) received(remote string, msg *Message) {
	for _, fn := range l.Receive {
		fn(remote, msg)
	}
}

func (l Listeners) disconnected(remote string, cause error) {
	for _, fn := range l.Disconnect {
		fn(remote, cause)
	}
}

func (l Listeners) shutdown() {
	for _, fn := range l.Shutdown {
		fn()
	}
}
