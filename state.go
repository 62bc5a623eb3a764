package socket

// role selects the continuation rule of a connection.
type role int

const (
	// roleClient speaks first and checks Continue after each receive.
	roleClient role = iota
	// roleServer listens first and checks Continue after each send.
	roleServer
)

func (r role) String() string {
	if r == roleServer {
		return "server"
	}
	return "client"
}

// state is the per-connection position in the exchange.
type state int

const (
	stateAccepting state = iota
	stateReading
	stateWriting
	stateTerminated
)

func (s state) String() string {
	switch s {
	case stateAccepting:
		return "accepting"
	case stateReading:
		return "reading"
	case stateWriting:
		return "writing"
	default:
		return "terminated"
	}
}

// effect is what the connection has to do after a transition.
type effect int

const (
	// effectNone keeps waiting for the next readiness event in the same state.
	effectNone effect = iota
	// effectRead switches the registration to read readiness.
	effectRead
	// effectWrite asks the session for the next message and switches to write readiness.
	effectWrite
	// effectClose terminates the connection.
	effectClose
)

// transition maps the outcome of a step to the next state. more is the
// swapper's Continue value; it is only consulted by the client after a
// receive and by the server after a send, which keeps both peers calling
// Swap the same number of times.
func transition(r role, s state, res Result, more bool) (state, effect) {
	switch s {
	case stateAccepting:
		return stateReading, effectRead

	case stateReading:
		switch res {
		case ResultUnfinished:
			return stateReading, effectNone
		case ResultFinished:
			if r == roleClient && !more {
				return stateTerminated, effectClose
			}
			return stateWriting, effectWrite
		}

	case stateWriting:
		switch res {
		case ResultUnfinished:
			return stateWriting, effectNone
		case ResultFinished:
			if r == roleServer && !more {
				return stateTerminated, effectClose
			}
			return stateReading, effectRead
		}
	}

	return stateTerminated, effectClose
}
