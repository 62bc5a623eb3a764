package socket

// SwapFunc produces the next message of a conversation.
//
// remote is the peer address and last the most recently received message,
// nil on the first client round. Items already consumed by a receive
// listener are no longer in last. Returning a nil message, or an error,
// aborts the exchange: the connection is closed without sending.
type SwapFunc func(s *Swapper, remote string, last *Message) (*Message, error)

// SwapperFactory creates one Swapper per connection.
type SwapperFactory func() *Swapper

// Swapper decides what to send next and whether the conversation goes on.
//
// A Swapper is created per connection and is only touched by the reactor
// goroutine that owns that connection. The three constructors select the
// continuation policy:
//
//   - Once: exactly one round.
//   - Repeat: rounds continue until the SwapFunc calls Finish before
//     returning its final message.
//   - FixedRepeat: like Repeat, but Finish is called automatically on the
//     n-th round.
type Swapper struct {
	fn     SwapFunc
	once   bool
	limit  int
	rounds int
	more   bool
}

// Once returns a Swapper that runs a single round.
func Once(fn SwapFunc) *Swapper {
	return &Swapper{fn: fn, once: true, more: true}
}

// Repeat returns a Swapper that runs until fn calls Finish.
func Repeat(fn SwapFunc) *Swapper {
	return &Swapper{fn: fn, more: true}
}

// FixedRepeat returns a Swapper that finishes after n rounds.
// n values below one are treated as one.
func FixedRepeat(n int, fn SwapFunc) *Swapper {
	if n < 1 {
		n = 1
	}
	return &Swapper{fn: fn, limit: n, more: true}
}

// Swap runs one round and returns the message to send next.
// A nil message with a nil error is reported as ErrSwapperAbort.
func (s *Swapper) Swap(remote string, last *Message) (*Message, error) {
	s.rounds++
	if s.limit > 0 && s.rounds >= s.limit {
		s.Finish()
	}

	msg, err := s.fn(s, remote, last)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrSwapperAbort
	}
	return msg, nil
}

// Continue reports whether another round should follow.
func (s *Swapper) Continue() bool {
	return !s.once && s.more
}

// Finish marks the current round as the last one. Call it from the SwapFunc
// before returning the final message.
func (s *Swapper) Finish() {
	s.more = false
}

// Rounds returns how many times Swap has been called.
func (s *Swapper) Rounds() int {
	return s.rounds
}
