//go:build linux || darwin

package socket

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// poller waits for readiness with poll(2). A self-pipe lets other
// goroutines interrupt a blocked wait.
type poller struct {
	mu     sync.Mutex
	closed bool
	wakeR  int
	wakeW  int

	fds    []unix.PollFd
	owners []handle
}

func newPoller() (*poller, error) {
	var p [2]int
	if err := unix.Pipe(p[:]); err != nil {
		return nil, transportError("pipe", err)
	}

	for _, fd := range p {
		unix.CloseOnExec(fd)
		if err := unix.SetNonblock(fd, true); err != nil {
			_ = unix.Close(p[0])
			_ = unix.Close(p[1])
			return nil, transportError("set nonblock", err)
		}
	}

	return &poller{wakeR: p[0], wakeW: p[1]}, nil
}

// wait blocks until a handle is ready, the poller is woken or timeout
// elapses. timeout <= 0 waits forever. woken is also true when the wait
// was interrupted by a signal.
func (p *poller) wait(handles map[int]handle, timeout time.Duration) (ready []handle, woken bool, err error) {
	p.fds = append(p.fds[:0], unix.PollFd{Fd: int32(p.wakeR), Events: unix.POLLIN})
	p.owners = p.owners[:0]

	for fd, h := range handles {
		events := int16(unix.POLLIN)
		if h.interest() == interestWrite {
			events = unix.POLLOUT
		}
		p.fds = append(p.fds, unix.PollFd{Fd: int32(fd), Events: events})
		p.owners = append(p.owners, h)
	}

	ms := -1
	if timeout > 0 {
		ms = int(timeout / time.Millisecond)
		if ms == 0 {
			ms = 1
		}
	}

	n, err := unix.Poll(p.fds, ms)
	if err == unix.EINTR {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, transportError("poll", err)
	}
	if n == 0 {
		return nil, false, nil
	}

	if p.fds[0].Revents != 0 {
		woken = true
		p.drain()
	}

	for i, fd := range p.fds[1:] {
		if fd.Revents != 0 {
			ready = append(ready, p.owners[i])
		}
	}
	return ready, woken, nil
}

func (p *poller) drain() {
	var buf [64]byte
	for {
		n, err := unix.Read(p.wakeR, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

// wake interrupts a blocked wait. Safe from any goroutine.
func (p *poller) wake() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	_, err := unix.Write(p.wakeW, []byte{1})
	if err != nil && err != unix.EAGAIN {
		return transportError("wake", err)
	}
	return nil
}

func (p *poller) close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	err := unix.Close(p.wakeR)
	if werr := unix.Close(p.wakeW); err == nil {
		err = werr
	}
	if err != nil {
		return transportError("close poller", err)
	}
	return nil
}
