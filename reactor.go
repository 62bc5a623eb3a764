package socket

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// interest is the readiness a handle waits for.
type interest int

const (
	interestRead interest = iota + 1
	interestWrite
)

// handle is a descriptor registered on a reactor together with the step
// to run when it becomes ready.
type handle interface {
	descriptor() int
	interest() interest
	// start runs once at registration and reports whether to keep the handle.
	start() bool
	// onReady runs one step and reports whether to keep the handle.
	onReady() bool
	// shutdown closes the handle with cause; it must be idempotent.
	shutdown(cause error) error
}

// reactor is a single-goroutine readiness loop. Handles are dispatched one
// at a time on the goroutine that called run, so handle state needs no
// locking. Only close may be called from other goroutines.
type reactor struct {
	poller  *poller
	handles map[int]handle
	logger  Logger
	timeout time.Duration

	closed  atomic.Bool
	stopped bool
}

// newReactor creates a reactor. A positive timeout makes run fail with
// ErrTimeout when no handle becomes ready in time.
func newReactor(logger Logger, timeout time.Duration) (*reactor, error) {
	p, err := newPoller()
	if err != nil {
		return nil, err
	}

	return &reactor{
		poller:  p,
		handles: make(map[int]handle),
		logger:  logger,
		timeout: timeout,
	}, nil
}

// register starts h and keeps it if it survived its start.
// It must be called from the loop goroutine, or before run.
func (r *reactor) register(h handle) {
	if r.dispatch(h, h.start) {
		r.handles[h.descriptor()] = h
	}
}

// stop ends run after the current dispatch round. Loop goroutine only.
func (r *reactor) stop() {
	r.stopped = true
}

// close asks a running loop to exit. Safe from any goroutine.
func (r *reactor) close() error {
	r.closed.Store(true)
	return r.poller.wake()
}

// run dispatches ready handles until close, stop, context cancellation or a
// poll failure. Handles still registered on exit are shut down with the
// reason the loop ended.
func (r *reactor) run(ctx context.Context) (err error) {
	unwatch := context.AfterFunc(ctx, func() {
		_ = r.poller.wake()
	})
	defer unwatch()

	defer func() {
		cause := err
		if cause == nil {
			cause = ErrReactorClosed
		}
		err = multierr.Append(err, r.release(cause))
	}()

	for {
		switch {
		case r.closed.Load(), r.stopped:
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		}

		ready, woken, err := r.poller.wait(r.handles, r.timeout)
		if err != nil {
			return err
		}
		if len(ready) == 0 && !woken && r.timeout > 0 {
			return errors.Wrapf(ErrTimeout, "no readiness within %s", r.timeout)
		}

		for _, h := range ready {
			if r.dispatch(h, h.onReady) {
				continue
			}
			if r.handles[h.descriptor()] == h {
				delete(r.handles, h.descriptor())
			}
		}
	}
}

// dispatch runs step for h. A panic is converted into the termination of h
// alone; the loop and the other handles are unaffected.
func (r *reactor) dispatch(h handle, step func() bool) (alive bool) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("handler panic recovered", "fd", h.descriptor(), "panic", p)
			r.shutdown(h, errors.Errorf("handler panic: %v", p))
			alive = false
		}
	}()

	return step()
}

// shutdown closes h, containing any panic raised by its listeners.
func (r *reactor) shutdown(h handle, cause error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("handler panic during shutdown", "fd", h.descriptor(), "panic", p)
			err = errors.Errorf("handler panic: %v", p)
		}
	}()

	return h.shutdown(cause)
}

// release shuts every remaining handle down and frees the poller.
func (r *reactor) release(cause error) error {
	var err error
	for fd, h := range r.handles {
		err = multierr.Append(err, r.shutdown(h, cause))
		delete(r.handles, fd)
	}

	r.closed.Store(true)
	return multierr.Append(err, r.poller.close())
}
