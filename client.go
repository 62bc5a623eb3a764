package socket

import (
	"context"
	"net"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Client runs exchanges against one server address. Every call dials a
// fresh connection and drives it on a private reactor, so a Client may be
// reused sequentially and shared between goroutines.
type Client struct {
	addr string
	opts options
}

// NewClient creates a client for addr ("host:port").
func NewClient(addr string, opt ...Option) *Client {
	return &Client{addr: addr, opts: buildOptions(opt)}
}

// Addr returns the server address the client dials.
func (c *Client) Addr() string {
	return c.addr
}

// Start connects, runs the conversation driven by sw until it ends and
// returns the last message received. The call fails as a whole when the
// connection fails, times out or the swapper aborts.
func (c *Client) Start(ctx context.Context, sw *Swapper) (*Message, error) {
	if sw == nil {
		return nil, ErrInvalidSwapper
	}

	dialer := net.Dialer{Timeout: c.opts.dialTimeout}
	nc, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", c.addr)
	}
	tcp := nc.(*net.TCPConn)
	_ = tcp.SetNoDelay(true)

	r, err := newReactor(c.opts.logger, c.opts.timeout)
	if err != nil {
		_ = tcp.Close()
		return nil, err
	}

	cc, err := newConn(tcp, roleClient, newSession(tcp.RemoteAddr().String(), sw, &c.opts))
	if err != nil {
		_ = tcp.Close()
		_ = r.release(err)
		return nil, err
	}

	var (
		cause error
		ended bool
	)
	cc.onClose = func(err error) {
		cause, ended = err, true
		r.stop()
	}

	r.register(cc)
	runErr := r.run(ctx)
	if !ended || cause == nil {
		cause = runErr
	}

	if cause != nil {
		return nil, cause
	}
	return cc.session.Last(), nil
}

// Send runs a single round: msg is sent and the reply returned.
func (c *Client) Send(ctx context.Context, msg *Message) (*Message, error) {
	return c.Start(ctx, Once(func(*Swapper, string, *Message) (*Message, error) {
		return msg, nil
	}))
}

// StartAsync runs Start on a new goroutine.
func (c *Client) StartAsync(ctx context.Context, sw *Swapper) *Future[*Message] {
	f := newFuture[*Message]()
	go func() {
		f.resolve(c.Start(ctx, sw))
	}()
	return f
}

// Batch runs many exchanges of c concurrently, at most limit at a time.
// limit <= 0 means no limit.
type Batch struct {
	client *Client
	ctx    context.Context
	group  errgroup.Group
}

// Batch returns an empty batch bound to ctx.
func (c *Client) Batch(ctx context.Context, limit int) *Batch {
	b := &Batch{client: c, ctx: ctx}
	if limit > 0 {
		b.group.SetLimit(limit)
	}
	return b
}

// Start schedules an exchange driven by sw. It blocks while limit
// exchanges are already running.
func (b *Batch) Start(sw *Swapper) *Future[*Message] {
	f := newFuture[*Message]()
	b.group.Go(func() error {
		msg, err := b.client.Start(b.ctx, sw)
		f.resolve(msg, err)
		return err
	})
	return f
}

// Wait blocks until every scheduled exchange finished and returns the
// first error.
func (b *Batch) Wait() error {
	return b.group.Wait()
}
