package socket

import (
	"context"
	"net"
	"sync"

	"code.hybscloud.com/iox"
	"github.com/pkg/errors"
)

// maxAcceptsPerEvent bounds how many connections one readiness event of the
// listening socket accepts before other handles get their turn.
const maxAcceptsPerEvent = 64

var errAlreadyServing = errors.New("server already serving")

// Server accepts connections and runs one swapper-driven session per
// connection. All sessions share a single reactor goroutine.
type Server struct {
	listener *net.TCPListener
	factory  SwapperFactory
	opts     options
	logger   Logger

	mu      sync.Mutex
	reactor *reactor
	closed  bool

	stopOnce sync.Once
}

// New creates a server bound to addr. factory is called once per accepted
// connection. Returns an error if the address cannot be bound.
func New(addr *net.TCPAddr, factory SwapperFactory, opt ...Option) (*Server, error) {
	if factory == nil {
		return nil, ErrInvalidSwapper
	}

	listener, err := net.ListenTCP(addr.Network(), addr)
	if err != nil {
		return nil, err
	}

	opts := buildOptions(opt)
	return &Server{
		listener: listener,
		factory:  factory,
		opts:     opts,
		logger:   opts.logger,
	}, nil
}

// Serve runs the reactor loop on the calling goroutine until Close is
// called or ctx is canceled. It returns nil after Close and ctx.Err() after
// cancellation. Failures of single connections never stop Serve.
// Serve may be called only once.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.stopped()
		return ErrServerClosed
	}
	if s.reactor != nil {
		s.mu.Unlock()
		return errAlreadyServing
	}

	r, err := newReactor(s.logger, 0)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.reactor = r
	s.mu.Unlock()

	acc, err := newAcceptor(s, r)
	if err != nil {
		_ = r.release(err)
		s.stopped()
		return err
	}
	r.register(acc)

	s.logger.Info("server started", "addr", s.Addr())
	err = r.run(ctx)
	s.logger.Info("server stopped", "addr", s.Addr())

	s.stopped()
	return err
}

// stopped fires the shutdown listeners, once per server.
func (s *Server) stopped() {
	s.stopOnce.Do(s.opts.listeners.shutdown)
}

// Start runs Serve on a new goroutine and returns a handle to await it.
func (s *Server) Start(ctx context.Context) *Future[struct{}] {
	f := newFuture[struct{}]()
	go func() {
		f.resolve(struct{}{}, s.Serve(ctx))
	}()
	return f
}

// Close stops the server. It may be called from any goroutine; a running
// loop is woken, closes the listener and terminates open connections with
// ErrReactorClosed. Safe to call multiple times.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.reactor != nil {
		return s.reactor.close()
	}
	return s.listener.Close()
}

// Shutdown is an alias of Close.
func (s *Server) Shutdown() error {
	return s.Close()
}

// Addr returns the listener's network address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// accept creates a session for tcp and registers it on r.
func (s *Server) accept(r *reactor, tcp *net.TCPConn) {
	remote := tcp.RemoteAddr().String()
	s.logger.Debug("accepted connection", "remote_addr", remote)
	_ = tcp.SetNoDelay(true)

	sw, err := s.newSwapper()
	if err != nil {
		s.logger.Warn("swapper factory failed", "remote_addr", remote, "error", errText(err))
		_ = tcp.Close()
		return
	}

	c, err := newConn(tcp, roleServer, newSession(remote, sw, &s.opts))
	if err != nil {
		s.logger.Warn("connection setup failed", "remote_addr", remote, "error", errText(err))
		_ = tcp.Close()
		return
	}

	r.register(c)
}

func (s *Server) newSwapper() (sw *Swapper, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Errorf("swapper factory panic: %v", p)
		}
	}()

	if sw = s.factory(); sw == nil {
		return nil, ErrInvalidSwapper
	}
	return sw, nil
}

// acceptor is the reactor handle of the listening socket.
type acceptor struct {
	server  *Server
	reactor *reactor
	fd      int
}

func newAcceptor(s *Server, r *reactor) (*acceptor, error) {
	raw, err := s.listener.SyscallConn()
	if err != nil {
		return nil, transportError("syscall conn", err)
	}

	fd, err := descriptor(raw)
	if err != nil {
		return nil, transportError("descriptor", err)
	}

	return &acceptor{server: s, reactor: r, fd: fd}, nil
}

func (a *acceptor) descriptor() int {
	return a.fd
}

func (a *acceptor) interest() interest {
	return interestRead
}

func (a *acceptor) start() bool {
	return true
}

func (a *acceptor) onReady() bool {
	for i := 0; i < maxAcceptsPerEvent; i++ {
		tcp, err := acceptNonblocking(a.server.listener)
		if iox.IsWouldBlock(err) {
			return true
		}
		if err != nil {
			a.server.logger.Warn("accept error", "error", errText(err))
			return true
		}
		a.server.accept(a.reactor, tcp)
	}
	return true
}

func (a *acceptor) shutdown(error) error {
	return a.server.listener.Close()
}
