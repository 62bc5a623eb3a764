package socket

import (
	"time"
)

// Default configuration values.
const (
	// defaultMaxFrameSize is the default upper bound of one frame (16MB).
	defaultMaxFrameSize = 16 * 1024 * 1024
	// defaultTimeout is how long a client waits for readiness without progress.
	defaultTimeout = 30 * time.Second
	// defaultDialTimeout bounds the blocking connect of a client.
	defaultDialTimeout = 10 * time.Second
)

// options holds the configuration shared by clients and servers.
type options struct {
	logger    Logger
	listeners Listeners

	maxFrameSize int           // maximum size of a single frame, header included
	timeout      time.Duration // client readiness wait without progress
	dialTimeout  time.Duration // client connect timeout
}

// Option is a function that configures a Client or a Server.
type Option func(*options)

// checkOptions sets default values for unset options.
func checkOptions(opts *options) {
	if opts.maxFrameSize == 0 {
		opts.maxFrameSize = defaultMaxFrameSize
	}

	if opts.timeout <= 0 {
		opts.timeout = defaultTimeout
	}

	if opts.dialTimeout <= 0 {
		opts.dialTimeout = defaultDialTimeout
	}

	if opts.logger == nil {
		opts.logger = defaultLogger()
	}
}

func buildOptions(opt []Option) options {
	var opts options
	for _, o := range opt {
		o(&opts)
	}
	checkOptions(&opts)
	return opts
}

// MaxFrameSize returns an Option that sets the maximum frame size.
// Every item also counts a small fixed overhead against the limit.
// Incoming headers announcing a larger frame terminate the connection
// before any item buffer is allocated. Zero keeps the default and a
// negative size disables the limit.
func MaxFrameSize(size int) Option {
	return func(o *options) {
		o.maxFrameSize = size
	}
}

// TimeoutOption returns an Option that sets how long a client waits for
// its connection to become ready before failing with ErrTimeout.
func TimeoutOption(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// DialTimeoutOption returns an Option that bounds the client connect.
func DialTimeoutOption(timeout time.Duration) Option {
	return func(o *options) {
		o.dialTimeout = timeout
	}
}

// LoggerOption returns an Option that sets the logger.
// If not set, the default slog logger will be used.
func LoggerOption(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// OnAcceptOption adds a callback invoked when a server accepts a connection.
func OnAcceptOption(cb AcceptListener) Option {
	return func(o *options) {
		o.listeners.Accept = append(o.listeners.Accept, cb)
	}
}

// OnSendOption adds a callback invoked after each fully written frame.
func OnSendOption(cb SendListener) Option {
	return func(o *options) {
		o.listeners.Send = append(o.listeners.Send, cb)
	}
}

// OnReceiveOption adds a callback invoked for each fully read frame.
func OnReceiveOption(cb ReceiveListener) Option {
	return func(o *options) {
		o.listeners.Receive = append(o.listeners.Receive, cb)
	}
}

// OnDisconnectOption adds a callback invoked when a connection terminates.
func OnDisconnectOption(cb DisconnectListener) Option {
	return func(o *options) {
		o.listeners.Disconnect = append(o.listeners.Disconnect, cb)
	}
}

// OnShutdownOption adds a callback invoked once when a server stops
// serving, including when Serve is refused because Close came first.
func OnShutdownOption(cb ShutdownListener) Option {
	return func(o *options) {
		o.listeners.Shutdown = append(o.listeners.Shutdown, cb)
	}
}
