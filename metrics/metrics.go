// Package metrics exports swapsocket connection activity as Prometheus metrics.
//
// A Collector is plugged into a client or server through its listener
// options and registered like any other prometheus.Collector:
//
//	c := metrics.New("swapsocket")
//	prometheus.MustRegister(c)
//	srv, err := socket.New(addr, factory, c.Options()...)
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	socket "github.com/Zereker/swapsocket"
)

// Disconnect cause labels.
const (
	CauseGraceful      = "graceful"
	CausePeerClosed    = "peer_closed"
	CauseTimeout       = "timeout"
	CauseFraming       = "framing"
	CauseFrameTooLarge = "frame_too_large"
	CauseTransport     = "transport"
	CauseShutdown      = "shutdown"
	CauseOther         = "other"
)

// Collector counts sessions, frames and bytes seen by listener callbacks.
type Collector struct {
	accepted    prometheus.Counter
	framesSent  prometheus.Counter
	bytesSent   prometheus.Counter
	framesRecv  prometheus.Counter
	bytesRecv   prometheus.Counter
	disconnects *prometheus.CounterVec
	shutdowns   prometheus.Counter
}

// New creates a Collector whose metric names start with namespace.
func New(namespace string) *Collector {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		})
	}

	return &Collector{
		accepted:   counter("sessions_accepted_total", "Connections accepted by servers."),
		framesSent: counter("frames_sent_total", "Frames fully written."),
		bytesSent:  counter("bytes_sent_total", "Bytes of fully written frames."),
		framesRecv: counter("frames_received_total", "Frames fully read."),
		bytesRecv:  counter("bytes_received_total", "Bytes of fully read frames."),
		disconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "disconnects_total",
			Help:      "Terminated connections by cause.",
		}, []string{"cause"}),
		shutdowns: counter("server_shutdowns_total", "Server loops that stopped."),
	}
}

// Options returns the listener options feeding the collector.
func (c *Collector) Options() []socket.Option {
	return []socket.Option{
		socket.OnAcceptOption(func(string) {
			c.accepted.Inc()
		}),
		socket.OnSendOption(func(_ string, n int) {
			c.framesSent.Inc()
			c.bytesSent.Add(float64(n))
		}),
		socket.OnReceiveOption(func(_ string, msg *socket.Message) {
			c.framesRecv.Inc()
			c.bytesRecv.Add(float64(msg.Size()))
		}),
		socket.OnDisconnectOption(func(_ string, cause error) {
			c.disconnects.WithLabelValues(Cause(cause)).Inc()
		}),
		socket.OnShutdownOption(func() {
			c.shutdowns.Inc()
		}),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.collectors() {
		m.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, m := range c.collectors() {
		m.Collect(ch)
	}
}

func (c *Collector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.accepted, c.framesSent, c.bytesSent,
		c.framesRecv, c.bytesRecv, c.disconnects, c.shutdowns,
	}
}

// Cause maps a disconnect cause to its metric label.
func Cause(err error) string {
	switch {
	case err == nil:
		return CauseGraceful
	case errors.Is(err, socket.ErrPeerClosed):
		return CausePeerClosed
	case errors.Is(err, socket.ErrTimeout):
		return CauseTimeout
	case errors.Is(err, socket.ErrFrameTooLarge):
		return CauseFrameTooLarge
	case errors.Is(err, socket.ErrFraming):
		return CauseFraming
	case errors.Is(err, socket.ErrTransport):
		return CauseTransport
	case errors.Is(err, socket.ErrReactorClosed):
		return CauseShutdown
	default:
		return CauseOther
	}
}
