package metrics

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	socket "github.com/Zereker/swapsocket"
)

func TestCause(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, CauseGraceful},
		{socket.ErrPeerClosed, CausePeerClosed},
		{errors.Wrap(socket.ErrPeerClosed, "truncated item"), CausePeerClosed},
		{socket.ErrTimeout, CauseTimeout},
		{socket.ErrFrameTooLarge, CauseFrameTooLarge},
		{errors.Wrap(socket.ErrFraming, "bad header"), CauseFraming},
		{&socket.TransportError{Op: "read", Err: errors.New("reset")}, CauseTransport},
		{socket.ErrReactorClosed, CauseShutdown},
		{errors.New("boom"), CauseOther},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Cause(tt.err), "cause of %v", tt.err)
	}
}

func TestCollector_Register(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(New("test")))
}

func TestCollector_CountsExchange(t *testing.T) {
	server := New("server")
	client := New("client")

	addr := &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0}
	srv, err := socket.New(addr, func() *socket.Swapper {
		return socket.Once(socket.Echo)
	}, server.Options()...)
	require.NoError(t, err)

	done := srv.Start(context.Background())

	msg := socket.NewMessage()
	require.NoError(t, msg.PutString("ping"))

	c := socket.NewClient(srv.Addr().String(), append(client.Options(), socket.TimeoutOption(5*time.Second))...)
	reply, err := c.Send(context.Background(), msg)
	require.NoError(t, err)

	got, err := reply.GetString()
	require.NoError(t, err)
	assert.Equal(t, "ping", got)

	require.NoError(t, srv.Close())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = done.Wait(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(client.framesSent))
	assert.Equal(t, 1.0, testutil.ToFloat64(client.framesRecv))
	assert.Equal(t, float64(msg.Size()), testutil.ToFloat64(client.bytesSent))
	assert.Equal(t, 1.0, testutil.ToFloat64(client.disconnects.WithLabelValues(CauseGraceful)))

	assert.Equal(t, 1.0, testutil.ToFloat64(server.accepted))
	assert.Equal(t, 1.0, testutil.ToFloat64(server.framesRecv))
	assert.Equal(t, 1.0, testutil.ToFloat64(server.framesSent))
	assert.Equal(t, 1.0, testutil.ToFloat64(server.shutdowns))
}
