package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	socket "github.com/Zereker/swapsocket"
)

// newSwapper returns a swapper that answers the received integer plus one
// and stops after five rounds.
func newSwapper() *socket.Swapper {
	return socket.FixedRepeat(5, func(_ *socket.Swapper, remote string, last *socket.Message) (*socket.Message, error) {
		n, err := last.GetInt32()
		if err != nil {
			return nil, err
		}

		reply := socket.NewMessage()
		if err = reply.PutInt32(n + 1); err != nil {
			return nil, err
		}
		return reply, nil
	})
}

func main() {
	addr, err := net.ResolveTCPAddr("tcp", "127.0.0.1:12345")
	if err != nil {
		panic(err)
	}

	server, err := socket.New(addr, newSwapper,
		socket.OnAcceptOption(func(remote string) {
			slog.Info("session accepted", "remote_addr", remote)
		}),
		socket.OnDisconnectOption(func(remote string, cause error) {
			if cause != nil {
				slog.Info("session failed", "remote_addr", remote, "error", cause.Error())
				return
			}
			slog.Info("session ended", "remote_addr", remote)
		}),
	)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		return
	}

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		slog.Info("shutting down server...")
		cancel()
	}()

	slog.Info("server start", "addr", addr.String())
	if err := server.Serve(ctx); err != nil && err != context.Canceled {
		slog.Error("server error", "error", err)
	}
}
