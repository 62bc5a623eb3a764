package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	socket "github.com/Zereker/swapsocket"
	"github.com/Zereker/swapsocket/metrics"
)

var (
	serveRounds int
	metricsAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run an echo server",
	Long: `Run a server that answers every frame with the items it received.
--rounds must match the rounds of the connecting clients.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := net.ResolveTCPAddr("tcp", cfg.Addr)
		if err != nil {
			return err
		}

		opts := []socket.Option{
			socket.LoggerOption(logger),
			socket.MaxFrameSize(cfg.MaxFrameSize),
			socket.OnDisconnectOption(func(remote string, cause error) {
				if cause != nil {
					logger.Warn("session failed", "remote_addr", remote, "error", cause.Error())
				}
			}),
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if metricsAddr != "" {
			collector := metrics.New("swapsocket")
			reg := prometheus.NewRegistry()
			if err = reg.Register(collector); err != nil {
				return err
			}
			opts = append(opts, collector.Options()...)

			stopMetrics := serveMetrics(metricsAddr, reg)
			defer stopMetrics()
		}

		srv, err := socket.New(addr, echoFactory(serveRounds), opts...)
		if err != nil {
			return err
		}

		err = srv.Serve(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

// echoFactory returns swappers that echo for the given number of rounds.
func echoFactory(rounds int) socket.SwapperFactory {
	return func() *socket.Swapper {
		if rounds <= 1 {
			return socket.Once(socket.Echo)
		}
		return socket.FixedRepeat(rounds, socket.Echo)
	}
}

// serveMetrics exposes reg on addr until the returned function is called.
func serveMetrics(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	hs := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("metrics listening", "addr", addr)
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hs.Shutdown(ctx)
	}
}

func init() {
	serveCmd.Flags().IntVar(&serveRounds, "rounds", 1, "rounds per connection")
	serveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on (disabled when empty)")
	rootCmd.AddCommand(serveCmd)
}
