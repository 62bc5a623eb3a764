package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	socket "github.com/Zereker/swapsocket"
)

var (
	pingRounds int
	pingText   string
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Exchange frames with an echo server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := socket.NewClient(cfg.Addr,
			socket.LoggerOption(logger),
			socket.MaxFrameSize(cfg.MaxFrameSize),
			socket.TimeoutOption(cfg.Timeout),
		)

		out := cmd.OutOrStdout()
		var sent time.Time
		swap := func(s *socket.Swapper, remote string, last *socket.Message) (*socket.Message, error) {
			if last != nil {
				text, err := last.GetString()
				if err != nil {
					return nil, err
				}
				fmt.Fprintf(out, "%s: %q round=%d time=%s\n", remote, text, s.Rounds()-1, time.Since(sent))
			}

			msg := socket.NewMessage()
			if err := msg.PutString(pingText); err != nil {
				return nil, err
			}
			sent = time.Now()
			return msg, nil
		}

		sw := socket.Once(swap)
		if pingRounds > 1 {
			sw = socket.FixedRepeat(pingRounds, swap)
		}

		last, err := client.Start(cmd.Context(), sw)
		if err != nil {
			return err
		}

		text, err := last.GetString()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %q round=%d time=%s\n", client.Addr(), text, sw.Rounds(), time.Since(sent))
		return nil
	},
}

func init() {
	pingCmd.Flags().IntVar(&pingRounds, "rounds", 1, "rounds to exchange")
	pingCmd.Flags().StringVar(&pingText, "message", "ping", "text to send each round")
	rootCmd.AddCommand(pingCmd)
}
