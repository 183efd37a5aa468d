package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/taoyao-code/aks-gateway/internal/protocol/aks"
	"github.com/taoyao-code/aks-gateway/internal/reader"
)

func newStatusCmd(o *connOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether the reader answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, s *reader.Session, addr byte) error {
				ok, err := s.CheckStatus(ctx, addr)
				if err != nil {
					return err
				}
				if ok {
					fmt.Fprintf(cmd.OutOrStdout(), "reader %d at %s: ok\n", addr, s.Endpoint())
					return nil
				}
				return fmt.Errorf("reader %d at %s: no valid response", addr, s.Endpoint())
			})
		},
	}
}

func newReadCardCmd(o *connOptions) *cobra.Command {
	var (
		watch    bool
		interval time.Duration
		ack      bool
	)
	cmd := &cobra.Command{
		Use:   "read-card",
		Short: "Read the current card or the oldest offline log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, s *reader.Session, addr byte) error {
				for {
					ev, ok, err := s.ReadCard(ctx, addr)
					switch {
					case reader.KindOf(err) == reader.KindTimeout && watch:
					case err != nil:
						return err
					case !ok:
						fmt.Fprintln(cmd.OutOrStdout(), "no response")
					default:
						printEvent(cmd, ev)
						if ev.Kind == aks.EventOfflineLog && ack {
							if err := s.AckLog(ctx, addr); err != nil {
								return err
							}
						}
					}
					if !watch {
						return nil
					}
					select {
					case <-ctx.Done():
						return nil
					case <-time.After(interval):
					}
				}
			})
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep polling until interrupted")
	cmd.Flags().DurationVar(&interval, "interval", 200*time.Millisecond, "poll interval with --watch")
	cmd.Flags().BoolVar(&ack, "ack", false, "acknowledge offline logs so the reader deletes them")
	return cmd
}

func printEvent(cmd *cobra.Command, ev aks.CardEvent) {
	out := cmd.OutOrStdout()
	switch ev.Kind {
	case aks.EventNoCard:
		fmt.Fprintln(out, "no card")
	case aks.EventCardPresent:
		fmt.Fprintf(out, "card %s port %s\n", ev.CardID, ev.Port)
	case aks.EventOfflineLog:
		fmt.Fprintf(out, "offline log card %s port %s at %s extra %s\n",
			ev.CardID, ev.Port, ev.At.Format(time.RFC3339), ev.Extra)
	}
}

func newClockCmd(o *connOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clock",
		Short: "Read or set the reader clock",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the reader clock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, s *reader.Session, addr byte) error {
				t, ok, err := s.GetDeviceClock(ctx, addr)
				if err != nil {
					return err
				}
				if !ok {
					return errors.New("reader returned no readable clock")
				}
				fmt.Fprintln(cmd.OutOrStdout(), t.Format(time.RFC3339))
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set [RFC3339 time]",
		Short: "Set the reader clock (defaults to now)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at := time.Now()
			if len(args) == 1 {
				var err error
				if at, err = time.Parse(time.RFC3339, args[0]); err != nil {
					return fmt.Errorf("invalid time %q: %w", args[0], err)
				}
			}
			return o.run(cmd, func(ctx context.Context, s *reader.Session, addr byte) error {
				ok, err := s.SetDeviceClock(ctx, addr, at)
				if err != nil {
					return err
				}
				if !ok {
					return errors.New("reader rejected the clock")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "clock set to %s\n", at.In(s.Location()).Format(time.RFC3339))
				return nil
			})
		},
	})
	return cmd
}

func newRawCmd(o *connOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "raw <command> [param]",
		Short: "Send a command by name (read_card) or number (11)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ok := aks.ParseCommand(args[0])
			if !ok {
				return fmt.Errorf("unknown command %q", args[0])
			}
			var param string
			if len(args) == 2 {
				param = args[1]
			}
			return o.run(cmd, func(ctx context.Context, s *reader.Session, addr byte) error {
				resp, err := s.SendRawCommand(ctx, addr, byte(c), param)
				if err != nil {
					return err
				}
				if !resp.OK {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: no response\n", c)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", c, resp.Data)
				return nil
			})
		},
	}
}

func newCountCmd(o *connOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "count <cards|logs>",
		Short:     "Count stored cards or pending offline logs",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"cards", "logs"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, s *reader.Session, addr byte) error {
				count := s.CardCount
				if args[0] == "logs" {
					count = s.LogCount
				}
				n, err := count(ctx, addr)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
}
