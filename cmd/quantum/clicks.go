package main

import (
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"quantum-redirect/internal/redirect/domain"
	"quantum-redirect/internal/redirect/repository/sqlite"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func newClicksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clicks",
		Short: "Inspect the click ledger (sqlite sink)",
	}
	cmd.AddCommand(newClicksShowCommand(), newClicksCountCommand())
	return cmd
}

// withClickLedger runs fn against the SQLite click ledger of the configured database.
func withClickLedger(fn func(*sqlite.ClickLedger) error) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.logger.Sync()

	db, err := openDatabase(rt.cfg.Database, rt.logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(sqlite.NewClickLedger(db))
}

func newClicksShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <click-id>",
		Short: "Print the recorded progress of one click",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClickLedger(func(l *sqlite.ClickLedger) error {
				events, err := l.EventsByClickID(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if len(events) == 0 {
					return fmt.Errorf("no events recorded for click %s", args[0])
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "RECORDED\tSTATE\tMETADATA")
				for _, e := range events {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", e.RecordedAt.Format(time.RFC3339Nano), e.State, formatMetadata(e.Metadata))
				}
				return tw.Flush()
			})
		},
	}
}

func newClicksCountCommand() *cobra.Command {
	var (
		state string
		since time.Duration
	)
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count clicks that reached a state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := domain.ParseState(state)
			if err != nil {
				return err
			}
			return withClickLedger(func(l *sqlite.ClickLedger) error {
				to := time.Now()
				n, err := l.CountByState(cmd.Context(), s, to.Add(-since), to)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", s, n)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&state, "state", string(domain.StateComplete), "protocol state to count")
	cmd.Flags().DurationVar(&since, "since", 24*time.Hour, "look-back window")
	return cmd
}

func formatMetadata(md map[string]string) string {
	pairs := lo.MapToSlice(md, func(k, v string) string { return k + "=" + v })
	sort.Strings(pairs)
	return fmt.Sprint(pairs)
}
