package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"quantum-redirect/internal/redirect/repository/sqlite"
	"quantum-redirect/internal/redirect/usecase"

	"github.com/spf13/cobra"
)

func newLinksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links",
		Short: "Manage short links",
	}
	cmd.AddCommand(
		newLinksAddCommand(),
		newLinksStatusCommand("disable", "Stop routing a short link", (*usecase.LinkService).Disable),
		newLinksStatusCommand("enable", "Resume routing a short link", (*usecase.LinkService).Enable),
		newLinksListCommand(),
	)
	return cmd
}

// withLinks runs fn against a link service backed by the configured database.
func withLinks(fn func(*usecase.LinkService) error) error {
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

	return fn(usecase.NewLinkService(sqlite.NewLinkRepository(db), rt.logger))
}

func newLinksAddCommand() *cobra.Command {
	var code string
	cmd := &cobra.Command{
		Use:   "add <destination-url>",
		Short: "Create a short link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLinks(func(svc *usecase.LinkService) error {
				link, err := svc.CreateLink(cmd.Context(), args[0], code)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", link.ShortCode, link.DestinationURL)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "custom short code (generated when empty)")
	return cmd
}

func newLinksStatusCommand(use, short string, apply func(*usecase.LinkService, context.Context, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <short-code>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLinks(func(svc *usecase.LinkService) error {
				if err := apply(svc, cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %sd\n", args[0], use)
				return nil
			})
		},
	}
}

func newLinksListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List short links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLinks(func(svc *usecase.LinkService) error {
				links, err := svc.List(cmd.Context())
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "CODE\tSTATUS\tCREATED\tDESTINATION")
				for _, l := range links {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.ShortCode, l.Status, l.CreatedAt.Format("2006-01-02 15:04"), l.DestinationURL)
				}
				return tw.Flush()
			})
		},
	}
}
