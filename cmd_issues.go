package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"mytown-issues/config"
	"mytown-issues/models"
	"mytown-issues/store"

	"github.com/spf13/cobra"
)

func newIssuesCommand(setup setupFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issues",
		Short: "Inspect stored issues",
	}
	cmd.AddCommand(newIssuesListCommand(setup))
	return cmd
}

func newIssuesListCommand(setup setupFunc) *cobra.Command {
	var filter models.IssueFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List issues matching the filters",
		Long: `List issues in store order. Filters match case-insensitively and "all"
disables a filter. With the memory backend the seed issues are listed.

Examples:
  mytown issues list --status "in progress"
  mytown issues list --category streetlight --priority high`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			b, err := openBackend(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = b.Close(context.Background()) }()

			if cfg.StoreBackend == config.BackendMemory {
				issues, err := loadSeed(cfg)
				if err != nil {
					return err
				}
				if _, err := store.Seed(ctx, b.Issues, issues); err != nil {
					return err
				}
			}

			issues, err := b.Issues.Filter(ctx, filter)
			if err != nil {
				return err
			}
			return printIssues(cmd.OutOrStdout(), issues)
		},
	}
	cmd.Flags().StringVar(&filter.Status, "status", "", "status to match")
	cmd.Flags().StringVar(&filter.Category, "category", "", "category to match")
	cmd.Flags().StringVar(&filter.Priority, "priority", "", "priority to match")
	cmd.Flags().StringVar(&filter.Search, "search", "", "text to find in title or description")
	return cmd
}

func printIssues(w io.Writer, issues []models.Issue) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tCATEGORY\tTITLE\tLOCATION")
	for _, issue := range issues {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			issue.ID, issue.Status, issue.Priority, issue.Category, issue.Title, issue.Location)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d issues\n", len(issues))
	return err
}
