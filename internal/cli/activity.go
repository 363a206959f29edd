package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/rolodex/internal/contact"
)

// NewActivityCommand creates the activity command group.
func NewActivityCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Record and list activity events",
	}

	cmd.AddCommand(newActivityAddCommand(rootOpts))
	cmd.AddCommand(newActivityRecentCommand(rootOpts))

	return cmd
}

func newActivityAddCommand(rootOpts *RootOptions) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add activity events",
		Long: `Add activity events from a JSON array. Events are keyed by date and
title; adding the same event again replaces it.

Examples:
  rolodex activity add --json '[{"date":"2011-06-01T12:00:00Z","title":"lunch","author":"jane@example.com"}]'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var acts []contact.Activity
			dec := json.NewDecoder(strings.NewReader(data))
			dec.DisallowUnknownFields()
			if err := dec.Decode(&acts); err != nil {
				return WrapExitError(ExitCommandError, "invalid --json activities",
					contact.E(contact.InvalidArgument, "parse activities", err))
			}

			n, err := rootOpts.Contacts().AddActivities(cmd.Context(), acts)
			if err != nil {
				return failed("failed to add activities", err)
			}
			return rootOpts.formatter(cmd).Success(map[string]int{"added": n}, func(w io.Writer) {
				fmt.Fprintf(w, "Added %d activit(ies)\n", n)
			})
		},
	}

	cmd.Flags().StringVar(&data, "json", "", "JSON array of events (required)")
	_ = cmd.MarkFlagRequired("json")

	return cmd
}

func newActivityRecentCommand(rootOpts *RootOptions) *cobra.Command {
	var since, until, author string

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List activity events, newest first",
		Long: `List activity events, newest first. --since is inclusive and --until
exclusive; both take RFC 3339 timestamps.

Examples:
  rolodex activity recent --since 2011-06-01T00:00:00Z --author jane@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := contact.ActivityFilter{Author: author}
			var err error
			if since != "" {
				if f.Since, err = contact.ParseTime(since); err != nil {
					return WrapExitError(ExitCommandError, "invalid --since", err)
				}
			}
			if until != "" {
				if f.Until, err = contact.ParseTime(until); err != nil {
					return WrapExitError(ExitCommandError, "invalid --until", err)
				}
			}

			acts, err := rootOpts.Contacts().RecentActivity(cmd.Context(), f)
			if err != nil {
				return failed("failed to list activities", err)
			}
			return rootOpts.formatter(cmd).Success(acts, func(w io.Writer) {
				writeActivities(w, acts)
			})
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "only events at or after this time")
	cmd.Flags().StringVar(&until, "until", "", "only events before this time")
	cmd.Flags().StringVar(&author, "author", "", "only events by this author")

	return cmd
}

func writeActivities(w io.Writer, acts []contact.Activity) {
	if len(acts) == 0 {
		fmt.Fprintln(w, "No activity found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTITLE\tAUTHOR")
	for _, a := range acts {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", contact.FormatTime(a.Date), a.Title, a.Author)
	}
	tw.Flush()
}
