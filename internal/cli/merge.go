package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/rolodex/internal/contact"
)

// MergedOptions holds flags for the merged command.
type MergedOptions struct {
	*RootOptions
	Filters      []string
	Search       string
	SearchFields []string
}

// NewMergedCommand creates the merged command.
func NewMergedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MergedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "merged",
		Short: "Show contacts merged into identities",
		Long: `Merge the selected contacts into identities. Two contacts belong to the
same identity when they share an email address or an account, directly or
through other contacts. Contacts with neither are matched by display name.

Nothing is written; use merge-save to persist the identities.

Examples:
  rolodex merged
  rolodex merged --filter familyName=Doe --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fo, err := findOptionsFromFlags(opts.Filters, cmd.Flags().Changed("search"), opts.Search, opts.SearchFields)
			if err != nil {
				return failed("invalid query", err)
			}
			merged, err := opts.Contacts().GetMerged(cmd.Context(), fo)
			if err != nil {
				return failed("failed to merge contacts", err)
			}
			return opts.formatter(cmd).Success(merged, func(w io.Writer) {
				writeMerged(w, merged)
			})
		},
	}

	cmd.Flags().StringArrayVar(&opts.Filters, "filter", nil, "field=value term (repeatable)")
	cmd.Flags().StringVar(&opts.Search, "search", "", "case-insensitive search text")
	cmd.Flags().StringArrayVar(&opts.SearchFields, "search-field", nil, "field to search (repeatable)")

	return cmd
}

// NewMergeSaveCommand creates the merge-save command.
func NewMergeSaveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "merge-save",
		Short: "Merge every contact and store the identities",
		Long: `Merge every stored contact and save each identity as a record whose id
is derived from its source keys. Saving again after new imports updates
the same records.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			saved, err := rootOpts.Contacts().MergeAll(cmd.Context())
			if err != nil {
				return failed("failed to save merged contacts", err)
			}
			return rootOpts.formatter(cmd).Success(saved, func(w io.Writer) {
				fmt.Fprintf(w, "Saved %d merged contact(s)\n", len(saved))
			})
		},
	}
}

func writeMerged(w io.Writer, merged []contact.MergedContact) {
	if len(merged) == 0 {
		fmt.Fprintln(w, "No contacts found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tEMAILS\tSOURCES")
	for _, m := range merged {
		fmt.Fprintf(tw, "%s\t%s\t%s\n",
			displayLabel(m.Properties),
			strings.Join(m.Properties.EmailValues(), ", "),
			strings.Join(m.Sources, ", "))
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d identit(ies)\n", len(merged))
}
