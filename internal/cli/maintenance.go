package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/rolodex/internal/store"
)

// NewScoreCommand creates the score command.
func NewScoreCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "score",
		Short: "Recompute contact frecency from activity",
		Long: `Recompute every contact's frecency: the number of activity events
authored by one of the contact's email addresses. Contacts with no
events are reset to zero.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := rootOpts.Contacts().UpdateContactScoring(cmd.Context())
			if err != nil {
				return failed("failed to update scoring", err)
			}
			return rootOpts.formatter(cmd).Success(map[string]int{"scored": n}, func(w io.Writer) {
				fmt.Fprintf(w, "Scored %d contact(s)\n", n)
			})
		},
	}
}

// SchemaInfo describes the database schema.
type SchemaInfo struct {
	Database string `json:"database"`
	Version  int    `json:"version"`
	Latest   int    `json:"latest"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the database schema version",
		Long: `Open the database, migrating it to the configured schema version if
needed, and print the version stamped in the file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := rootOpts.Contacts().SchemaVersion(cmd.Context())
			if err != nil {
				return failed("failed to read schema version", err)
			}
			info := SchemaInfo{Database: rootOpts.Config.Database, Version: v, Latest: store.CurrentSchemaVersion}
			return rootOpts.formatter(cmd).Success(info, func(w io.Writer) {
				fmt.Fprintf(w, "%s: schema version %d (latest %d)\n", info.Database, info.Version, info.Latest)
			})
		},
	}
}
