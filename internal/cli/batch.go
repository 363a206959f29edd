package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/rolodex/internal/contact"
	"github.com/roach88/rolodex/internal/ingest"
	"github.com/roach88/rolodex/internal/store"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Observations bool
}

// ImportResult summarizes an import.
type ImportResult struct {
	File         string `json:"file"`
	Contacts     int    `json:"contacts"`
	Observations int    `json:"observations"`
	Activities   int    `json:"activities"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import contacts, observations and activities from a JSON file",
		Long: `Import a batch file. The file is JSON and may contain comments and
trailing commas. It is validated as a whole before anything is stored.

Contacts are upserted by id. Observations (one source's view of a person,
keyed by source and id) are only imported with --observations; each is
stored as the record "source.id", replacing an earlier import of the same
key. Activities are upserted by date and title.

Exit codes:
  0 - Imported
  1 - The file is invalid
  2 - Command error (unreadable file or database)

Examples:
  rolodex import backup.json
  rolodex import gmail.jsonc --observations`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, cmd, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Observations, "observations", false, "import the observations section")

	return cmd
}

func runImport(opts *ImportOptions, cmd *cobra.Command, path string) error {
	ctx := cmd.Context()
	out := opts.formatter(cmd)

	b, err := ingest.ReadFile(path)
	if err != nil {
		return failed("failed to read batch", err)
	}
	if b.SchemaVersion > store.CurrentSchemaVersion {
		return failed("failed to read batch", contact.Errorf(contact.NotSupported, "import",
			"%s was written at schema version %d, newer than %d", path, b.SchemaVersion, store.CurrentSchemaVersion))
	}
	if len(b.Observations) > 0 && !opts.Observations {
		return NewExitError(ExitFailure, fmt.Sprintf("%s contains observations; pass --observations to import them", path))
	}
	out.VerboseLog("Importing %d contact(s), %d observation(s), %d activit(ies) from %s",
		len(b.Contacts), len(b.Observations), len(b.Activities), path)

	svc := opts.Contacts()
	result := ImportResult{File: path}

	if len(b.Contacts) > 0 {
		stored, err := svc.AddContacts(ctx, b.Contacts)
		if err != nil {
			return failed("failed to import contacts", err)
		}
		result.Contacts = len(stored)
	}
	if len(b.Observations) > 0 {
		stored, err := svc.AddObservations(ctx, b.Observations)
		if err != nil {
			return failed("failed to import observations", err)
		}
		result.Observations = len(stored)
	}
	if len(b.Activities) > 0 {
		n, err := svc.AddActivities(ctx, b.Activities)
		if err != nil {
			return failed("failed to import activities", err)
		}
		result.Activities = n
	}

	return out.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "Imported %d contact(s), %d observation(s), %d activit(ies) from %s\n",
			result.Contacts, result.Observations, result.Activities, path)
	})
}

// ExportResult summarizes an export.
type ExportResult struct {
	File       string `json:"file"`
	Contacts   int    `json:"contacts"`
	Activities int    `json:"activities"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Export every contact and activity to a JSON file",
		Long: `Write every contact and activity to a JSON file that import reads back.
The file is replaced atomically.

Examples:
  rolodex export backup.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			snap, err := rootOpts.Contacts().Export(cmd.Context())
			if err != nil {
				return failed("failed to read contacts", err)
			}
			b := ingest.Batch{
				SchemaVersion: snap.SchemaVersion,
				Contacts:      snap.Contacts,
				Activities:    snap.Activities,
			}
			if err := ingest.WriteFile(path, b); err != nil {
				return failed("failed to write export", err)
			}

			result := ExportResult{File: path, Contacts: len(b.Contacts), Activities: len(b.Activities)}
			return rootOpts.formatter(cmd).Success(result, func(w io.Writer) {
				fmt.Fprintf(w, "Exported %d contact(s) and %d activit(ies) to %s\n",
					result.Contacts, result.Activities, path)
			})
		},
	}
}
