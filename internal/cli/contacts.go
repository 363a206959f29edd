package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/rolodex/internal/contact"
	"github.com/roach88/rolodex/internal/query"
	"github.com/roach88/rolodex/internal/service"
)

// FindOptions holds flags for the find command.
type FindOptions struct {
	*RootOptions
	Fields       []string
	Filters      []string
	Search       string
	SearchFields []string
}

// NewFindCommand creates the find command.
func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FindOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Find contacts by filter or search",
		Long: `Find stored contacts.

A filter is an ordered list of field=value terms that must all match
exactly. A search matches a case-insensitive substring in any of the
search fields. With neither, every contact is listed.

Examples:
  rolodex find
  rolodex find --filter familyName=Doe --filter givenName=Jane
  rolodex find --search jan --search-field displayName --search-field emails
  rolodex find --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(opts, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Fields, "field", nil, "field to return (repeatable, default all)")
	cmd.Flags().StringArrayVar(&opts.Filters, "filter", nil, "field=value term (repeatable)")
	cmd.Flags().StringVar(&opts.Search, "search", "", "case-insensitive search text")
	cmd.Flags().StringArrayVar(&opts.SearchFields, "search-field", nil, "field to search (repeatable)")

	return cmd
}

func runFind(opts *FindOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	fo, err := findOptionsFromFlags(opts.Filters, cmd.Flags().Changed("search"), opts.Search, opts.SearchFields)
	if err != nil {
		return failed("invalid query", err)
	}
	fields := opts.Fields
	if len(fields) == 0 {
		fields = contact.Fields
	}

	recs, err := opts.Contacts().Find(ctx, fields, fo)
	if err != nil {
		return failed("failed to find contacts", err)
	}

	return opts.formatter(cmd).Success(recs, func(w io.Writer) {
		writeRecords(w, recs)
	})
}

func findOptionsFromFlags(filters []string, hasSearch bool, search string, searchFields []string) (service.FindOptions, error) {
	var fo service.FindOptions
	if len(filters) > 0 {
		f, err := query.ParseFilter(filters)
		if err != nil {
			return fo, err
		}
		fo.Filter = f
	}
	if hasSearch {
		fo.Search = &query.Search{Query: search, Fields: searchFields}
	}
	return fo, nil
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := rootOpts.Contacts().GetByID(cmd.Context(), args[0])
			if err != nil {
				return failed("failed to get contact", err)
			}
			return rootOpts.formatter(cmd).Success(rec, func(w io.Writer) {
				writeRecordDetail(w, rec)
			})
		},
	}
}

// RecordOptions holds flags for create and update.
type RecordOptions struct {
	*RootOptions
	JSON string
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a contact",
		Long: `Create a contact from a JSON record. The id is optional and is
generated when missing.

Examples:
  rolodex create --json '{"properties":{"name":{"givenName":"Jane","familyName":"Doe"}}}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := parseRecord(opts.JSON)
			if err != nil {
				return err
			}
			stored, err := opts.Contacts().Create(cmd.Context(), rec)
			if err != nil {
				return failed("failed to create contact", err)
			}
			return opts.formatter(cmd).Success(stored, func(w io.Writer) {
				fmt.Fprintf(w, "Created %s\n", stored.ID)
			})
		},
	}

	cmd.Flags().StringVar(&opts.JSON, "json", "", "contact record as JSON (required)")
	_ = cmd.MarkFlagRequired("json")

	return cmd
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Replace a contact's properties",
		Long: `Replace the properties of an existing contact. The record must carry
the id of the contact to update.

Examples:
  rolodex update --json '{"id":"c-1","properties":{"displayName":"Jane D."}}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := parseRecord(opts.JSON)
			if err != nil {
				return err
			}
			stored, err := opts.Contacts().Update(cmd.Context(), rec)
			if err != nil {
				return failed("failed to update contact", err)
			}
			return opts.formatter(cmd).Success(stored, func(w io.Writer) {
				fmt.Fprintf(w, "Updated %s\n", stored.ID)
			})
		},
	}

	cmd.Flags().StringVar(&opts.JSON, "json", "", "contact record as JSON (required)")
	_ = cmd.MarkFlagRequired("json")

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "delete <id>... | --all",
		Short: "Delete contacts, or everything",
		Long: `Delete one or more contacts by id in a single transaction.

If any id does not exist nothing is deleted. With --all every contact and
activity is removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := rootOpts.formatter(cmd)

			if all {
				if len(args) > 0 {
					return NewExitError(ExitCommandError, "--all takes no id")
				}
				if err := rootOpts.Contacts().DeleteAll(ctx); err != nil {
					return failed("failed to delete contacts", err)
				}
				return out.Success(map[string]bool{"deletedAll": true}, func(w io.Writer) {
					fmt.Fprintln(w, "Deleted all contacts and activities")
				})
			}

			if len(args) == 0 {
				return NewExitError(ExitCommandError, "delete requires at least one id")
			}
			if err := rootOpts.Contacts().DeleteMany(ctx, args); err != nil {
				return failed("failed to delete contacts", err)
			}
			return out.Success(map[string][]string{"deleted": args}, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted %s\n", strings.Join(args, ", "))
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "delete every contact and activity")

	return cmd
}

func parseRecord(data string) (contact.Record, error) {
	var rec contact.Record
	dec := json.NewDecoder(strings.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rec); err != nil {
		return contact.Record{}, WrapExitError(ExitCommandError, "invalid --json record",
			contact.E(contact.InvalidArgument, "parse record", err))
	}
	return rec, nil
}

// displayLabel is the best short name for a contact.
func displayLabel(p contact.Properties) string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	if len(p.Emails) > 0 {
		return p.Emails[0].Value
	}
	return "(unnamed)"
}

func writeRecords(w io.Writer, recs []contact.Record) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No contacts found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tFRECENCY")
	for _, r := range recs {
		email := ""
		if len(r.Properties.Emails) > 0 {
			email = r.Properties.Emails[0].Value
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", r.ID, displayLabel(r.Properties), email, r.Frecency)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d contact(s)\n", len(recs))
}

func writeRecordDetail(w io.Writer, r contact.Record) {
	fmt.Fprintf(w, "%s\n", displayLabel(r.Properties))
	fmt.Fprintf(w, "  ID: %s\n", r.ID)
	fmt.Fprintf(w, "  Published: %s\n", contact.FormatTime(r.Published))
	fmt.Fprintf(w, "  Updated: %s\n", contact.FormatTime(r.Updated))
	writeEntries(w, "Email", r.Properties.Emails)
	writeEntries(w, "Phone", r.Properties.PhoneNumbers)
	for _, a := range r.Properties.Accounts {
		fmt.Fprintf(w, "  Account: %s\n", a.Key())
	}
	if len(r.Sources) > 0 {
		fmt.Fprintf(w, "  Sources: %s\n", strings.Join(r.Sources, ", "))
	}
	if r.Frecency > 0 {
		fmt.Fprintf(w, "  Frecency: %d\n", r.Frecency)
	}
}

func writeEntries(w io.Writer, label string, entries []contact.Entry) {
	for _, e := range entries {
		if e.Type != "" {
			fmt.Fprintf(w, "  %s (%s): %s\n", label, e.Type, e.Value)
			continue
		}
		fmt.Fprintf(w, "  %s: %s\n", label, e.Value)
	}
}
