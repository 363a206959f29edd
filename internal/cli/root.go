// Package cli implements the rolodex command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/spf13/cobra"

	"github.com/roach88/rolodex/internal/config"
	"github.com/roach88/rolodex/internal/service"
	"github.com/roach88/rolodex/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
	DataDir    string
	Database   string

	// Resolved in PersistentPreRunE.
	Config config.Config
	Logger *slog.Logger

	// Getenv overrides the environment lookup; tests set it.
	Getenv func(string) string

	once     sync.Once
	manager  *store.Manager
	contacts *service.Contacts
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the rolodex CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rolodex",
		Short: "rolodex - contacts from every source, merged",
		Long: `A local contact store that merges what several sources know about the
same person into one identity, and ranks contacts by recent activity.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.resolve(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.close()
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default <data-dir>/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "directory holding the databases (default ~/.rolodex)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "database name (default \"contacts\")")

	cmd.AddCommand(NewFindCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewMergedCommand(opts))
	cmd.AddCommand(NewMergeSaveCommand(opts))
	cmd.AddCommand(NewActivityCommand(opts))
	cmd.AddCommand(NewScoreCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// resolve loads configuration, applies flag overrides and sets up logging.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	logLevel := slog.LevelInfo
	if o.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	o.Logger = slog.New(handler)

	cfg, err := config.Load(config.Sources{
		File:    o.ConfigFile,
		DataDir: o.DataDir,
		Getenv:  o.Getenv,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.DataDir != "" {
		cfg.DataDir = o.DataDir
	}
	if o.Database != "" {
		cfg.Database = o.Database
	}
	o.Config = cfg

	o.Logger.Debug("config resolved", "dataDir", cfg.DataDir, "database", cfg.Database, "schemaVersion", cfg.SchemaVersion)
	return nil
}

// Contacts returns the service for the resolved database, creating it on
// first use.
func (o *RootOptions) Contacts() *service.Contacts {
	o.once.Do(func() {
		o.manager = store.NewManager(o.Config.DataDir, store.Options{Logger: o.Logger})
		o.contacts = service.New(o.manager, service.Config{
			Database:       o.Config.Database,
			SchemaVersion:  o.Config.SchemaVersion,
			MergedCacheTTL: o.Config.MergedCacheTTL,
			Logger:         o.Logger,
		})
	})
	return o.contacts
}

func (o *RootOptions) close() error {
	if o.manager == nil {
		return nil
	}
	if err := o.manager.Close(); err != nil {
		o.Logger.Error("error closing database", "error", err)
		return WrapExitError(ExitCommandError, "failed to close database", err)
	}
	return nil
}

// formatter returns an OutputFormatter writing to cmd's streams.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// Execute runs the CLI with args and returns the process exit code. Errors
// are reported on stdout as a JSON response with --format json, otherwise
// on stderr.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	// Post-run hooks are skipped when a command fails.
	_ = opts.close()

	f := &OutputFormatter{Format: opts.Format, Writer: stderr, Verbose: opts.Verbose}
	if opts.Format == "json" {
		f.Writer = stdout
	}
	code, message, details := describeError(err)
	if writeErr := f.Error(code, message, details); writeErr != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return GetExitCode(err)
}
