package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/rolodex/internal/api"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the contact store over HTTP",
		Long: `Serve the contact store as a JSON HTTP API until interrupted.

Examples:
  rolodex serve
  rolodex serve --listen 127.0.0.1:9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := rootOpts.Config.Listen
			if cmd.Flags().Changed("listen") {
				addr = listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Open before listening so a bad database fails fast.
			svc := rootOpts.Contacts()
			if _, err := svc.Store(ctx); err != nil {
				return failed("failed to open database", err)
			}

			srv := api.NewServer(api.NewHandler(svc), addr, rootOpts.Logger)
			if err := srv.Run(ctx); err != nil {
				return WrapExitError(ExitCommandError, "server failed", err)
			}
			rootOpts.Logger.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "address to listen on (default from config, 127.0.0.1:8420)")

	return cmd
}
