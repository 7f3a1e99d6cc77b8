package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "serve",
		Short:         "Run the preview server",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rootOpts.formatter(cmd).VerboseLog("listening on %s", rootOpts.Config.Port)
			if err := a.Serve(ctx); err != nil {
				return WrapExitError(ExitFailure, "server stopped", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&rootOpts.Config.Port, "addr", "a", rootOpts.Config.Port, "listen address (ip:port)")

	return cmd
}
