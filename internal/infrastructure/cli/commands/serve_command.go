package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doeshing/puremath/internal/app"
)

// NewServeCommand creates the serve command, which runs the bot until
// interrupted.
func NewServeCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := container.Serve(cmd.Context()); err != nil {
				return fmt.Errorf("bot stopped: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Bot stopped.")
			return nil
		},
	}
}
