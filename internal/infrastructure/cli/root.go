package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/doeshing/puremath/internal/app"
	"github.com/doeshing/puremath/internal/infrastructure/cli/commands"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose    bool
	ConfigPath string
}

const configFlag = "config"

// ConfigPathFromArgs extracts --config from args. The container is built
// before cobra parses the command line, so the flag is read up front; every
// other flag is ignored here.
func ConfigPathFromArgs(args []string) string {
	fs := pflag.NewFlagSet("puremath", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	var path string
	fs.StringVar(&path, configFlag, "", "")
	_ = fs.Parse(args)
	return path
}

// NewRootCmd wires the cobra root command. The returned cleanup closes the
// container's stores.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, func(), error) {
	container, err := app.BuildContainer(ctx, app.Options{
		Verbose:    opts.Verbose,
		ConfigPath: opts.ConfigPath,
	})
	if err != nil {
		return nil, nil, err
	}

	root := &cobra.Command{
		Use:   "puremath",
		Short: "PuReMath - step-by-step math tutor bot for Telegram",
		Long: "PuReMath answers math questions sent to a Telegram bot with step-by-step\n" +
			"solutions rendered as an image and a PDF.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String(configFlag, opts.ConfigPath,
		"config file (default ~/.puremath/config.yaml or $PUREMATH_CONFIG)")

	root.AddCommand(
		commands.NewServeCommand(container),
		commands.NewRenderCommand(container),
		commands.NewCacheCommand(container),
		commands.NewHistoryCommand(container),
		commands.NewConfigCommand(container),
		commands.NewDoctorCommand(container),
		commands.NewVersionCommand(),
	)

	cleanup := func() { _ = container.Close() }
	return root, cleanup, nil
}
