package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/puremath/internal/app"
	configapp "github.com/doeshing/puremath/internal/application/config"
	"github.com/doeshing/puremath/internal/domain"
	configinfra "github.com/doeshing/puremath/internal/infrastructure/config"
)

// NewConfigCommand creates the config command with all subcommands
func NewConfigCommand(container *app.Container) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect PuReMath configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfiguration(cmd.Context(), cmd.OutOrStdout(), container)
		},
	}

	configCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the effective configuration (secrets omitted)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return showConfiguration(cmd.Context(), cmd.OutOrStdout(), container)
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the configuration file path",
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), container.ConfigLoader.Path())
				return nil
			},
		},
		&cobra.Command{
			Use:   "validate",
			Short: "Validate configuration and required secrets",
			RunE: func(cmd *cobra.Command, args []string) error {
				return validateConfiguration(cmd.Context(), cmd.OutOrStdout(), container)
			},
		},
		&cobra.Command{
			Use:   "diff",
			Short: "Show differences from the default configuration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return diffConfiguration(cmd.Context(), cmd.OutOrStdout(), container)
			},
		},
	)

	return configCmd
}

func loadConfiguration(ctx context.Context, container *app.Container) (domain.Config, error) {
	cfg, err := container.ConfigLoader.Load(ctx)
	if err != nil {
		return domain.Config{}, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func showConfiguration(ctx context.Context, out io.Writer, container *app.Container) error {
	cfg, err := loadConfiguration(ctx, container)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

func validateConfiguration(ctx context.Context, out io.Writer, container *app.Container) error {
	cfg, err := loadConfiguration(ctx, container)
	if err != nil {
		return err
	}
	if err := configapp.Validate(cfg); err != nil {
		return err
	}
	fmt.Fprintln(out, MsgConfigurationValid)
	return nil
}

func diffConfiguration(ctx context.Context, out io.Writer, container *app.Container) error {
	cfg, err := loadConfiguration(ctx, container)
	if err != nil {
		return err
	}
	defaults, err := configinfra.Defaults()
	if err != nil {
		return err
	}
	// secrets come from the environment, not the file
	cfg.Secrets = domain.Secrets{}

	if diff := cmp.Diff(defaults, cfg); diff != "" {
		fmt.Fprintln(out, "--- default\n+++ current")
		fmt.Fprint(out, diff)
		return nil
	}
	fmt.Fprintln(out, MsgNoDifferencesFromDefault)
	return nil
}
