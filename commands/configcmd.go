package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/facultyatlas/config"
)

func newConfigCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and initialize configuration",
	}
	cmd.AddCommand(newConfigShowCmd(root))
	cmd.AddCommand(newConfigInitCmd(root))
	return cmd
}

func newConfigShowCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Show prints the merged configuration: defaults, layered with the
user config and any project-level facultyatlas.yaml, or overridden
entirely by --config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(root.logLevel)
			cfg, err := loadConfig(root, logger)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
}

func newConfigInitCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the user config file with defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(root.logLevel)
			if err := config.NewLoader(logger).EnsureUserConfig(); err != nil {
				return fmt.Errorf("ensure user config: %w", err)
			}
			return nil
		},
	}
}
