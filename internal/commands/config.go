package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diogo/pagechat/internal/config"
)

// NewConfigCmd creates the config command
func NewConfigCmd(deps *Dependencies) *cobra.Command {
	var (
		backend bool
		save    bool
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Print the effective configuration as JSON.

The client configuration is read from ~/.pagechat/config.json, PAGECHAT_*
environment variables and the global flags. --save writes it back to the file.
--backend prints the server configuration 'pagechat serve' would use; secrets
are never printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if backend {
				return printServerConfig(deps)
			}
			return printClientConfig(deps, save)
		},
	}

	cmd.Flags().BoolVar(&backend, "backend", false, "Show the server configuration instead")
	cmd.Flags().BoolVar(&save, "save", false, "Write the effective client configuration to disk")
	return cmd
}

func printClientConfig(deps *Dependencies, save bool) error {
	cfg, err := loadClientConfig()
	if err != nil {
		return err
	}

	if save {
		if err := config.SaveConfig(cfg); err != nil {
			return err
		}
		configPath, _ := config.GetConfigPath()
		fmt.Fprintf(deps.Stderr, "Configuration saved to %s\n", configPath)
	}

	return writeJSON(deps, cfg)
}

func printServerConfig(deps *Dependencies) error {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		// Still show what was read so the missing piece is easy to spot
		fmt.Fprintf(deps.Stderr, "Warning: %v\n", err)
	}
	return writeJSON(deps, cfg)
}

func writeJSON(deps *Dependencies, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprintln(deps.Stdout, string(data))
	return nil
}
