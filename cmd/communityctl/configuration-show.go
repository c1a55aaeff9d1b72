package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/community-in-go/pkg/config"
)

// configurationShowCmd represents the configuration show command
var configurationShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show configuration attributes and their sources",
	Long: `Show configuration attributes and where each value came from
(default, file or environment).

Values are read from the config file and environment of this process, so a
running server may still hold older values until its next reload.

Config file location: /etc/community/config/community.yml (or COMMUNITY_CONFIG_PATH)

Example:
  communityctl configuration show
  communityctl configuration show --output json
  communityctl configuration show --attribute storage_buckets`,
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")
		attribute, _ := cmd.Flags().GetString("attribute")

		if err := showConfiguration(output, attribute); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to show configuration: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	configurationCmd.AddCommand(configurationShowCmd)
	configurationShowCmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	configurationShowCmd.Flags().StringP("attribute", "a", "", "Print only the value of one attribute")
}

func showConfiguration(output, attribute string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	if attribute != "" {
		for _, a := range cfg.Attributes() {
			if a.Name == attribute {
				fmt.Println(a.Value)
				return nil
			}
		}
		return fmt.Errorf("unknown attribute %q", attribute)
	}

	switch output {
	case "json":
		out, err := cfg.FormatJSON()
		if err != nil {
			return err
		}
		fmt.Println(out)
	case "text", "":
		fmt.Print(cfg.FormatText())
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
	return nil
}
