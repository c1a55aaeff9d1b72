package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// seedApplyCmd represents the seed apply command
var seedApplyCmd = &cobra.Command{
	Use:   "apply <file>...",
	Short: "Apply seed files",
	Long: `Apply one or more seed files. Each file is applied in its own
transaction; entries that already exist are updated in place.

Example:
  communityctl seed apply seed/acme.yml
  communityctl seed apply --dry-run seed/*.yml`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		loader, err := newSeedLoader(dryRun)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to apply seed: %v\n", err)
			os.Exit(1)
		}

		for _, path := range args {
			result, err := applySeed(context.Background(), loader, path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to apply %s: %v\n", path, err)
				os.Exit(1)
			}
			printSeedResult(result)
		}
		if dryRun {
			fmt.Println("Dry run: no changes were saved")
		}
	},
}

func init() {
	seedCmd.AddCommand(seedApplyCmd)
	seedApplyCmd.Flags().Bool("dry-run", false, "report changes without saving them")
}
