package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "communityctl",
	Short: "Run and administer the community server",
	Long: `Run and administer the community server.

Companies, profiles and catalog seeds are managed directly against the
database named by DATABASE_URL.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
