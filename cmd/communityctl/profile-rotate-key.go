package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	storegorm "github.com/doodlesbykumbi/community-in-go/pkg/server/store/gorm"
	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
)

// profileRotateKeyCmd represents the profile rotate-key command
var profileRotateKeyCmd = &cobra.Command{
	Use:   "rotate-key <company> <login>",
	Short: "Replace a profile's API key",
	Long: `Replace a profile's API key. The old key stops working immediately and
the new one is written to STDOUT.

Example:
  communityctl profile rotate-key acme admin`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		apiKey, err := rotateProfileKey(args[0], args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to rotate API key: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(string(apiKey))
	},
}

func init() {
	profileCmd.AddCommand(profileRotateKeyCmd)
}

func rotateProfileKey(slug, login string) ([]byte, error) {
	database, err := connect()
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	company, err := storegorm.NewCompaniesStore(database).GetCompany(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("company '%s': %w", slug, err)
	}
	return storegorm.NewAuthenticateStore(database).RotateAPIKey(ctx, tenant.ID(company.ID), login)
}
