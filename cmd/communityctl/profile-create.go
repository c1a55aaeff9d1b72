package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	storegorm "github.com/doodlesbykumbi/community-in-go/pkg/server/store/gorm"
	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
)

// profileCreateCmd represents the profile create command
var profileCreateCmd = &cobra.Command{
	Use:   "create <company> <login>",
	Short: "Create a profile",
	Long: `Create a profile in a company.

The new profile's API key is written to STDOUT.

Example:
  communityctl profile create acme alice
  communityctl profile create acme bob --role moderator`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		roleName, _ := cmd.Flags().GetString("role")

		apiKey, err := createProfile(args[0], args[1], roleName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create profile: %v\n", err)
			os.Exit(1)
		}

		fmt.Fprintf(os.Stderr, "Created profile '%s' in '%s'\n", args[1], args[0])
		fmt.Printf("API key for %s: %s\n", args[1], apiKey)
	},
}

func init() {
	profileCmd.AddCommand(profileCreateCmd)
	profileCreateCmd.Flags().StringP("role", "r", string(model.RoleMember), "Role (member, moderator, admin, owner)")
}

func createProfile(slug, login, roleName string) ([]byte, error) {
	role, err := model.ParseRole(roleName)
	if err != nil {
		return nil, err
	}

	database, err := connect()
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	companies := storegorm.NewCompaniesStore(database)
	company, err := companies.GetCompany(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("company '%s': %w", slug, err)
	}

	_, apiKey, err := companies.CreateProfile(ctx, tenant.ID(company.ID), login, role)
	return apiKey, err
}
