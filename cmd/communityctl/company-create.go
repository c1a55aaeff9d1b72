package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	storegorm "github.com/doodlesbykumbi/community-in-go/pkg/server/store/gorm"
	"github.com/doodlesbykumbi/community-in-go/pkg/validation"
)

// companyCreateCmd represents the company create command
var companyCreateCmd = &cobra.Command{
	Use:   "create <slug>",
	Short: "Create a company",
	Long: `Create a company and its owner profile.

The slug is the company's name in every URL. It must be lowercase letters,
digits and dashes. The owner's API key is written to STDOUT.

Example:
  communityctl company create acme
  communityctl company create acme --name "Acme Inc" --owner admin`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		input := companyInput{Slug: args[0]}
		input.Name, _ = cmd.Flags().GetString("name")
		input.Owner, _ = cmd.Flags().GetString("owner")
		if input.Name == "" {
			input.Name = input.Slug
		}

		apiKey, err := createCompany(input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create company: %v\n", err)
			os.Exit(1)
		}

		fmt.Fprintf(os.Stderr, "Created new company '%s'\n", input.Slug)
		fmt.Printf("API key for %s: %s\n", input.Owner, apiKey)
	},
}

func init() {
	companyCmd.AddCommand(companyCreateCmd)
	companyCreateCmd.Flags().StringP("name", "n", "", "Display name (default: the slug)")
	companyCreateCmd.Flags().StringP("owner", "o", "admin", "Login of the owner profile")
}

type companyInput struct {
	Slug  string `json:"slug" validate:"required,slug"`
	Name  string `json:"name" validate:"required,max=200"`
	Owner string `json:"owner" validate:"required,max=100"`
}

func createCompany(input companyInput) ([]byte, error) {
	if err := validation.Struct(input); err != nil {
		return nil, describeValidation(err)
	}

	database, err := connect()
	if err != nil {
		return nil, err
	}

	_, apiKey, err := storegorm.NewCompaniesStore(database).
		CreateCompany(context.Background(), input.Slug, input.Name, input.Owner)
	if err != nil {
		return nil, err
	}
	return apiKey, nil
}
