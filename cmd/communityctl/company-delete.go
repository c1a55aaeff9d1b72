package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/community-in-go/pkg/config"
	"github.com/doodlesbykumbi/community-in-go/pkg/objectstore"
	storegorm "github.com/doodlesbykumbi/community-in-go/pkg/server/store/gorm"
	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
)

// companyDeleteCmd represents the company delete command
var companyDeleteCmd = &cobra.Command{
	Use:   "delete <slug>",
	Short: "Delete a company and all of its data",
	Long: `Delete a company and all of its data.

Every row owned by the company is removed, along with its stored objects.
This cannot be undone.

Example:
  communityctl company delete acme --yes`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		slug := args[0]
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			fmt.Fprintf(os.Stderr, "Refusing to delete '%s' without --yes\n", slug)
			os.Exit(1)
		}

		if err := deleteCompany(slug); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to delete company: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Deleted company '%s'\n", slug)
	},
}

func init() {
	companyCmd.AddCommand(companyDeleteCmd)
	companyDeleteCmd.Flags().Bool("yes", false, "confirm the deletion")
}

func deleteCompany(slug string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	database, err := connect()
	if err != nil {
		return err
	}

	ctx := context.Background()
	companies := storegorm.NewCompaniesStore(database)
	company, err := companies.GetCompany(ctx, slug)
	if err != nil {
		return err
	}
	if err := companies.DeleteCompany(ctx, slug); err != nil {
		return err
	}

	fs := objectstore.NewFS(cfg.StorageRoot, cfg.StorageMaxUploadBytes, cfg.StorageBuckets)
	if err := fs.RemoveCompany(tenant.ID(company.ID)); err != nil {
		return fmt.Errorf("company deleted but its objects were not: %w", err)
	}
	return nil
}
