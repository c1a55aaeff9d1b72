package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	storegorm "github.com/doodlesbykumbi/community-in-go/pkg/server/store/gorm"
)

// companyListCmd represents the company list command
var companyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List companies",
	Long: `List companies.

Example:
  communityctl company list
  communityctl company list --output json`,
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")

		if err := listCompanies(output); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list companies: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	companyCmd.AddCommand(companyListCmd)
	companyListCmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
}

func listCompanies(output string) error {
	database, err := connect()
	if err != nil {
		return err
	}

	companies, err := storegorm.NewCompaniesStore(database).ListCompanies(context.Background())
	if err != nil {
		return err
	}

	if output == "json" {
		out, err := json.MarshalIndent(companies, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SLUG\tNAME\tID\tCREATED")
	for _, c := range companies {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Slug, c.Name, c.ID, c.CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}
