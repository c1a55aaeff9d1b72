package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/community-in-go/pkg/errs"
)

// profileCmd represents the profile command
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage profiles",
	Long:  `Manage the profiles of a company.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'profile' requires a subcommand (create, rotate-key)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
}

// describeValidation flattens field errors into one line.
func describeValidation(err error) error {
	var he *errs.HTTPError
	if !errors.As(err, &he) || len(he.Errors) == 0 {
		return err
	}
	msgs := make([]string, len(he.Errors))
	for i, fe := range he.Errors {
		msgs[i] = fe.Field + " " + fe.Error
	}
	return errors.New(strings.Join(msgs, ", "))
}
