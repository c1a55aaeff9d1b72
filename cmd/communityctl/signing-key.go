package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/community-in-go/pkg/token"
)

// signingKeyCmd represents the signing-key command
var signingKeyCmd = &cobra.Command{
	Use:   "signing-key",
	Short: "Manage the token signing key",
	Long:  `Manage the key that signs access tokens and storage URLs.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'signing-key' requires a subcommand (generate)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

// signingKeyGenerateCmd represents the signing-key generate command
var signingKeyGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a signing key",
	Long: `Generate a random signing key and write it to STDOUT, base64 encoded.

Set it as COMMUNITY_SIGNING_KEY for the server. Changing the key invalidates
every issued token and signed URL.

Example:
  communityctl signing-key generate > signing_key
  export COMMUNITY_SIGNING_KEY=$(cat signing_key)`,
	Run: func(cmd *cobra.Command, args []string) {
		key, err := token.GenerateKey()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate signing key: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(key)
	},
}

func init() {
	rootCmd.AddCommand(signingKeyCmd)
	signingKeyCmd.AddCommand(signingKeyGenerateCmd)
}
