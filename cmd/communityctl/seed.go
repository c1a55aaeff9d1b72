package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/community-in-go/pkg/seed"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load company catalogs from YAML",
	Long:  `Load company catalogs (spaces, courses, trails, levels, items, groups, challenges, events) from YAML.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'seed' requires a subcommand (apply, watch)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func applySeed(ctx context.Context, loader *seed.Loader, path string) (*seed.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return loader.LoadFromReader(ctx, f)
}

func printSeedResult(result *seed.Result) {
	fmt.Printf("Company %s:\n", result.Company.Slug)
	for _, table := range result.Tables() {
		fmt.Printf("  %-24s created %d, updated %d\n", table, result.Created[table], result.Updated[table])
	}
}

func newSeedLoader(dryRun bool) (*seed.Loader, error) {
	database, err := connect()
	if err != nil {
		return nil, err
	}
	return seed.NewLoader(seed.NewGormStore(database), zerolog.Nop()).WithDryRun(dryRun), nil
}
