package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/community-in-go/pkg/config"
	"github.com/doodlesbykumbi/community-in-go/pkg/db"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the database",
	Long:  `Manage the database schema and migrations.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'db' requires a subcommand (migrate, down, status)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
}

// connect opens the application database for the admin commands, logging SQL
// when the configured level is debug.
func connect() (*gorm.DB, error) {
	level := ""
	if cfg, err := config.Load(); err == nil {
		level = cfg.LogLevel
	}
	return db.Connect(db.Config{LogLevel: level})
}
