package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/schooltrack/attendapi/cmd/assignments"
	"github.com/schooltrack/attendapi/cmd/teachers"
	"github.com/schooltrack/attendapi/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "attendapi",
	Short: "RFID attendance backend for schools",
	Long: `Attendance API Server records RFID card scans, keeps the student
register, and enforces class-teacher scoped access for teachers.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().String("db-url", "", "Database connection URL (env: DATABASE_URL)")
	rootCmd.PersistentFlags().String("server-addr", "", "Server bind address (env: SERVER_ADDR)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging (env: DEBUG)")

	// Add subcommands
	rootCmd.AddCommand(teachers.TeachersCmd)
	rootCmd.AddCommand(assignments.AssignmentsCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
