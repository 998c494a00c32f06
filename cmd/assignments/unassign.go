package assignments

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schooltrack/attendapi/internal/config"
	"github.com/schooltrack/attendapi/internal/db/bunx"
	"github.com/schooltrack/attendapi/internal/repository"
	"github.com/schooltrack/attendapi/internal/services/roster"
)

var unassignCmd = &cobra.Command{
	Use:   "unassign [username] [class]",
	Short: "Remove a teacher from a class",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		username, className := args[0], args[1]

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := bunx.NewDB(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)

		ctx := context.Background()
		teacherRepo := repository.NewBunTeacherRepository(db)
		rosterSvc := roster.NewService(teacherRepo, repository.NewBunAssignmentRepository(db))

		teacher, err := teacherRepo.GetByUsername(ctx, username)
		if err != nil {
			return fmt.Errorf("failed to look up teacher: %w", err)
		}
		if teacher == nil {
			return fmt.Errorf("no teacher with username %q", username)
		}

		if err := rosterSvc.Remove(ctx, teacher.ID, className); err != nil {
			return err
		}

		fmt.Printf("Removed %q from %q\n", username, className)
		return nil
	},
}
