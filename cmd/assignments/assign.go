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

var assignCmd = &cobra.Command{
	Use:   "assign [username] [class]",
	Short: "Assign a teacher to a class",
	Long: `Assigns a teacher to a class as subject teacher, or as class teacher
with --class-teacher. The class-teacher rules apply: one class teacher per
class, one class-teacher role per teacher.`,
	Args: cobra.ExactArgs(2),
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

		assignment, err := rosterSvc.Assign(ctx, teacher.ID, className, classTeacherFlag)
		if err != nil {
			return err
		}

		role := "subject teacher"
		if assignment.IsClassTeacher {
			role = "class teacher"
		}
		fmt.Printf("Assigned %q to %q as %s\n", username, assignment.ClassName, role)
		return nil
	},
}
