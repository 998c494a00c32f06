package teachers

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/schooltrack/attendapi/internal/config"
	"github.com/schooltrack/attendapi/internal/db/bunx"
	"github.com/schooltrack/attendapi/internal/repository"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List teacher accounts with their class assignments",
	RunE: func(cmd *cobra.Command, args []string) error {
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
		assignmentRepo := repository.NewBunAssignmentRepository(db)

		teachers, err := teacherRepo.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list teachers: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "USERNAME\tNAME\tROLE\tCLASSES\tLAST_LOGIN")
		for _, t := range teachers {
			assignments, err := assignmentRepo.GetByTeacher(ctx, t.ID)
			if err != nil {
				return fmt.Errorf("failed to list assignments for %q: %w", t.Username, err)
			}
			classes := "-"
			if len(assignments) > 0 {
				classes = ""
				for i, a := range assignments {
					if i > 0 {
						classes += ", "
					}
					classes += a.ClassName
					if a.IsClassTeacher {
						classes += " (CT)"
					}
				}
			}
			lastLogin := "never"
			if t.LastLoginAt != nil {
				lastLogin = t.LastLoginAt.Format("2006-01-02 15:04")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.Username, t.Name, t.Role, classes, lastLogin)
		}
		return w.Flush()
	},
}
