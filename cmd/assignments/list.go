package assignments

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/schooltrack/attendapi/internal/config"
	"github.com/schooltrack/attendapi/internal/db/bunx"
	"github.com/schooltrack/attendapi/internal/repository"
	"github.com/schooltrack/attendapi/internal/services/roster"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List class rosters",
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

		rosterSvc := roster.NewService(
			repository.NewBunTeacherRepository(db),
			repository.NewBunAssignmentRepository(db),
		)

		rosters, err := rosterSvc.GetAll(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list assignments: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CLASS\tCLASS_TEACHER\tSUBJECT_TEACHERS")
		for _, r := range rosters {
			ct := "-"
			if r.ClassTeacher != nil {
				ct = r.ClassTeacher.TeacherName
			}
			sts := "-"
			if len(r.SubjectTeachers) > 0 {
				sts = ""
				for i, st := range r.SubjectTeachers {
					if i > 0 {
						sts += ", "
					}
					sts += st.TeacherName
				}
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.ClassName, ct, sts)
		}
		return w.Flush()
	},
}
