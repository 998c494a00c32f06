package assignments

import "github.com/spf13/cobra"

var classTeacherFlag bool

// AssignmentsCmd is the parent command for class roster operations
var AssignmentsCmd = &cobra.Command{
	Use:   "assignments",
	Short: "Manage teacher-class assignments",
	Long:  `Commands for assigning teachers to classes directly from the server.`,
}

func init() {
	AssignmentsCmd.AddCommand(listCmd)
	AssignmentsCmd.AddCommand(assignCmd)
	assignCmd.Flags().BoolVar(&classTeacherFlag, "class-teacher", false, "Assign as class teacher instead of subject teacher")
	AssignmentsCmd.AddCommand(unassignCmd)
}
