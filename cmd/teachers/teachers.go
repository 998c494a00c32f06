package teachers

import "github.com/spf13/cobra"

var (
	nameFlag     string
	emailFlag    string
	passwordFlag string
	roleFlag     string
	stdinFlag    bool
)

// TeachersCmd is the parent command for teacher account operations
var TeachersCmd = &cobra.Command{
	Use:   "teachers",
	Short: "Manage teacher accounts",
	Long:  `Commands for managing teacher accounts directly from the server.`,
}

func init() {
	TeachersCmd.AddCommand(listCmd)
	TeachersCmd.AddCommand(createCmd)
	createCmd.Flags().StringVar(&nameFlag, "name", "", "Display name of the teacher")
	createCmd.Flags().StringVar(&emailFlag, "email", "", "Email address")
	createCmd.Flags().StringVar(&passwordFlag, "password", "", "Password (prefer --stdin)")
	createCmd.Flags().StringVar(&roleFlag, "role", "teacher", "Role tag (admin, teacher, class_teacher, subject_teacher)")
	createCmd.Flags().BoolVar(&stdinFlag, "stdin", false, "Read the password from stdin")
}
