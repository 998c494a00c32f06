package teachers

import (
	"bufio"
	"context"
	"fmt"
	"net/mail"
	"os"

	"github.com/spf13/cobra"

	"github.com/schooltrack/attendapi/internal/auth"
	"github.com/schooltrack/attendapi/internal/config"
	"github.com/schooltrack/attendapi/internal/db/bunx"
	"github.com/schooltrack/attendapi/internal/db/models"
	"github.com/schooltrack/attendapi/internal/repository"
)

var createCmd = &cobra.Command{
	Use:   "create [username]",
	Short: "Create a new teacher account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]

		if nameFlag == "" {
			return fmt.Errorf("--name flag is required")
		}
		if emailFlag == "" {
			return fmt.Errorf("--email flag is required")
		}

		password := passwordFlag
		if stdinFlag {
			// Read password from stdin
			scanner := bufio.NewScanner(os.Stdin)
			fmt.Print("Enter password: ")
			if scanner.Scan() {
				password = scanner.Text()
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
		}
		if password == "" {
			return fmt.Errorf("password is required (use --password or --stdin)")
		}

		if _, err := mail.ParseAddress(emailFlag); err != nil {
			return fmt.Errorf("invalid email format: %w", err)
		}

		role := models.Role(roleFlag)
		if !role.IsValid() {
			return fmt.Errorf("invalid role %q", roleFlag)
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := bunx.NewDB(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)

		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}

		teacher := &models.Teacher{
			Username:     username,
			PasswordHash: hash,
			Name:         nameFlag,
			Email:        emailFlag,
			Role:         role,
		}

		teacherRepo := repository.NewBunTeacherRepository(db)
		if err := teacherRepo.Create(context.Background(), teacher); err != nil {
			return fmt.Errorf("failed to create teacher: %w", err)
		}

		fmt.Printf("Created teacher %q (id %d, role %s)\n", teacher.Username, teacher.ID, teacher.Role)
		return nil
	},
}
