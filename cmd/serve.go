package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/schooltrack/attendapi/internal/auth"
	"github.com/schooltrack/attendapi/internal/db/bunx"
	"github.com/schooltrack/attendapi/internal/db/models"
	"github.com/schooltrack/attendapi/internal/repository"
	"github.com/schooltrack/attendapi/internal/server"
	"github.com/schooltrack/attendapi/internal/services/attendance"
	"github.com/schooltrack/attendapi/internal/services/guard"
	"github.com/schooltrack/attendapi/internal/services/registry"
	"github.com/schooltrack/attendapi/internal/services/roster"
)

// sessionSweepInterval is how often the background sweeper deletes expired
// sessions. Authentication also purges lazily, so this only bounds how long
// dead rows linger on an idle server.
const sessionSweepInterval = time.Hour

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance API server",
	Long:  `Starts the HTTP server with the RFID scan, attendance and admin endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Connect to database
		db, err := bunx.NewDB(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)

		log.Printf("Connected to database")

		// Initialize repositories
		teacherRepo := repository.NewBunTeacherRepository(db)
		assignmentRepo := repository.NewBunAssignmentRepository(db)
		sessionRepo := repository.NewBunSessionRepository(db)
		studentRepo := repository.NewBunStudentRepository(db)
		attendanceRepo := repository.NewBunAttendanceRepository(db)

		enforcer, err := auth.InitEnforcer(db)
		if err != nil {
			return fmt.Errorf("configure casbin enforcer: %w", err)
		}

		// The card cache is shared: the scan path reads it, the student
		// registry invalidates it on every mutation.
		cardCache, err := attendance.NewCardCache(attendance.DefaultCardCacheSize)
		if err != nil {
			return fmt.Errorf("create card cache: %w", err)
		}

		// Initialize services
		rosterSvc := roster.NewService(teacherRepo, assignmentRepo)
		guardSvc := guard.NewService(teacherRepo, sessionRepo, rosterSvc, enforcer)
		attendanceSvc := attendance.NewService(studentRepo, attendanceRepo, cardCache)
		registrySvc := registry.NewService(studentRepo, cardCache)

		if err := bootstrapAdmin(cmd.Context(), teacherRepo); err != nil {
			return fmt.Errorf("bootstrap admin account: %w", err)
		}

		// Background sweep of expired sessions.
		sweepCtx, cancelSweep := context.WithCancel(cmd.Context())
		defer cancelSweep()
		go func() {
			ticker := time.NewTicker(sessionSweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					purged, err := sessionRepo.DeleteExpired(sweepCtx, time.Now())
					if err != nil {
						log.Printf("ERROR: session sweep failed: %v", err)
					} else if purged > 0 {
						log.Printf("Purged %d expired session(s)", purged)
					}
				case <-sweepCtx.Done():
					return
				}
			}
		}()

		r := server.NewRouter(server.RouterOptions{
			Guard:      guardSvc,
			Roster:     rosterSvc,
			Attendance: attendanceSvc,
			Registry:   registrySvc,
			Teachers:   teacherRepo,
			Students:   studentRepo,
		})

		// Create HTTP server
		srv := &http.Server{
			Addr:         cfg.ServerAddr,
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		// Start server in goroutine
		serverErrors := make(chan error, 1)
		go func() {
			log.Printf("Starting server on %s", cfg.ServerAddr)
			serverErrors <- srv.ListenAndServe()
		}()

		// Wait for interrupt signal
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			log.Printf("Received signal %v, shutting down gracefully", sig)

			// Graceful shutdown with timeout
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				srv.Close()
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}

			log.Printf("Server stopped")
			return nil
		}
	},
}

// bootstrapAdmin seeds the configured admin account when the teachers table
// is empty, so a fresh deployment can log in without manual SQL.
func bootstrapAdmin(ctx context.Context, teachers repository.TeacherRepository) error {
	count, err := teachers.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	admin := &models.Teacher{
		Username:     cfg.AdminUsername,
		PasswordHash: hash,
		Name:         "Administrator",
		Email:        cfg.AdminEmail,
		Role:         models.RoleAdmin,
	}
	if err := teachers.Create(ctx, admin); err != nil {
		return err
	}

	log.Printf("Seeded admin account %q", admin.Username)
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
