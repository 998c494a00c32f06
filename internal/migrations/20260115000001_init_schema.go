package migrations

import (
	"context"
	"fmt"

	casbinbunadapter "github.com/schooltrack/attendapi/internal/auth/bunadapter"
	"github.com/schooltrack/attendapi/internal/db/models"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(up_20260115000001, down_20260115000001)
}

// up_20260115000001 initializes the full database schema
func up_20260115000001(ctx context.Context, db *bun.DB) error {
	// 1. Create teachers table
	fmt.Print(" [up] creating teachers table...")
	_, err := db.NewCreateTable().
		Model((*models.Teacher)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create teachers table: %w", err)
	}
	fmt.Println(" OK")

	// 2. Create teacher_classes table
	fmt.Print(" [up] creating teacher_classes table...")
	q := db.NewCreateTable().
		Model((*models.ClassAssignment)(nil)).
		IfNotExists()

	// For SQLite, define FKs during table creation
	if IsSQLite(db) {
		q = q.ForeignKey(`(teacher_id) REFERENCES teachers(id) ON DELETE CASCADE`)
	}
	_, err = q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create teacher_classes table: %w", err)
	}

	// One row per pairing; re-assignment is an upsert against this index.
	_, err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_teacher_classes_unique_pair
		ON teacher_classes(teacher_id, class_name)
	`)
	if err != nil {
		return fmt.Errorf("failed to create unique index on (teacher_id, class_name): %w", err)
	}

	// Partial unique indexes back the one-CT-per-teacher and one-CT-per-class
	// rules at the storage level. The roster service checks them first to
	// produce friendly errors; these catch anything that races past it.
	_, err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_teacher_classes_ct_per_teacher
		ON teacher_classes(teacher_id) WHERE is_class_teacher
	`)
	if err != nil {
		return fmt.Errorf("failed to create unique index on class-teacher per teacher: %w", err)
	}
	_, err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_teacher_classes_ct_per_class
		ON teacher_classes(class_name) WHERE is_class_teacher
	`)
	if err != nil {
		return fmt.Errorf("failed to create unique index on class-teacher per class: %w", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_teacher_classes_class ON teacher_classes(class_name)`)
	if err != nil {
		return fmt.Errorf("failed to create index on class_name: %w", err)
	}
	fmt.Println(" OK")

	// 3. Create sessions table
	fmt.Print(" [up] creating sessions table...")
	q = db.NewCreateTable().
		Model((*models.Session)(nil)).
		IfNotExists()
	if IsSQLite(db) {
		q = q.ForeignKey(`(teacher_id) REFERENCES teachers(id) ON DELETE CASCADE`)
	}
	_, err = q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create sessions table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at)`)
	if err != nil {
		return fmt.Errorf("failed to create index on expires_at: %w", err)
	}
	fmt.Println(" OK")

	// 4. Create students table
	fmt.Print(" [up] creating students table...")
	_, err = db.NewCreateTable().
		Model((*models.Student)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create students table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_students_class ON students(class_name)`)
	if err != nil {
		return fmt.Errorf("failed to create index on students class_name: %w", err)
	}
	fmt.Println(" OK")

	// 5. Create attendance table
	fmt.Print(" [up] creating attendance table...")
	_, err = db.NewCreateTable().
		Model((*models.AttendanceRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create attendance table: %w", err)
	}

	// Scans from unregistered cards keep student_id NULL, so no FK here.
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_attendance_card ON attendance(card_id)`)
	if err != nil {
		return fmt.Errorf("failed to create index on attendance card_id: %w", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_attendance_class_ts ON attendance(class_name, timestamp)`)
	if err != nil {
		return fmt.Errorf("failed to create index on attendance (class_name, timestamp): %w", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_attendance_student ON attendance(student_id)`)
	if err != nil {
		return fmt.Errorf("failed to create index on attendance student_id: %w", err)
	}
	fmt.Println(" OK")

	// 6. Create casbin_rules table
	fmt.Print(" [up] creating casbin_rules table...")
	_, err = db.NewCreateTable().
		Model((*casbinbunadapter.CasbinRule)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create casbin_rules table: %w", err)
	}

	_, err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_casbin_rules_unique
		ON casbin_rules(ptype, v0, v1, v2)
	`)
	if err != nil {
		return fmt.Errorf("failed to create unique index on casbin_rules: %w", err)
	}
	fmt.Println(" OK")

	return nil
}

// down_20260115000001 drops the full schema
func down_20260115000001(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [down] dropping all tables...")

	tables := []string{"casbin_rules", "attendance", "students", "sessions", "teacher_classes", "teachers"}
	for _, table := range tables {
		_, err := db.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %s`, table))
		if err != nil {
			return fmt.Errorf("failed to drop %s table: %w", table, err)
		}
	}
	fmt.Println(" OK")

	return nil
}
