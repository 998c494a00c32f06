package migrations

import (
	"context"
	"fmt"

	"github.com/schooltrack/attendapi/internal/auth"
	casbinbunadapter "github.com/schooltrack/attendapi/internal/auth/bunadapter"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(up_20260115000002, down_20260115000002)
}

// up_20260115000002 seeds the default Casbin capability policies
func up_20260115000002(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] seeding default Casbin policies...")

	// Role tags gate coarse capabilities only. Class scoping happens in the
	// guard service against roster assignments, never here.
	defaultPolicies := []casbinbunadapter.CasbinRule{
		// admin: everything
		{Ptype: "p", V0: "admin", V1: "*", V2: "*"},

		// class teachers: register pupils and mark attendance for their class
		{Ptype: "p", V0: "class_teacher", V1: auth.ObjectStudents, V2: auth.ActionRegister},
		{Ptype: "p", V0: "class_teacher", V1: auth.ObjectAttendance, V2: auth.ActionMark},
	}

	_, err := db.NewInsert().
		Model(&defaultPolicies).
		On("CONFLICT (ptype, v0, v1, v2) DO NOTHING"). // Idempotent
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed Casbin policies: %w", err)
	}
	fmt.Println(" OK")

	return nil
}

// down_20260115000002 removes the seeded policies
func down_20260115000002(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [down] removing seeded Casbin policies...")

	_, err := db.NewDelete().
		Model((*casbinbunadapter.CasbinRule)(nil)).
		Where("ptype = ?", "p").
		Where("v0 IN (?)", bun.In([]string{"admin", "class_teacher"})).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to remove seeded policies: %w", err)
	}
	fmt.Println(" OK")

	return nil
}
