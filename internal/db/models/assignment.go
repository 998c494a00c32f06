package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ClassAssignment binds a teacher to a class with a CT/ST flag.
//
// Invariants enforced by the roster service (and backed by partial unique
// indexes in the schema):
//   - at most one row per (teacher_id, class_name); re-assigning overwrites
//   - a teacher holds at most one row with is_class_teacher = true
//   - a class has at most one row with is_class_teacher = true
//   - admin accounts hold no rows at all
type ClassAssignment struct {
	bun.BaseModel `bun:"table:teacher_classes,alias:tc"`

	ID             int64     `bun:"id,pk,autoincrement" json:"id"`
	TeacherID      int64     `bun:"teacher_id,notnull" json:"teacher_id"`
	ClassName      string    `bun:"class_name,notnull" json:"class_name"`
	IsClassTeacher bool      `bun:"is_class_teacher,notnull,default:false" json:"is_class_teacher"`
	AssignedAt     time.Time `bun:"assigned_at,notnull,default:current_timestamp" json:"assigned_at"`

	// TeacherName is populated by queries that join the teachers table.
	TeacherName string `bun:"teacher_name,scanonly" json:"teacher_name,omitempty"`
}
