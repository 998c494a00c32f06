package models

import (
	"time"

	"github.com/uptrace/bun"
)

// AttendanceRecord is a single badge scan. StudentID is nil when the badge
// was not registered at scan time; the raw card id is always kept so the
// record can be reconciled later.
type AttendanceRecord struct {
	bun.BaseModel `bun:"table:attendance,alias:a"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	CardID      string    `bun:"card_id,notnull" json:"card_id"`
	StudentID   *int64    `bun:"student_id" json:"student_id,omitempty"`
	StudentName string    `bun:"student_name" json:"student_name"`
	ClassName   string    `bun:"class_name" json:"class_name"`
	Timestamp   time.Time `bun:"timestamp,notnull" json:"timestamp"`
	RecordedAt  time.Time `bun:"recorded_at,notnull,default:current_timestamp" json:"recorded_at"`
}

// AttendanceStats aggregates the attendance table for the health endpoint.
type AttendanceStats struct {
	TotalRecords   int64      `bun:"total_records" json:"total_records"`
	UniqueStudents int64      `bun:"unique_students" json:"unique_students"`
	TodayCount     int64      `bun:"today_count" json:"today_count"`
	FirstRecord    *time.Time `bun:"first_record" json:"first_record,omitempty"`
	LastRecord     *time.Time `bun:"last_record" json:"last_record,omitempty"`
}
