package models

import (
	"errors"
	"time"

	"github.com/uptrace/bun"
)

// Student links an RFID badge to a pupil. CardID is the badge identifier
// reported by the reader and must be unique across the school.
type Student struct {
	bun.BaseModel `bun:"table:students,alias:st"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	CardID       string    `bun:"card_id,notnull,unique" json:"card_id"`
	Name         string    `bun:"name,notnull" json:"name"`
	ClassName    string    `bun:"class_name" json:"class_name"`
	RollNumber   string    `bun:"roll_number" json:"roll_number"`
	RegisteredAt time.Time `bun:"registered_at,notnull,default:current_timestamp" json:"registered_at"`
}

// ValidateForCreate verifies the record is well formed before insertion.
func (s *Student) ValidateForCreate() error {
	if s.CardID == "" {
		return errors.New("card_id is required")
	}
	if s.Name == "" {
		return errors.New("name is required")
	}
	return nil
}
