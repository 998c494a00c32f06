package models

import (
	"errors"
	"time"

	"github.com/uptrace/bun"
)

// Role is the account-level role tag. It is informational for teachers:
// class-level authority is derived from ClassAssignment rows, not from this
// value. Only RoleAdmin grants blanket access by itself.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleTeacher        Role = "teacher"
	RoleClassTeacher   Role = "class_teacher"
	RoleSubjectTeacher Role = "subject_teacher"
)

// ValidRoles lists every role tag an account may carry.
var ValidRoles = []Role{RoleAdmin, RoleTeacher, RoleClassTeacher, RoleSubjectTeacher}

// IsValid reports whether r is a known role tag.
func (r Role) IsValid() bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Teacher represents an authenticatable account (admin or teaching staff).
type Teacher struct {
	bun.BaseModel `bun:"table:teachers,alias:t"`

	ID           int64      `bun:"id,pk,autoincrement" json:"id"`
	Username     string     `bun:"username,notnull,unique" json:"username"`
	PasswordHash string     `bun:"password_hash,notnull" json:"-"`
	Name         string     `bun:"name,notnull" json:"name"`
	Email        string     `bun:"email,notnull,unique" json:"email"`
	Role         Role       `bun:"role,notnull,default:'teacher'" json:"role"`
	CreatedAt    time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	LastLoginAt  *time.Time `bun:"last_login_at" json:"last_login_at,omitempty"`
}

// ValidateForCreate verifies the record is well formed before insertion.
func (t *Teacher) ValidateForCreate() error {
	if t.Username == "" {
		return errors.New("username is required")
	}
	if t.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	if t.Name == "" {
		return errors.New("name is required")
	}
	if t.Email == "" {
		return errors.New("email is required")
	}
	if !t.Role.IsValid() {
		return errors.New("unknown role")
	}
	return nil
}
