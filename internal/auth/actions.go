package auth

// Casbin policy objects. Policies are keyed on the account role tag; the
// class-scoped half of authorization (CT/ST derivation) never goes through
// Casbin and lives in the roster service instead.
const (
	// ObjectAdmin guards the admin-only surface (teacher management, class
	// assignment, destructive attendance operations).
	ObjectAdmin = "admin"

	// ObjectStudents guards student registration.
	ObjectStudents = "students"

	// ObjectAttendance guards manual attendance marking.
	ObjectAttendance = "attendance"
)

// Casbin policy actions.
const (
	ActionManage   = "manage"
	ActionRegister = "register"
	ActionMark     = "mark"
)
