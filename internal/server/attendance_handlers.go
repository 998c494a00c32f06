package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/schooltrack/attendapi/internal/auth"
	"github.com/schooltrack/attendapi/internal/services/attendance"
	"github.com/schooltrack/attendapi/internal/services/guard"
)

type scanRequest struct {
	CardID    string `json:"card_id"`
	Timestamp string `json:"timestamp,omitempty"`
}

// HandleScan records a badge scan from a reader. The endpoint is
// unauthenticated: readers are dumb devices on the school network, and an
// unknown card still produces a record.
func HandleScan(attendanceSvc *attendance.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scanRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.CardID == "" {
			respondError(w, http.StatusBadRequest, "card_id is required")
			return
		}

		at := time.Now()
		if req.Timestamp != "" {
			parsed, err := time.Parse(time.RFC3339, req.Timestamp)
			if err != nil {
				respondError(w, http.StatusBadRequest, "timestamp must be RFC 3339")
				return
			}
			at = parsed
		}

		result, err := attendanceSvc.RecordScan(r.Context(), req.CardID, at)
		if err != nil {
			respondServiceError(w, err)
			return
		}

		message := "Attendance recorded"
		if !result.Known {
			message = "Unknown card recorded"
		}
		respondSuccess(w, http.StatusOK, message, result)
	}
}

// HandleScannerTest lets a reader verify connectivity without writing data.
func HandleScannerTest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondSuccess(w, http.StatusOK, "Scanner endpoint reachable", map[string]string{
			"time": time.Now().Format(time.RFC3339),
		})
	}
}

type markRequest struct {
	StudentID int64  `json:"student_id"`
	Timestamp string `json:"timestamp,omitempty"`
}

// HandleMarkAttendance records attendance manually. Admins may mark anyone;
// class teachers only pupils of their own class.
func HandleMarkAttendance(guardSvc *guard.Service, attendanceSvc *attendance.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.GetIdentityFromContext(r.Context())
		if !ok {
			respondError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		var req markRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.StudentID == 0 {
			respondError(w, http.StatusBadRequest, "student_id is required")
			return
		}

		student, err := attendanceSvc.Student(r.Context(), req.StudentID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		if student == nil {
			respondError(w, http.StatusNotFound, "Student not found")
			return
		}

		if err := guardSvc.RequireCanMark(r.Context(), identity, student.ClassName); err != nil {
			respondServiceError(w, err)
			return
		}

		at := time.Now()
		if req.Timestamp != "" {
			parsed, err := time.Parse(time.RFC3339, req.Timestamp)
			if err != nil {
				respondError(w, http.StatusBadRequest, "timestamp must be RFC 3339")
				return
			}
			at = parsed
		}

		record, err := attendanceSvc.Mark(r.Context(), req.StudentID, at)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondSuccess(w, http.StatusCreated, "Attendance marked", record)
	}
}

// HandleClassAttendance serves the class view for the day containing the
// optional ?date=YYYY-MM-DD (default today). Class teachers and admins get
// the full record-and-absentee view; subject teachers get counts only.
func HandleClassAttendance(attendanceSvc *attendance.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		access, ok := auth.GetClassAccessFromContext(r.Context())
		if !ok {
			respondError(w, http.StatusForbidden, "Access denied")
			return
		}

		at := time.Now()
		if raw := r.URL.Query().Get("date"); raw != "" {
			parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
			if err != nil {
				respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
				return
			}
			at = parsed
		}

		if access.IsClassTeacher {
			detail, err := attendanceSvc.ClassDetail(r.Context(), access.ClassName, at)
			if err != nil {
				respondServiceError(w, err)
				return
			}
			respondSuccess(w, http.StatusOK, "", detail)
			return
		}

		summary, err := attendanceSvc.ClassSummary(r.Context(), access.ClassName, at)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondSuccess(w, http.StatusOK, "", summary)
	}
}

// HandleLatestAttendance returns the most recent records across all classes.
func HandleLatestAttendance(attendanceSvc *attendance.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := attendanceSvc.Latest(r.Context())
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondList(w, "", records, len(records))
	}
}

// HandleClearAttendance wipes the attendance table.
func HandleClearAttendance(attendanceSvc *attendance.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deleted, err := attendanceSvc.ClearAll(r.Context())
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondSuccess(w, http.StatusOK, fmt.Sprintf("Cleared %d record(s)", deleted), nil)
	}
}
