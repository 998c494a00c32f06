package server

import (
	"net/http"
	"time"

	"github.com/schooltrack/attendapi/internal/repository"
	"github.com/schooltrack/attendapi/internal/services/attendance"
)

type healthResponse struct {
	Status     string                 `json:"status"`
	Time       string                 `json:"time"`
	Teachers   int64                  `json:"teachers"`
	Students   int64                  `json:"students"`
	Attendance map[string]interface{} `json:"attendance"`
}

// HandleHealth reports liveness with database-backed counters, so a probe
// also proves storage is reachable.
func HandleHealth(teachers repository.TeacherRepository, students repository.StudentRepository, attendanceSvc *attendance.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teacherCount, err := teachers.Count(r.Context())
		if err != nil {
			respondError(w, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
		studentCount, err := students.Count(r.Context())
		if err != nil {
			respondError(w, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
		stats, err := attendanceSvc.Stats(r.Context())
		if err != nil {
			respondError(w, http.StatusServiceUnavailable, "Database unavailable")
			return
		}

		attendanceStats := map[string]interface{}{
			"total_records":   stats.TotalRecords,
			"unique_students": stats.UniqueStudents,
			"today_count":     stats.TodayCount,
		}
		if stats.FirstRecord != nil {
			attendanceStats["first_record"] = stats.FirstRecord.Format(time.RFC3339)
		}
		if stats.LastRecord != nil {
			attendanceStats["last_record"] = stats.LastRecord.Format(time.RFC3339)
		}

		respondSuccess(w, http.StatusOK, "", healthResponse{
			Status:     "ok",
			Time:       time.Now().Format(time.RFC3339),
			Teachers:   teacherCount,
			Students:   studentCount,
			Attendance: attendanceStats,
		})
	}
}
