package compliance

import (
	"time"

	"PPEGuard/internal/entity"
)

// RecordInput is a finalized verdict handed to the recorder.
type RecordInput struct {
	SessionID       string
	SubjectID       string
	OrganizationID  string
	EquipmentStatus entity.EquipmentStatus
	PointsAwarded   int
	ComplianceTier  entity.ComplianceTier
	MissingItems    []entity.EquipmentClass
	RoundsCompleted int
	Reason          entity.FinalizeReason
	Evidence        []byte
	Timestamp       time.Time
}

type MarkOutcome string

const (
	MarkInserted      MarkOutcome = "inserted"
	MarkAlreadyMarked MarkOutcome = "already_marked"
)

// RecordResult reports what the recorder managed to persist. PartialWrite is
// set when the compliance record was stored but a follow-up write failed.
type RecordResult struct {
	RecordID     string
	Attendance   MarkOutcome
	PointsAdded  bool
	PartialWrite bool
	EvidenceURL  string
}

type FinalizeAttendanceRequest struct {
	End  bool   `json:"end"`
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

const (
	StatusNotEnded     = "Detection not ended yet"
	StatusNoAttendance = "No attendance records yet for today."
	StatusFinalized    = "Attendance finalized for today"
)

type ReconcileResult struct {
	Status         string `json:"status"`
	Date           string `json:"date,omitempty"`
	PresentCount   int    `json:"present_count"`
	AbsentCount    int    `json:"absent_count"`
	TotalEmployees int    `json:"total_employees"`
	FirstFinalize  bool   `json:"first_finalize"`
	InsertedAbsent int    `json:"inserted_absent"`
}

type AttendanceEntry struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	ImagePath  string `json:"image_path"`
	MarkedAt   string `json:"marked_at"`
	Present    bool   `json:"present"`
}

type TodayAttendanceResponse struct {
	Date       string            `json:"date"`
	Present    int               `json:"present_count"`
	Absent     int               `json:"absent_count"`
	Attendance []AttendanceEntry `json:"attendance"`
}
