package dashboard

import (
	"PPEGuard/internal/api/compliance"
	"PPEGuard/pkg/rollup"
)

const (
	// DailyTopN bounds the most non-compliant list on the daily view.
	DailyTopN = 5
	// DefaultTopN bounds the needing-improvement list on weekly and monthly views.
	DefaultTopN = 6
	MaxTopN     = 50

	StatusNoEmployees = "No employees found for this company"
)

type PeriodQuery struct {
	Anchor string `query:"anchor" validate:"omitempty,datetime=2006-01-02"`
	Top    int    `query:"top" validate:"omitempty,min=1,max=50"`
}

type DailyQuery struct {
	Date string `query:"date" validate:"omitempty,datetime=2006-01-02"`
}

type NonCompliantEmployee struct {
	EmployeeID          string  `json:"employee_id"`
	Name                string  `json:"name"`
	Email               string  `json:"email"`
	ImagePath           string  `json:"image_path"`
	TotalViolations     int     `json:"total_violations"`
	PPEViolationPercent float64 `json:"ppe_violation_percent"`
}

type DailyDashboard struct {
	Status                    string                       `json:"status,omitempty"`
	Date                      string                       `json:"date"`
	OrganizationID            string                       `json:"organization_id"`
	TotalEmployees            int                          `json:"total_employees"`
	PresentCount              int                          `json:"present_count"`
	AbsentCount               int                          `json:"absent_count"`
	AverageAttendanceRate     float64                      `json:"average_attendance_rate"`
	AverageSafetyRate         float64                      `json:"average_safety_rate"`
	CheckedCount              int                          `json:"checked_count"`
	AttendanceToday           []compliance.AttendanceEntry `json:"attendance_today"`
	MostNonCompliantEmployees []NonCompliantEmployee       `json:"most_non_compliant_employees"`
	ComplianceDistribution    rollup.Distribution          `json:"compliance_distribution"`
	PPEViolationsToday        []rollup.ClassCount          `json:"ppe_violations_today"`
}

type DayAttendance struct {
	Date           string  `json:"date"`
	PresentCount   int     `json:"present_count"`
	AbsentCount    int     `json:"absent_count"`
	AttendanceRate float64 `json:"attendance_rate"`
}

// DaySafety carries a nil SafetyRate for a day with no checks.
type DaySafety struct {
	Date         string   `json:"date"`
	SafetyRate   *float64 `json:"safety_rate"`
	CheckedCount int      `json:"checked_count"`
}

type WeekWindow struct {
	StartDate       string          `json:"start_date"`
	EndDate         string          `json:"end_date"`
	DailyAttendance []DayAttendance `json:"daily_attendance"`
	DailySafety     []DaySafety     `json:"daily_safety"`
}

type PeriodSummary struct {
	TotalEmployees             int     `json:"total_employees"`
	AverageAttendanceRate      float64 `json:"average_attendance_rate"`
	AverageSafetyRate          float64 `json:"average_safety_rate"`
	UniqueAbsentEmployeesCount int     `json:"unique_absent_employees_count"`
	PPECheckedCount            int     `json:"ppe_checked_count"`
}

type PieSlice struct {
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
}

type PieCompliance struct {
	Distribution           []PieSlice `json:"distribution"`
	TotalCompliancePercent float64    `json:"total_compliance_percent"`
	FullyCount             int        `json:"fully_count"`
	PartiallyCount         int        `json:"partially_count"`
	NonCount               int        `json:"non_count"`
}

type ImprovementEntry struct {
	EmployeeEmail      string  `json:"employee_email"`
	EmployeeID         string  `json:"employee_id"`
	Name               string  `json:"name"`
	ViolationCount     int     `json:"violation_count"`
	TimesChecked       int     `json:"times_checked"`
	OverallWornPercent float64 `json:"overall_worn_percent"`
}

type EmployeeAttendance struct {
	EmployeeID     string  `json:"employee_id"`
	Name           string  `json:"name"`
	DaysPresent    int     `json:"days_present"`
	AttendanceRate float64 `json:"attendance_rate"`
	TotalDays      int     `json:"total_days"`
}

type DayComparison struct {
	Date     string  `json:"date"`
	ThisWeek float64 `json:"this_week"`
	LastWeek float64 `json:"last_week"`
}

type WeeklyDashboard struct {
	Status                string               `json:"status,omitempty"`
	OrganizationID        string               `json:"organization_id"`
	ThisWeek              WeekWindow           `json:"this_week"`
	LastWeek              WeekWindow           `json:"last_week"`
	Summary               PeriodSummary        `json:"summary"`
	PieCompliance         PieCompliance        `json:"pie_compliance"`
	TopNeedingImprovement []ImprovementEntry   `json:"top_needing_improvement"`
	PerEmployeeAttendance []EmployeeAttendance `json:"per_employee_attendance"`
	PPEClassViolations    []rollup.ClassCount  `json:"ppe_class_violations"`
	AttendanceComparison  []DayComparison      `json:"attendance_comparison"`
	SafetyComparison      []DayComparison      `json:"safety_comparison"`
}

type WeekAttendance struct {
	WeekNumber     int     `json:"week_number"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	AttendanceRate float64 `json:"attendance_rate"`
	PresentCount   int     `json:"present_count"`
	AbsentCount    int     `json:"absent_count"`
}

type WeekSafety struct {
	WeekNumber   int     `json:"week_number"`
	SafetyRate   float64 `json:"safety_rate"`
	CheckedCount int     `json:"checked_count"`
}

type MonthWindow struct {
	StartDate        string           `json:"start_date"`
	EndDate          string           `json:"end_date"`
	WeeklyAttendance []WeekAttendance `json:"weekly_attendance"`
	WeeklySafety     []WeekSafety     `json:"weekly_safety"`
}

type WeekComparison struct {
	WeekNumber int     `json:"week_number"`
	ThisMonth  float64 `json:"this_month"`
	LastMonth  float64 `json:"last_month"`
}

type MonthlyDashboard struct {
	Status                string               `json:"status,omitempty"`
	OrganizationID        string               `json:"organization_id"`
	ThisMonth             MonthWindow          `json:"this_month"`
	LastMonth             MonthWindow          `json:"last_month"`
	Summary               PeriodSummary        `json:"summary"`
	PieCompliance         PieCompliance        `json:"pie_compliance"`
	TopNeedingImprovement []ImprovementEntry   `json:"top_needing_improvement"`
	PerEmployeeAttendance []EmployeeAttendance `json:"per_employee_attendance"`
	PPEClassViolations    []rollup.ClassCount  `json:"ppe_class_violations"`
	AttendanceComparison  []WeekComparison     `json:"attendance_comparison"`
	SafetyComparison      []WeekComparison     `json:"safety_comparison"`
}

type EmployeeProfile struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	EmployeeID string `json:"employee_id"`
	TotalPoint int    `json:"total_point"`
}

type CalendarDay struct {
	Date    string `json:"date"`
	Present bool   `json:"present"`
}

type EmployeeAttendanceView struct {
	MonthlyAverage float64       `json:"monthly_average"`
	PresentCount   int           `json:"present_count"`
	AbsentCount    int           `json:"absent_count"`
	Today          *CalendarDay  `json:"today"`
	Calendar       []CalendarDay `json:"calendar"`
}

type EmployeeWeekSummary struct {
	Violations         int            `json:"violations"`
	MostMissedItem     *string        `json:"most_missed_item"`
	BestComplianceItem *string        `json:"best_compliance_item"`
	DaysCount          int            `json:"days_count"`
	BarChartData       map[string]int `json:"bar_chart_data"`
}

type EmployeePPEView struct {
	TodayStatus   map[string]int              `json:"today_status"`
	ItemsMissed   []string                    `json:"items_missed"`
	TodayPoint    int                         `json:"today_point"`
	WeeklySummary map[int]EmployeeWeekSummary `json:"weekly_summary"`
}

type EmployeeDashboard struct {
	OrganizationID string                 `json:"organization_id"`
	Employee       EmployeeProfile        `json:"employee"`
	Attendance     EmployeeAttendanceView `json:"attendance"`
	PPE            EmployeePPEView        `json:"ppe"`
}
