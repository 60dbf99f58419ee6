package dashboardService

import (
	"context"
	"time"

	"PPEGuard/internal/api/dashboard"
	"PPEGuard/internal/entity"
	contextPkg "PPEGuard/pkg/context"
	"PPEGuard/pkg/rollup"

	"github.com/sirupsen/logrus"
)

// Weekly rolls up the trailing seven days ending at anchor and compares them
// day by day with the seven days before.
func (s *dashboardService) Weekly(ctx context.Context, organizationID string, anchor time.Time, topN int) (dashboard.WeeklyDashboard, error) {
	requestID := contextPkg.GetRequestID(ctx)
	if topN <= 0 {
		topN = dashboard.DefaultTopN
	}

	thisWeek := rollup.TrailingWeek(s.calendarDate(anchor))
	lastWeek := rollup.PreviousWeek(thisWeek)

	client, err := s.client(ctx)
	if err != nil {
		return dashboard.WeeklyDashboard{}, err
	}

	employees, err := s.roster(ctx, client, organizationID)
	if err != nil {
		return dashboard.WeeklyDashboard{}, err
	}
	total := len(employees)

	thisDays, err := s.loadDays(ctx, client, organizationID, thisWeek)
	if err != nil {
		return dashboard.WeeklyDashboard{}, err
	}
	lastDays, err := s.loadDays(ctx, client, organizationID, lastWeek)
	if err != nil {
		return dashboard.WeeklyDashboard{}, err
	}

	totals := newPeriodTotals(employees)

	thisWindow := weekWindow(thisWeek, thisDays, total, totals)
	lastWindow := weekWindow(lastWeek, lastDays, total, nil)

	var recordedRates []float64
	for i, day := range thisDays {
		if rollup.SummarizeAttendance(day.Attendance).Recorded() > 0 {
			recordedRates = append(recordedRates, thisWindow.DailyAttendance[i].AttendanceRate)
		}
	}

	result := dashboard.WeeklyDashboard{
		OrganizationID:        organizationID,
		ThisWeek:              thisWindow,
		LastWeek:              lastWindow,
		Summary:               totals.summary(total, rollup.Average(recordedRates)),
		PieCompliance:         totals.pie(),
		TopNeedingImprovement: totals.needingImprovement(topN),
		PerEmployeeAttendance: totals.perEmployeeAttendance(employees, rollup.WeekLength),
		PPEClassViolations:    totals.compliance.ViolationList(),
		AttendanceComparison:  make([]dashboard.DayComparison, 0, rollup.WeekLength),
		SafetyComparison:      make([]dashboard.DayComparison, 0, rollup.WeekLength),
	}
	if total == 0 {
		result.Status = dashboard.StatusNoEmployees
	}

	for i := range thisWindow.DailyAttendance {
		date := thisWindow.DailyAttendance[i].Date

		result.AttendanceComparison = append(result.AttendanceComparison, dashboard.DayComparison{
			Date:     date,
			ThisWeek: thisWindow.DailyAttendance[i].AttendanceRate,
			LastWeek: lastWindow.DailyAttendance[i].AttendanceRate,
		})
		result.SafetyComparison = append(result.SafetyComparison, dashboard.DayComparison{
			Date:     date,
			ThisWeek: rateOrZero(thisWindow.DailySafety[i].SafetyRate),
			LastWeek: rateOrZero(lastWindow.DailySafety[i].SafetyRate),
		})
	}

	s.log.WithFields(logrus.Fields{
		"request_id":      requestID,
		"organization_id": organizationID,
		"from":            entity.DateKey(thisWeek.Start),
		"to":              entity.DateKey(thisWeek.End),
		"checked":         totals.compliance.Checked,
	}).Debug("Built weekly dashboard")

	return result, nil
}

// weekWindow builds the per-day arrays for one week. When totals is non-nil
// the days are also folded into it.
func weekWindow(period rollup.Period, days []dayRecords, totalEmployees int, totals *periodTotals) dashboard.WeekWindow {
	window := dashboard.WeekWindow{
		StartDate:       entity.DateKey(period.Start),
		EndDate:         entity.DateKey(period.End),
		DailyAttendance: make([]dashboard.DayAttendance, 0, len(days)),
		DailySafety:     make([]dashboard.DaySafety, 0, len(days)),
	}

	for _, day := range days {
		attendance := rollup.SummarizeAttendance(day.Attendance)

		var summary rollup.ComplianceSummary
		if totals != nil {
			summary = totals.add(day)
		} else {
			summary = rollup.DailyCompliance(day.Compliance)
		}

		date := entity.DateKey(day.Date)
		window.DailyAttendance = append(window.DailyAttendance, dashboard.DayAttendance{
			Date:           date,
			PresentCount:   attendance.Present,
			AbsentCount:    attendance.Absent,
			AttendanceRate: rollup.AttendanceRate(attendance.Present, totalEmployees),
		})
		window.DailySafety = append(window.DailySafety, dashboard.DaySafety{
			Date:         date,
			SafetyRate:   summary.DaySafetyRate(),
			CheckedCount: summary.Checked,
		})
	}

	return window
}

func rateOrZero(rate *float64) float64 {
	if rate == nil {
		return 0
	}
	return *rate
}
