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

// Monthly rolls up the calendar month containing anchor in 7-day chunks from
// the 1st and compares them chunk by chunk with the previous month.
func (s *dashboardService) Monthly(ctx context.Context, organizationID string, anchor time.Time, topN int) (dashboard.MonthlyDashboard, error) {
	requestID := contextPkg.GetRequestID(ctx)
	if topN <= 0 {
		topN = dashboard.DefaultTopN
	}

	thisMonth := rollup.CalendarMonth(s.calendarDate(anchor))
	lastMonth := rollup.PreviousMonth(thisMonth)

	client, err := s.client(ctx)
	if err != nil {
		return dashboard.MonthlyDashboard{}, err
	}

	employees, err := s.roster(ctx, client, organizationID)
	if err != nil {
		return dashboard.MonthlyDashboard{}, err
	}
	total := len(employees)

	thisDays, err := s.loadDays(ctx, client, organizationID, thisMonth)
	if err != nil {
		return dashboard.MonthlyDashboard{}, err
	}
	lastDays, err := s.loadDays(ctx, client, organizationID, lastMonth)
	if err != nil {
		return dashboard.MonthlyDashboard{}, err
	}

	totals := newPeriodTotals(employees)

	thisWindow := monthWindow(thisMonth, thisDays, total, totals)
	lastWindow := monthWindow(lastMonth, lastDays, total, nil)

	var weekRates []float64
	for _, week := range thisWindow.WeeklyAttendance {
		if week.AttendanceRate > 0 {
			weekRates = append(weekRates, week.AttendanceRate)
		}
	}

	daysInMonth := thisMonth.Len()
	result := dashboard.MonthlyDashboard{
		OrganizationID:        organizationID,
		ThisMonth:             thisWindow,
		LastMonth:             lastWindow,
		Summary:               totals.summary(total, rollup.Average(weekRates)),
		PieCompliance:         totals.pie(),
		TopNeedingImprovement: totals.needingImprovement(topN),
		PerEmployeeAttendance: totals.perEmployeeAttendance(employees, daysInMonth),
		PPEClassViolations:    totals.compliance.ViolationList(),
	}
	if total == 0 {
		result.Status = dashboard.StatusNoEmployees
	}

	weeks := min(len(thisWindow.WeeklyAttendance), len(lastWindow.WeeklyAttendance))
	result.AttendanceComparison = make([]dashboard.WeekComparison, 0, weeks)
	result.SafetyComparison = make([]dashboard.WeekComparison, 0, weeks)
	for i := 0; i < weeks; i++ {
		result.AttendanceComparison = append(result.AttendanceComparison, dashboard.WeekComparison{
			WeekNumber: i + 1,
			ThisMonth:  thisWindow.WeeklyAttendance[i].AttendanceRate,
			LastMonth:  lastWindow.WeeklyAttendance[i].AttendanceRate,
		})
		result.SafetyComparison = append(result.SafetyComparison, dashboard.WeekComparison{
			WeekNumber: i + 1,
			ThisMonth:  thisWindow.WeeklySafety[i].SafetyRate,
			LastMonth:  lastWindow.WeeklySafety[i].SafetyRate,
		})
	}

	s.log.WithFields(logrus.Fields{
		"request_id":      requestID,
		"organization_id": organizationID,
		"from":            entity.DateKey(thisMonth.Start),
		"to":              entity.DateKey(thisMonth.End),
		"checked":         totals.compliance.Checked,
	}).Debug("Built monthly dashboard")

	return result, nil
}

// monthWindow groups days into the month's week chunks. A chunk's attendance
// rate is the average daily present count over days that have any record,
// relative to the roster.
func monthWindow(period rollup.Period, days []dayRecords, totalEmployees int, totals *periodTotals) dashboard.MonthWindow {
	weeks := period.Weeks()
	window := dashboard.MonthWindow{
		StartDate:        entity.DateKey(period.Start),
		EndDate:          entity.DateKey(period.End),
		WeeklyAttendance: make([]dashboard.WeekAttendance, 0, len(weeks)),
		WeeklySafety:     make([]dashboard.WeekSafety, 0, len(weeks)),
	}

	offset := 0
	for i, week := range weeks {
		n := week.Len()
		chunk := days[offset : offset+n]
		offset += n

		var present, absent, daysWithData int
		var compliance rollup.ComplianceSummary
		for _, day := range chunk {
			attendance := rollup.SummarizeAttendance(day.Attendance)
			if attendance.Recorded() > 0 {
				present += attendance.Present
				absent += attendance.Absent
				daysWithData++
			}

			if totals != nil {
				compliance.Merge(totals.add(day))
			} else {
				compliance.Merge(rollup.DailyCompliance(day.Compliance))
			}
		}

		rate := 0.0
		if daysWithData > 0 {
			rate = rollup.PercentFloat(float64(present)/float64(daysWithData), totalEmployees)
		}

		window.WeeklyAttendance = append(window.WeeklyAttendance, dashboard.WeekAttendance{
			WeekNumber:     i + 1,
			StartDate:      entity.DateKey(week.Start),
			EndDate:        entity.DateKey(week.End),
			AttendanceRate: rate,
			PresentCount:   present,
			AbsentCount:    absent,
		})
		window.WeeklySafety = append(window.WeeklySafety, dashboard.WeekSafety{
			WeekNumber:   i + 1,
			SafetyRate:   compliance.SafetyRate(),
			CheckedCount: compliance.Checked,
		})
	}

	return window
}
