package dashboardService

import (
	"context"
	"sort"
	"time"

	"PPEGuard/internal/api/compliance"
	"PPEGuard/internal/api/dashboard"
	"PPEGuard/internal/entity"
	contextPkg "PPEGuard/pkg/context"
	"PPEGuard/pkg/rollup"

	"github.com/sirupsen/logrus"
)

func (s *dashboardService) Daily(ctx context.Context, organizationID string, day time.Time) (dashboard.DailyDashboard, error) {
	requestID := contextPkg.GetRequestID(ctx)
	day = s.calendarDate(day)

	client, err := s.client(ctx)
	if err != nil {
		return dashboard.DailyDashboard{}, err
	}

	employees, err := s.roster(ctx, client, organizationID)
	if err != nil {
		return dashboard.DailyDashboard{}, err
	}

	result := dashboard.DailyDashboard{
		Date:           entity.DateKey(day),
		OrganizationID: organizationID,
		TotalEmployees: len(employees),
	}
	if len(employees) == 0 {
		result.Status = dashboard.StatusNoEmployees
		return result, nil
	}

	days, err := s.loadDays(ctx, client, organizationID, rollup.Period{Start: day, End: day})
	if err != nil {
		return dashboard.DailyDashboard{}, err
	}
	today := days[0]

	attendance := rollup.SummarizeAttendance(today.Attendance)
	summary := rollup.DailyCompliance(today.Compliance)

	result.PresentCount = attendance.Present
	result.AbsentCount = attendance.Absent
	result.AverageAttendanceRate = rollup.AttendanceRate(attendance.Present, len(employees))
	result.AverageSafetyRate = summary.SafetyRate()
	result.CheckedCount = summary.Checked
	result.AttendanceToday = compliance.JoinAttendance(employees, today.Attendance)
	result.MostNonCompliantEmployees = mostNonCompliant(employees, today.Compliance, dashboard.DailyTopN)
	// Tier shares on the daily view are taken over the whole roster.
	result.ComplianceDistribution = summary.Distribute(len(employees))
	result.PPEViolationsToday = summary.ViolationList()

	s.log.WithFields(logrus.Fields{
		"request_id":      requestID,
		"organization_id": organizationID,
		"date":            result.Date,
		"checked":         summary.Checked,
	}).Debug("Built daily dashboard")

	return result, nil
}

// mostNonCompliant ranks subjects by missed items summed over their
// non-compliant records only.
func mostNonCompliant(employees []entity.Employee, records []entity.ComplianceRecord, topN int) []dashboard.NonCompliantEmployee {
	byEmail := make(map[string]entity.Employee, len(employees))
	for _, e := range employees {
		byEmail[e.Email] = e
	}

	// Only roster employees rank; records for unknown subjects are skipped.
	tally := rollup.NewSubjectTally()
	tally.Add(records, func(r entity.ComplianceRecord) bool {
		_, onRoster := byEmail[r.SubjectID]
		return onRoster && r.ComplianceTier == entity.ComplianceNon
	})

	ranked := rollup.TopN(tally.Missed, topN)
	out := make([]dashboard.NonCompliantEmployee, 0, len(ranked))
	for _, r := range ranked {
		emp := byEmail[r.Key]
		out = append(out, dashboard.NonCompliantEmployee{
			EmployeeID:          emp.EmployeeCode,
			Name:                emp.Name,
			Email:               r.Key,
			ImagePath:           emp.ImagePath,
			TotalViolations:     r.Count,
			PPEViolationPercent: rollup.Percent(r.Count, entity.RequiredClassCount),
		})
	}

	return out
}

func sortByAttendanceRate(entries []dashboard.EmployeeAttendance) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].AttendanceRate > entries[j].AttendanceRate
	})
}
