package dashboardService

import (
	"context"
	"time"

	"PPEGuard/internal/api/dashboard"
	"PPEGuard/internal/entity"
	contextPkg "PPEGuard/pkg/context"
	"PPEGuard/pkg/rollup"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Employee is the self view of the calling employee for the current month.
func (s *dashboardService) Employee(ctx context.Context, user entity.UserLoginData) (dashboard.EmployeeDashboard, error) {
	requestID := contextPkg.GetRequestID(ctx)

	client, err := s.client(ctx)
	if err != nil {
		return dashboard.EmployeeDashboard{}, err
	}

	employee, err := client.Employee.GetByEmail(ctx, user.Email)
	if err != nil {
		return dashboard.EmployeeDashboard{}, err
	}

	today := s.today()
	month := rollup.CalendarMonth(today)

	var (
		attendance []entity.AttendanceRecord
		monthPPE   []entity.ComplianceRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		attendance, err = client.Attendance.ListBySubjectBetween(gctx, employee.Email, month.Start, month.End)
		return err
	})
	g.Go(func() error {
		var err error
		monthPPE, err = client.Compliance.ListBySubjectBetween(gctx, employee.Email, month.Start, month.End.AddDate(0, 0, 1))
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"email":      employee.Email,
			"error":      err.Error(),
		}).Error("Failed to load employee dashboard")
		return dashboard.EmployeeDashboard{}, dashboard.ErrLoadDashboard
	}

	organizationID := employee.OrganizationID
	if organizationID == "" {
		organizationID = user.OrganizationID
	}

	return dashboard.EmployeeDashboard{
		OrganizationID: organizationID,
		Employee: dashboard.EmployeeProfile{
			Name:       employee.Name,
			Email:      employee.Email,
			EmployeeID: employee.EmployeeCode,
			TotalPoint: employee.PointTotal,
		},
		Attendance: employeeAttendance(attendance, today),
		PPE:        employeePPE(monthPPE, today),
	}, nil
}

func employeeAttendance(records []entity.AttendanceRecord, today time.Time) dashboard.EmployeeAttendanceView {
	summary := rollup.SummarizeAttendance(records)
	view := dashboard.EmployeeAttendanceView{
		MonthlyAverage: rollup.Percent(summary.Present, summary.Recorded()),
		PresentCount:   summary.Present,
		AbsentCount:    summary.Absent,
		Calendar:       make([]dashboard.CalendarDay, 0, len(records)),
	}

	todayKey := entity.DateKey(today)
	var latest *dashboard.CalendarDay
	for _, record := range records {
		day := dashboard.CalendarDay{Date: entity.DateKey(record.Date), Present: record.Present}
		view.Calendar = append(view.Calendar, day)

		if day.Date == todayKey {
			view.Today = &day
		}
		if latest == nil || day.Date > latest.Date {
			latest = &day
		}
	}

	// Without a record for today the most recent day stands in.
	if view.Today == nil {
		view.Today = latest
	}

	return view
}

func employeePPE(records []entity.ComplianceRecord, today time.Time) dashboard.EmployeePPEView {
	view := dashboard.EmployeePPEView{
		TodayStatus:   map[string]int{},
		ItemsMissed:   []string{},
		WeeklySummary: map[int]dashboard.EmployeeWeekSummary{},
	}

	tomorrow := today.AddDate(0, 0, 1)
	var latestToday *entity.ComplianceRecord
	for i := range records {
		ts := records[i].Timestamp
		if ts.Before(today) || !ts.Before(tomorrow) {
			continue
		}
		if latestToday == nil || ts.After(latestToday.Timestamp) {
			latestToday = &records[i]
		}
	}

	if latestToday != nil {
		for _, c := range entity.RequiredEquipmentClasses {
			worn := latestToday.EquipmentStatus.Has(c)
			if worn {
				view.TodayStatus[c.String()] = 1
			} else {
				view.TodayStatus[c.String()] = 0
				view.ItemsMissed = append(view.ItemsMissed, c.String())
			}
		}
		view.TodayPoint = latestToday.PointsAwarded
	}

	type weekTally struct {
		checks int
		missed [entity.EquipmentClassCount]int
		worn   [entity.EquipmentClassCount]int
	}
	weeks := make(map[int]*weekTally)
	for _, record := range records {
		_, week := record.Timestamp.ISOWeek()
		w, ok := weeks[week]
		if !ok {
			w = &weekTally{}
			weeks[week] = w
		}
		w.checks++
		for _, c := range entity.RequiredEquipmentClasses {
			if record.EquipmentStatus.Has(c) {
				w.worn[c]++
			} else {
				w.missed[c]++
			}
		}
	}

	for week, w := range weeks {
		summary := dashboard.EmployeeWeekSummary{
			DaysCount:    w.checks,
			BarChartData: map[string]int{},
		}
		for _, c := range entity.RequiredEquipmentClasses {
			if w.missed[c] > 0 {
				summary.Violations += w.missed[c]
				summary.BarChartData[c.String()] = w.missed[c]
			}
		}

		// The best item is only reported for weeks that had a miss.
		if summary.Violations > 0 {
			summary.MostMissedItem = mostFrequent(w.missed)
			summary.BestComplianceItem = mostFrequent(w.worn)
		}

		view.WeeklySummary[week] = summary
	}

	return view
}

// mostFrequent returns the required class with the highest positive count;
// ties go to the earlier class.
func mostFrequent(counts [entity.EquipmentClassCount]int) *string {
	var name *string
	top := 0
	for _, c := range entity.RequiredEquipmentClasses {
		if counts[c] > top {
			top = counts[c]
			n := c.String()
			name = &n
		}
	}
	return name
}
