package dashboardService

import (
	"context"
	"time"

	complianceRepository "PPEGuard/internal/api/compliance/repository"
	"PPEGuard/internal/api/dashboard"
	"PPEGuard/internal/entity"
	contextPkg "PPEGuard/pkg/context"
	"PPEGuard/pkg/rollup"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type IDashboardService interface {
	Daily(ctx context.Context, organizationID string, day time.Time) (dashboard.DailyDashboard, error)
	Weekly(ctx context.Context, organizationID string, anchor time.Time, topN int) (dashboard.WeeklyDashboard, error)
	Monthly(ctx context.Context, organizationID string, anchor time.Time, topN int) (dashboard.MonthlyDashboard, error)
	Employee(ctx context.Context, user entity.UserLoginData) (dashboard.EmployeeDashboard, error)
}

// defaultReadLimit caps concurrent day-level reads per dashboard request.
const defaultReadLimit = 8

type dashboardService struct {
	log                  *logrus.Logger
	complianceRepository complianceRepository.Repository
	loc                  *time.Location
	clock                func() time.Time
	readLimit            int
}

func NewDashboardService(log *logrus.Logger, cr complianceRepository.Repository, loc *time.Location) IDashboardService {
	if loc == nil {
		loc = time.Local
	}

	return &dashboardService{
		log:                  log,
		complianceRepository: cr,
		loc:                  loc,
		clock:                time.Now,
		readLimit:            defaultReadLimit,
	}
}

func (s *dashboardService) today() time.Time {
	return entity.CalendarDate(s.clock().In(s.loc))
}

func (s *dashboardService) calendarDate(t time.Time) time.Time {
	if t.IsZero() {
		return s.today()
	}
	return entity.CalendarDate(t.In(s.loc))
}

func (s *dashboardService) client(ctx context.Context) (complianceRepository.Client, error) {
	client, err := s.complianceRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return complianceRepository.Client{}, dashboard.ErrLoadDashboard
	}
	return client, nil
}

func (s *dashboardService) roster(ctx context.Context, client complianceRepository.Client, organizationID string) ([]entity.Employee, error) {
	employees, err := client.Employee.ListByOrganization(ctx, organizationID)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id":      contextPkg.GetRequestID(ctx),
			"organization_id": organizationID,
			"error":           err.Error(),
		}).Error("Failed to list employees")
		return nil, dashboard.ErrLoadDashboard
	}
	return employees, nil
}

type dayRecords struct {
	Date       time.Time
	Attendance []entity.AttendanceRecord
	Compliance []entity.ComplianceRecord
}

// loadDays reads each day of period independently. Results are indexed by day
// offset so callers see them in calendar order.
func (s *dashboardService) loadDays(ctx context.Context, client complianceRepository.Client, organizationID string, period rollup.Period) ([]dayRecords, error) {
	days := period.Days()
	out := make([]dayRecords, len(days))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.readLimit)

	for i, day := range days {
		g.Go(func() error {
			attendance, err := client.Attendance.ListByOrganizationBetween(gctx, organizationID, day, day)
			if err != nil {
				return err
			}

			records, err := client.Compliance.ListByOrganizationBetween(gctx, organizationID, day, day.AddDate(0, 0, 1))
			if err != nil {
				return err
			}

			out[i] = dayRecords{Date: day, Attendance: attendance, Compliance: records}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id":      contextPkg.GetRequestID(ctx),
			"organization_id": organizationID,
			"from":            entity.DateKey(period.Start),
			"to":              entity.DateKey(period.End),
			"error":           err.Error(),
		}).Error("Failed to load dashboard days")
		return nil, dashboard.ErrLoadDashboard
	}

	return out, nil
}

// periodTotals folds day records into the period-wide figures shared by the
// weekly and monthly views.
type periodTotals struct {
	compliance  rollup.ComplianceSummary
	tally       rollup.SubjectTally
	absentees   map[string]struct{}
	daysPresent map[string]int
	byEmail     map[string]entity.Employee
}

func newPeriodTotals(employees []entity.Employee) *periodTotals {
	byEmail := make(map[string]entity.Employee, len(employees))
	for _, e := range employees {
		byEmail[e.Email] = e
	}

	return &periodTotals{
		tally:       rollup.NewSubjectTally(),
		absentees:   make(map[string]struct{}),
		daysPresent: make(map[string]int),
		byEmail:     byEmail,
	}
}

// attendanceKey prefers the employee code and falls back to the e-mail for
// subjects missing from the roster.
func (p *periodTotals) attendanceKey(subjectID string) string {
	if e, ok := p.byEmail[subjectID]; ok {
		return e.AttendanceKey()
	}
	return subjectID
}

func (p *periodTotals) add(day dayRecords) rollup.ComplianceSummary {
	for _, record := range day.Attendance {
		if record.SubjectID == "" {
			continue
		}
		if record.Present {
			p.daysPresent[p.attendanceKey(record.SubjectID)]++
		} else {
			p.absentees[record.SubjectID] = struct{}{}
		}
	}

	summary := rollup.DailyCompliance(day.Compliance)
	p.compliance.Merge(summary)
	p.tally.Add(day.Compliance, nil)

	return summary
}

func (p *periodTotals) pie() dashboard.PieCompliance {
	dist := p.compliance.Distribute(p.compliance.Checked)
	return dashboard.PieCompliance{
		Distribution: []dashboard.PieSlice{
			{Name: "Fully", Percent: dist.Fully.Percent},
			{Name: "Partially", Percent: dist.Partially.Percent},
			{Name: "Non", Percent: dist.Non.Percent},
		},
		TotalCompliancePercent: dist.TotalCompliancePercent,
		FullyCount:             p.compliance.Fully,
		PartiallyCount:         p.compliance.Partially,
		NonCount:               p.compliance.Non,
	}
}

func (p *periodTotals) needingImprovement(topN int) []dashboard.ImprovementEntry {
	ranked := rollup.TopN(p.tally.Missed, topN)

	entries := make([]dashboard.ImprovementEntry, 0, len(ranked))
	for _, r := range ranked {
		emp := p.byEmail[r.Key]
		name := emp.Name
		if name == "" {
			name = r.Key
		}
		checks := p.tally.Checks[r.Key]

		entries = append(entries, dashboard.ImprovementEntry{
			EmployeeEmail:      r.Key,
			EmployeeID:         emp.EmployeeCode,
			Name:               name,
			ViolationCount:     r.Count,
			TimesChecked:       checks,
			OverallWornPercent: rollup.WornPercent(checks, r.Count, entity.RequiredClassCount),
		})
	}

	return entries
}

// perEmployeeAttendance lists every roster employee with present days over
// totalDays, highest rate first.
func (p *periodTotals) perEmployeeAttendance(employees []entity.Employee, totalDays int) []dashboard.EmployeeAttendance {
	out := make([]dashboard.EmployeeAttendance, 0, len(employees))
	for _, e := range employees {
		days := p.daysPresent[e.AttendanceKey()]
		out = append(out, dashboard.EmployeeAttendance{
			EmployeeID:     e.EmployeeCode,
			Name:           e.Name,
			DaysPresent:    days,
			AttendanceRate: rollup.Percent(days, totalDays),
			TotalDays:      totalDays,
		})
	}

	sortByAttendanceRate(out)
	return out
}

func (p *periodTotals) summary(totalEmployees int, averageAttendance float64) dashboard.PeriodSummary {
	return dashboard.PeriodSummary{
		TotalEmployees:             totalEmployees,
		AverageAttendanceRate:      averageAttendance,
		AverageSafetyRate:          p.compliance.SafetyRate(),
		UniqueAbsentEmployeesCount: len(p.absentees),
		PPECheckedCount:            p.compliance.Checked,
	}
}
