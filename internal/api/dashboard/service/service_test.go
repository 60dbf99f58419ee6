package dashboardService

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"PPEGuard/internal/api/compliance"
	complianceRepository "PPEGuard/internal/api/compliance/repository"
	"PPEGuard/internal/api/dashboard"
	"PPEGuard/internal/entity"

	"github.com/sirupsen/logrus"
)

type memoryStore struct {
	employees  []entity.Employee
	attendance []entity.AttendanceRecord
	records    []entity.ComplianceRecord
	listErr    error
}

func (m *memoryStore) NewClient(bool) (complianceRepository.Client, error) {
	return complianceRepository.Client{
		Compliance: &fakeCompliance{m},
		Attendance: &fakeAttendance{m},
		Employee:   &fakeEmployees{m},
		Commit:     func() error { return nil },
		Rollback:   func() error { return nil },
	}, nil
}

type fakeCompliance struct{ m *memoryStore }

func (f *fakeCompliance) CreateRecord(context.Context, entity.ComplianceRecord) error { return nil }

func (f *fakeCompliance) ListByOrganizationBetween(_ context.Context, organizationID string, from, to time.Time) ([]entity.ComplianceRecord, error) {
	if f.m.listErr != nil {
		return nil, f.m.listErr
	}
	var out []entity.ComplianceRecord
	for _, r := range f.m.records {
		if r.OrganizationID == organizationID && !r.Timestamp.Before(from) && r.Timestamp.Before(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeCompliance) ListBySubjectBetween(_ context.Context, subjectID string, from, to time.Time) ([]entity.ComplianceRecord, error) {
	var out []entity.ComplianceRecord
	for _, r := range f.m.records {
		if r.SubjectID == subjectID && !r.Timestamp.Before(from) && r.Timestamp.Before(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeAttendance struct{ m *memoryStore }

func (f *fakeAttendance) CreateAttendance(context.Context, entity.AttendanceRecord) error { return nil }

func (f *fakeAttendance) ExistsForSubjectOnDate(context.Context, string, time.Time) (bool, error) {
	return false, nil
}

func (f *fakeAttendance) ListByOrganizationBetween(_ context.Context, organizationID string, from, to time.Time) ([]entity.AttendanceRecord, error) {
	if f.m.listErr != nil {
		return nil, f.m.listErr
	}
	var out []entity.AttendanceRecord
	for _, r := range f.m.attendance {
		key := entity.DateKey(r.Date)
		if r.OrganizationID == organizationID && key >= entity.DateKey(from) && key <= entity.DateKey(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeAttendance) ListBySubjectBetween(_ context.Context, subjectID string, from, to time.Time) ([]entity.AttendanceRecord, error) {
	var out []entity.AttendanceRecord
	for _, r := range f.m.attendance {
		key := entity.DateKey(r.Date)
		if r.SubjectID == subjectID && key >= entity.DateKey(from) && key <= entity.DateKey(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeEmployees struct{ m *memoryStore }

func (f *fakeEmployees) GetByEmail(_ context.Context, email string) (entity.Employee, error) {
	for _, e := range f.m.employees {
		if e.Email == email {
			return e, nil
		}
	}
	return entity.Employee{}, compliance.ErrEmployeeNotFound
}

func (f *fakeEmployees) ListByOrganization(_ context.Context, organizationID string) ([]entity.Employee, error) {
	var out []entity.Employee
	for _, e := range f.m.employees {
		if e.OrganizationID == organizationID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEmployees) AddPoints(context.Context, string, int) error { return nil }

const org = "org-1"

func day(value string) time.Time {
	t, err := time.ParseInLocation(time.DateOnly, value, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func present(subject, date string, ok bool) entity.AttendanceRecord {
	return entity.AttendanceRecord{SubjectID: subject, OrganizationID: org, Date: day(date), Present: ok}
}

// check builds a record on date at noon wearing the listed classes plus person.
func check(subject, date string, worn ...entity.EquipmentClass) entity.ComplianceRecord {
	var status entity.EquipmentStatus
	status[entity.Person] = true
	for _, c := range worn {
		status[c] = true
	}
	return entity.ComplianceRecord{
		SubjectID:       subject,
		OrganizationID:  org,
		EquipmentStatus: status,
		Timestamp:       day(date).Add(12 * time.Hour),
		PointsAwarded:   status.WornCount() * 20,
		ComplianceTier:  entity.TierFromMissed(status.MissedCount()),
	}
}

func newService(store *memoryStore, now time.Time) *dashboardService {
	log := logrus.New()
	log.SetOutput(io.Discard)

	svc := NewDashboardService(log, store, time.UTC).(*dashboardService)
	svc.clock = func() time.Time { return now }
	return svc
}

func roster() []entity.Employee {
	return []entity.Employee{
		{EmployeeCode: "E1", Name: "Ayu", Email: "a@acme.test", OrganizationID: org, ImagePath: "a.jpg", PointTotal: 300},
		{Name: "Budi", Email: "b@acme.test", OrganizationID: org},
		{EmployeeCode: "E3", Name: "Citra", Email: "c@acme.test", OrganizationID: org, ImagePath: "c.jpg"},
	}
}

func TestDailyDashboard(t *testing.T) {
	store := &memoryStore{
		employees: roster(),
		attendance: []entity.AttendanceRecord{
			present("a@acme.test", "2026-03-10", true),
			present("b@acme.test", "2026-03-10", false),
			present("a@acme.test", "2026-03-09", true),
		},
		records: []entity.ComplianceRecord{
			check("a@acme.test", "2026-03-10", entity.Helmet, entity.Gloves, entity.Vest, entity.Goggles, entity.EarProtection),
			check("b@acme.test", "2026-03-10", entity.Helmet, entity.Gloves, entity.Vest, entity.Goggles),
			check("c@acme.test", "2026-03-10", entity.Helmet),
			check("c@acme.test", "2026-03-09"),
		},
	}
	svc := newService(store, day("2026-03-10"))

	got, err := svc.Daily(context.Background(), org, day("2026-03-10"))
	if err != nil {
		t.Fatalf("daily: %v", err)
	}

	if got.TotalEmployees != 3 || got.PresentCount != 1 || got.AbsentCount != 1 {
		t.Fatalf("unexpected counts %+v", got)
	}
	if got.AverageAttendanceRate != 33.33 {
		t.Fatalf("expected attendance 33.33, got %.2f", got.AverageAttendanceRate)
	}
	if got.AverageSafetyRate != 53.33 || got.CheckedCount != 3 {
		t.Fatalf("expected safety 53.33 over 3 checks, got %.2f over %d", got.AverageSafetyRate, got.CheckedCount)
	}
	if len(got.AttendanceToday) != 2 || got.AttendanceToday[0].EmployeeID != "E1" {
		t.Fatalf("unexpected attendance list %+v", got.AttendanceToday)
	}

	if len(got.MostNonCompliantEmployees) != 1 {
		t.Fatalf("only non tier records rank, got %+v", got.MostNonCompliantEmployees)
	}
	worst := got.MostNonCompliantEmployees[0]
	if worst.EmployeeID != "E3" || worst.TotalViolations != 4 || worst.PPEViolationPercent != 80 {
		t.Fatalf("unexpected worst employee %+v", worst)
	}

	if got.ComplianceDistribution.Fully.Count != 1 || got.ComplianceDistribution.Fully.Percent != 33.33 {
		t.Fatalf("distribution is over the roster, got %+v", got.ComplianceDistribution)
	}
	if got.PPEViolationsToday[4].Item != "ear_protection" || got.PPEViolationsToday[4].Count != 2 {
		t.Fatalf("unexpected violations %+v", got.PPEViolationsToday)
	}
}

func TestDailyDashboardWithoutEmployees(t *testing.T) {
	svc := newService(&memoryStore{}, day("2026-03-10"))

	got, err := svc.Daily(context.Background(), org, time.Time{})
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if got.Status != dashboard.StatusNoEmployees || got.Date != "2026-03-10" {
		t.Fatalf("unexpected %+v", got)
	}
}

func TestDailyRankingSkipsUnknownSubjects(t *testing.T) {
	store := &memoryStore{
		employees: roster(),
		records: []entity.ComplianceRecord{
			check("visitor@acme.test", "2026-03-10"),
			check("c@acme.test", "2026-03-10", entity.Helmet),
		},
	}
	svc := newService(store, day("2026-03-10"))

	got, err := svc.Daily(context.Background(), org, day("2026-03-10"))
	if err != nil {
		t.Fatalf("daily: %v", err)
	}

	if len(got.MostNonCompliantEmployees) != 1 || got.MostNonCompliantEmployees[0].Email != "c@acme.test" {
		t.Fatalf("expected only roster employees to rank, got %+v", got.MostNonCompliantEmployees)
	}
	if got.MostNonCompliantEmployees[0].Name != "Citra" {
		t.Fatalf("expected roster name, got %+v", got.MostNonCompliantEmployees[0])
	}
}

func weeklyStore() *memoryStore {
	return &memoryStore{
		employees: roster()[:2],
		attendance: []entity.AttendanceRecord{
			present("a@acme.test", "2026-03-10", true),
			present("b@acme.test", "2026-03-10", false),
			present("a@acme.test", "2026-03-09", true),
			present("a@acme.test", "2026-03-03", true),
		},
		records: []entity.ComplianceRecord{
			check("a@acme.test", "2026-03-10", entity.Helmet, entity.Gloves, entity.Vest, entity.Goggles, entity.EarProtection),
			check("b@acme.test", "2026-03-09", entity.Helmet, entity.Gloves, entity.Vest),
			check("b@acme.test", "2026-03-03"),
		},
	}
}

func TestWeeklyDashboard(t *testing.T) {
	svc := newService(weeklyStore(), day("2026-03-10"))

	got, err := svc.Weekly(context.Background(), org, day("2026-03-10"), 6)
	if err != nil {
		t.Fatalf("weekly: %v", err)
	}

	if got.ThisWeek.StartDate != "2026-03-04" || got.ThisWeek.EndDate != "2026-03-10" {
		t.Fatalf("unexpected window %s..%s", got.ThisWeek.StartDate, got.ThisWeek.EndDate)
	}
	if got.LastWeek.StartDate != "2026-02-25" || got.LastWeek.EndDate != "2026-03-03" {
		t.Fatalf("unexpected previous window %s..%s", got.LastWeek.StartDate, got.LastWeek.EndDate)
	}
	if len(got.ThisWeek.DailyAttendance) != 7 || got.ThisWeek.DailyAttendance[6].AttendanceRate != 50 {
		t.Fatalf("unexpected daily attendance %+v", got.ThisWeek.DailyAttendance)
	}
	if got.ThisWeek.DailySafety[0].SafetyRate != nil {
		t.Fatalf("a day without checks has no safety rate")
	}

	if got.Summary.AverageAttendanceRate != 50 {
		t.Fatalf("expected 50 averaged over recorded days, got %.2f", got.Summary.AverageAttendanceRate)
	}
	if got.Summary.AverageSafetyRate != 80 || got.Summary.PPECheckedCount != 2 {
		t.Fatalf("unexpected safety summary %+v", got.Summary)
	}
	if got.Summary.UniqueAbsentEmployeesCount != 1 {
		t.Fatalf("expected 1 absentee, got %d", got.Summary.UniqueAbsentEmployeesCount)
	}

	if got.PieCompliance.TotalCompliancePercent != 100 || got.PieCompliance.Distribution[0].Percent != 50 {
		t.Fatalf("unexpected pie %+v", got.PieCompliance)
	}

	top := got.TopNeedingImprovement
	if len(top) != 2 || top[0].EmployeeEmail != "b@acme.test" || top[0].Name != "Budi" {
		t.Fatalf("unexpected ranking %+v", top)
	}
	if top[0].ViolationCount != 2 || top[0].OverallWornPercent != 60 {
		t.Fatalf("unexpected worst entry %+v", top[0])
	}

	perEmployee := got.PerEmployeeAttendance
	if perEmployee[0].EmployeeID != "E1" || perEmployee[0].DaysPresent != 2 || perEmployee[0].AttendanceRate != 28.57 {
		t.Fatalf("unexpected per-employee attendance %+v", perEmployee)
	}

	if len(got.AttendanceComparison) != 7 || got.AttendanceComparison[6].LastWeek != 50 || got.AttendanceComparison[6].Date != "2026-03-10" {
		t.Fatalf("unexpected attendance comparison %+v", got.AttendanceComparison)
	}
	if got.SafetyComparison[6].LastWeek != 0 || got.SafetyComparison[6].ThisWeek != 100 {
		t.Fatalf("unexpected safety comparison %+v", got.SafetyComparison[6])
	}
}

func TestWeeklyTopNBounded(t *testing.T) {
	svc := newService(weeklyStore(), day("2026-03-10"))

	for _, n := range []int{1, 2, 5} {
		got, err := svc.Weekly(context.Background(), org, day("2026-03-10"), n)
		if err != nil {
			t.Fatalf("weekly: %v", err)
		}
		top := got.TopNeedingImprovement
		if len(top) > n {
			t.Fatalf("top %d returned %d entries", n, len(top))
		}
		for i := 1; i < len(top); i++ {
			if top[i-1].ViolationCount < top[i].ViolationCount {
				t.Fatalf("ranking not descending: %+v", top)
			}
		}
	}
}

func TestMonthlyDashboard(t *testing.T) {
	store := &memoryStore{
		employees: roster()[:2],
		attendance: []entity.AttendanceRecord{
			present("a@acme.test", "2026-03-02", true),
			present("b@acme.test", "2026-03-02", true),
			present("a@acme.test", "2026-03-03", true),
			present("a@acme.test", "2026-02-10", true),
		},
		records: []entity.ComplianceRecord{
			check("a@acme.test", "2026-03-02", entity.Helmet, entity.Gloves, entity.Vest, entity.Goggles, entity.EarProtection),
			check("a@acme.test", "2026-02-10", entity.Helmet, entity.Gloves, entity.Vest, entity.Goggles, entity.EarProtection),
		},
	}
	svc := newService(store, day("2026-03-17"))

	got, err := svc.Monthly(context.Background(), org, day("2026-03-17"), 0)
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}

	if len(got.ThisMonth.WeeklyAttendance) != 5 || len(got.LastMonth.WeeklyAttendance) != 4 {
		t.Fatalf("unexpected week counts %d/%d", len(got.ThisMonth.WeeklyAttendance), len(got.LastMonth.WeeklyAttendance))
	}
	first := got.ThisMonth.WeeklyAttendance[0]
	if first.AttendanceRate != 75 || first.PresentCount != 3 || first.EndDate != "2026-03-07" {
		t.Fatalf("unexpected first week %+v", first)
	}
	if got.Summary.AverageAttendanceRate != 75 {
		t.Fatalf("weeks without data must not drag the average, got %.2f", got.Summary.AverageAttendanceRate)
	}

	if len(got.AttendanceComparison) != 4 || len(got.SafetyComparison) != 4 {
		t.Fatalf("comparisons truncate to the shorter month, got %d/%d", len(got.AttendanceComparison), len(got.SafetyComparison))
	}
	if got.AttendanceComparison[1].LastMonth != 50 {
		t.Fatalf("unexpected last month attendance %+v", got.AttendanceComparison[1])
	}
	if got.SafetyComparison[1].LastMonth != 100 || got.SafetyComparison[0].ThisMonth != 100 {
		t.Fatalf("unexpected safety comparison %+v", got.SafetyComparison)
	}

	if got.PerEmployeeAttendance[0].TotalDays != 31 || got.PerEmployeeAttendance[0].AttendanceRate != 6.45 {
		t.Fatalf("unexpected per-employee attendance %+v", got.PerEmployeeAttendance[0])
	}
	if got.PieCompliance.FullyCount != 1 || got.Summary.PPECheckedCount != 1 {
		t.Fatalf("only this month's checks count, got %+v", got.PieCompliance)
	}
}

func TestEmployeeDashboard(t *testing.T) {
	store := &memoryStore{
		employees: roster(),
		attendance: []entity.AttendanceRecord{
			present("a@acme.test", "2026-03-02", true),
			present("a@acme.test", "2026-03-09", true),
			present("a@acme.test", "2026-03-05", false),
		},
		records: []entity.ComplianceRecord{
			check("a@acme.test", "2026-03-02", entity.Helmet, entity.Goggles, entity.EarProtection),
			check("a@acme.test", "2026-03-10", entity.Helmet, entity.Vest, entity.Goggles, entity.EarProtection),
		},
	}
	svc := newService(store, day("2026-03-10").Add(15*time.Hour))

	got, err := svc.Employee(context.Background(), entity.UserLoginData{Email: "a@acme.test", Role: entity.RoleEmployee})
	if err != nil {
		t.Fatalf("employee: %v", err)
	}

	if got.OrganizationID != org || got.Employee.TotalPoint != 300 {
		t.Fatalf("unexpected profile %+v", got)
	}
	if got.Attendance.PresentCount != 2 || got.Attendance.AbsentCount != 1 || got.Attendance.MonthlyAverage != 66.67 {
		t.Fatalf("unexpected attendance %+v", got.Attendance)
	}
	if got.Attendance.Today == nil || got.Attendance.Today.Date != "2026-03-09" {
		t.Fatalf("expected latest day to stand in for today, got %+v", got.Attendance.Today)
	}

	if got.PPE.TodayPoint != 80 || len(got.PPE.ItemsMissed) != 1 || got.PPE.ItemsMissed[0] != "gloves" {
		t.Fatalf("unexpected today ppe %+v", got.PPE)
	}
	if got.PPE.TodayStatus["gloves"] != 0 || got.PPE.TodayStatus["helmet"] != 1 {
		t.Fatalf("unexpected today status %v", got.PPE.TodayStatus)
	}
	if _, ok := got.PPE.TodayStatus["person"]; ok {
		t.Fatalf("person must not appear in today status")
	}

	week10 := got.PPE.WeeklySummary[10]
	if week10.Violations != 2 || week10.DaysCount != 1 {
		t.Fatalf("unexpected week 10 %+v", week10)
	}
	if week10.MostMissedItem == nil || *week10.MostMissedItem != "gloves" {
		t.Fatalf("expected gloves most missed, got %v", week10.MostMissedItem)
	}
	if week10.BestComplianceItem == nil || *week10.BestComplianceItem != "helmet" {
		t.Fatalf("expected helmet best, got %v", week10.BestComplianceItem)
	}
	if week10.BarChartData["vest"] != 1 {
		t.Fatalf("unexpected bar chart %v", week10.BarChartData)
	}
}

func TestEmployeeDashboardUnknownEmployee(t *testing.T) {
	svc := newService(&memoryStore{}, day("2026-03-10"))

	_, err := svc.Employee(context.Background(), entity.UserLoginData{Email: "ghost@acme.test"})
	if !errors.Is(err, compliance.ErrEmployeeNotFound) {
		t.Fatalf("expected employee not found, got %v", err)
	}
}

func TestDashboardLoadFailure(t *testing.T) {
	store := weeklyStore()
	store.listErr = errors.New("connection reset")
	svc := newService(store, day("2026-03-10"))

	if _, err := svc.Weekly(context.Background(), org, day("2026-03-10"), 6); !errors.Is(err, dashboard.ErrLoadDashboard) {
		t.Fatalf("expected load failure, got %v", err)
	}
}
