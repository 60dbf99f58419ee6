package complianceRepository

import (
	"context"
	"time"

	"PPEGuard/internal/entity"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type SQLExecutor interface {
	sqlx.ExtContext
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	Rebind(query string) string
}

// New builds the repository. Calendar dates read back from storage are placed
// in loc.
func New(db *sqlx.DB, log *logrus.Logger, loc *time.Location) Repository {
	if loc == nil {
		loc = time.Local
	}
	return &repository{
		DB:  db,
		log: log,
		loc: loc,
	}
}

type repository struct {
	DB  *sqlx.DB
	log *logrus.Logger
	loc *time.Location
}

type Repository interface {
	NewClient(tx bool) (Client, error)
}

func (r *repository) NewClient(tx bool) (Client, error) {
	var sqlExecutor SQLExecutor
	var commitFunc, rollbackFunc func() error

	sqlExecutor = r.DB

	if tx {
		txx, err := r.DB.Beginx()
		if err != nil {
			return Client{}, err
		}

		sqlExecutor = txx
		commitFunc = txx.Commit
		rollbackFunc = txx.Rollback
	} else {
		commitFunc = func() error { return nil }
		rollbackFunc = func() error { return nil }
	}

	return Client{
		Compliance: &complianceRepository{q: sqlExecutor, log: r.log, loc: r.loc},
		Attendance: &attendanceRepository{q: sqlExecutor, log: r.log, loc: r.loc},
		Employee:   &employeeRepository{q: sqlExecutor, log: r.log},
		Commit:     commitFunc,
		Rollback:   rollbackFunc,
	}, nil
}

type ComplianceStore interface {
	CreateRecord(ctx context.Context, record entity.ComplianceRecord) error
	ListByOrganizationBetween(ctx context.Context, organizationID string, from, to time.Time) ([]entity.ComplianceRecord, error)
	ListBySubjectBetween(ctx context.Context, subjectID string, from, to time.Time) ([]entity.ComplianceRecord, error)
}

type AttendanceStore interface {
	CreateAttendance(ctx context.Context, record entity.AttendanceRecord) error
	ExistsForSubjectOnDate(ctx context.Context, subjectID string, date time.Time) (bool, error)
	ListByOrganizationBetween(ctx context.Context, organizationID string, from, to time.Time) ([]entity.AttendanceRecord, error)
	ListBySubjectBetween(ctx context.Context, subjectID string, from, to time.Time) ([]entity.AttendanceRecord, error)
}

type EmployeeStore interface {
	GetByEmail(ctx context.Context, email string) (entity.Employee, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]entity.Employee, error)
	AddPoints(ctx context.Context, email string, points int) error
}

type Client struct {
	Compliance ComplianceStore
	Attendance AttendanceStore
	Employee   EmployeeStore

	Commit   func() error
	Rollback func() error
}

type complianceRepository struct {
	q   SQLExecutor
	log *logrus.Logger
	loc *time.Location
}

type attendanceRepository struct {
	q   SQLExecutor
	log *logrus.Logger
	loc *time.Location
}

type employeeRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}
