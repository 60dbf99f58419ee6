package complianceRepository

import (
	"context"
	"database/sql"
	"errors"

	"PPEGuard/internal/api/compliance"
	"PPEGuard/internal/entity"
	contextPkg "PPEGuard/pkg/context"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type EmployeeDB struct {
	ID             sql.NullString `db:"id"`
	OrganizationID sql.NullString `db:"organization_id"`
	EmployeeCode   sql.NullString `db:"employee_code"`
	Name           sql.NullString `db:"name"`
	Email          sql.NullString `db:"email"`
	ImagePath      sql.NullString `db:"image_path"`
	PointTotal     sql.NullInt64  `db:"point_total"`
}

func (r *employeeRepository) GetByEmail(c context.Context, email string) (entity.Employee, error) {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryGetEmployeeByEmail, map[string]interface{}{
		"email": email,
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetByEmail named query preparation err")
		return entity.Employee{}, err
	}
	query = r.q.Rebind(query)

	var row EmployeeDB
	if err := r.q.QueryRowxContext(c, query, args...).StructScan(&row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"email":      email,
			}).Warn("GetByEmail no rows found")
			return entity.Employee{}, compliance.ErrEmployeeNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetByEmail execution err")
		return entity.Employee{}, err
	}

	return makeEmployee(row), nil
}

func (r *employeeRepository) ListByOrganization(c context.Context, organizationID string) ([]entity.Employee, error) {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryListEmployeesByOrganization, map[string]interface{}{
		"organization_id": organizationID,
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("ListByOrganization named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	var rows []EmployeeDB
	if err := r.q.SelectContext(c, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("ListByOrganization execution err")
		return nil, err
	}

	employees := make([]entity.Employee, 0, len(rows))
	for _, row := range rows {
		employees = append(employees, makeEmployee(row))
	}

	return employees, nil
}

// AddPoints increments point_total in a single statement so concurrent
// finalizes for one employee do not lose updates.
func (r *employeeRepository) AddPoints(c context.Context, email string, points int) error {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryAddEmployeePoints, map[string]interface{}{
		"email":  email,
		"points": points,
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("AddPoints named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	result, err := r.q.ExecContext(c, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("AddPoints execution err")
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return compliance.ErrEmployeeNotFound
	}

	return nil
}

func makeEmployee(row EmployeeDB) entity.Employee {
	return entity.Employee{
		ID:             row.ID.String,
		EmployeeCode:   row.EmployeeCode.String,
		Name:           row.Name.String,
		Email:          row.Email.String,
		OrganizationID: row.OrganizationID.String,
		ImagePath:      row.ImagePath.String,
		PointTotal:     int(row.PointTotal.Int64),
	}
}
