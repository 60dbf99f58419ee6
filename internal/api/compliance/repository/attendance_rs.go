package complianceRepository

import (
	"context"
	"database/sql"
	"time"

	"PPEGuard/internal/entity"
	contextPkg "PPEGuard/pkg/context"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type AttendanceRecordDB struct {
	ID             sql.NullString `db:"id"`
	SubjectID      sql.NullString `db:"subject_id"`
	OrganizationID sql.NullString `db:"organization_id"`
	AttendanceDate sql.NullString `db:"attendance_date"`
	Present        sql.NullBool   `db:"present"`
	CreatedAt      time.Time      `db:"created_at"`
}

func (r *attendanceRepository) CreateAttendance(c context.Context, record entity.AttendanceRecord) error {
	requestID := contextPkg.GetRequestID(c)

	argsKV := map[string]interface{}{
		"id":              record.ID,
		"subject_id":      record.SubjectID,
		"organization_id": record.OrganizationID,
		"attendance_date": entity.DateKey(record.Date),
		"present":         record.Present,
		"created_at":      record.CreatedAt,
	}

	query, args, err := sqlx.Named(queryCreateAttendance, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CreateAttendance named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(c, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"subject_id": record.SubjectID,
			"error":      err.Error(),
		}).Error("Database error when creating attendance record")
		return err
	}

	return nil
}

func (r *attendanceRepository) ExistsForSubjectOnDate(c context.Context, subjectID string, date time.Time) (bool, error) {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryAttendanceExists, map[string]interface{}{
		"subject_id":      subjectID,
		"attendance_date": entity.DateKey(date),
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("ExistsForSubjectOnDate named query preparation err")
		return false, err
	}
	query = r.q.Rebind(query)

	var exists bool
	if err := r.q.GetContext(c, &exists, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("ExistsForSubjectOnDate execution err")
		return false, err
	}

	return exists, nil
}

func (r *attendanceRepository) ListByOrganizationBetween(c context.Context, organizationID string, from, to time.Time) ([]entity.AttendanceRecord, error) {
	return r.list(c, queryListAttendanceByOrganization, map[string]interface{}{
		"organization_id": organizationID,
		"from":            entity.DateKey(from),
		"to":              entity.DateKey(to),
	}, "ListAttendanceByOrganizationBetween")
}

func (r *attendanceRepository) ListBySubjectBetween(c context.Context, subjectID string, from, to time.Time) ([]entity.AttendanceRecord, error) {
	return r.list(c, queryListAttendanceBySubject, map[string]interface{}{
		"subject_id": subjectID,
		"from":       entity.DateKey(from),
		"to":         entity.DateKey(to),
	}, "ListAttendanceBySubjectBetween")
}

func (r *attendanceRepository) list(c context.Context, namedQuery string, argsKV map[string]interface{}, operation string) ([]entity.AttendanceRecord, error) {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(namedQuery, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(operation + " named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	var rows []AttendanceRecordDB
	if err := r.q.SelectContext(c, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(operation + " execution err")
		return nil, err
	}

	result := make([]entity.AttendanceRecord, 0, len(rows))
	for _, row := range rows {
		date, err := time.ParseInLocation(time.DateOnly, row.AttendanceDate.String, r.loc)
		if err != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"record_id":  row.ID.String,
				"error":      err.Error(),
			}).Warn("Skipping attendance record with unreadable date")
			continue
		}

		result = append(result, entity.AttendanceRecord{
			ID:             row.ID.String,
			SubjectID:      row.SubjectID.String,
			OrganizationID: row.OrganizationID.String,
			Date:           date,
			Present:        row.Present.Bool,
			CreatedAt:      row.CreatedAt.In(r.loc),
		})
	}

	return result, nil
}
