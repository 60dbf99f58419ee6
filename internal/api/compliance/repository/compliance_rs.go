package complianceRepository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"PPEGuard/internal/entity"
	contextPkg "PPEGuard/pkg/context"

	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

type ComplianceRecordDB struct {
	ID              sql.NullString `db:"id"`
	SubjectID       sql.NullString `db:"subject_id"`
	OrganizationID  sql.NullString `db:"organization_id"`
	EquipmentStatus []byte         `db:"equipment_status"`
	PointsAwarded   sql.NullInt64  `db:"points_awarded"`
	ComplianceTier  sql.NullString `db:"compliance_tier"`
	EvidenceURL     sql.NullString `db:"evidence_url"`
	RecordedAt      time.Time      `db:"recorded_at"`
}

func (r *complianceRepository) CreateRecord(c context.Context, record entity.ComplianceRecord) error {
	requestID := contextPkg.GetRequestID(c)

	status, err := jsoniter.Marshal(record.EquipmentStatus)
	if err != nil {
		return fmt.Errorf("encode equipment status: %w", err)
	}

	argsKV := map[string]interface{}{
		"id":               record.ID,
		"subject_id":       record.SubjectID,
		"organization_id":  record.OrganizationID,
		"equipment_status": string(status),
		"points_awarded":   record.PointsAwarded,
		"compliance_tier":  string(record.ComplianceTier),
		"evidence_url":     sql.NullString{String: record.EvidenceURL, Valid: record.EvidenceURL != ""},
		"recorded_at":      record.Timestamp,
	}

	query, args, err := sqlx.Named(queryCreateComplianceRecord, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CreateRecord named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(c, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"subject_id": record.SubjectID,
			"error":      err.Error(),
		}).Error("Database error when creating compliance record")
		return err
	}

	return nil
}

func (r *complianceRepository) ListByOrganizationBetween(c context.Context, organizationID string, from, to time.Time) ([]entity.ComplianceRecord, error) {
	return r.list(c, queryListComplianceByOrganization, map[string]interface{}{
		"organization_id": organizationID,
		"from":            from,
		"to":              to,
	}, "ListByOrganizationBetween")
}

func (r *complianceRepository) ListBySubjectBetween(c context.Context, subjectID string, from, to time.Time) ([]entity.ComplianceRecord, error) {
	return r.list(c, queryListComplianceBySubject, map[string]interface{}{
		"subject_id": subjectID,
		"from":       from,
		"to":         to,
	}, "ListBySubjectBetween")
}

func (r *complianceRepository) list(c context.Context, namedQuery string, argsKV map[string]interface{}, operation string) ([]entity.ComplianceRecord, error) {
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

	var rows []ComplianceRecordDB
	if err := r.q.SelectContext(c, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(operation + " execution err")
		return nil, err
	}

	result := make([]entity.ComplianceRecord, 0, len(rows))
	for _, row := range rows {
		record, err := r.makeComplianceRecord(row)
		if err != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"record_id":  row.ID.String,
				"error":      err.Error(),
			}).Warn("Skipping compliance record with unreadable equipment status")
			continue
		}
		result = append(result, record)
	}

	return result, nil
}

func (r *complianceRepository) makeComplianceRecord(row ComplianceRecordDB) (entity.ComplianceRecord, error) {
	var status entity.EquipmentStatus
	if len(row.EquipmentStatus) > 0 {
		if err := jsoniter.Unmarshal(row.EquipmentStatus, &status); err != nil {
			return entity.ComplianceRecord{}, err
		}
	}

	return entity.ComplianceRecord{
		ID:              row.ID.String,
		SubjectID:       row.SubjectID.String,
		OrganizationID:  row.OrganizationID.String,
		EquipmentStatus: status,
		Timestamp:       row.RecordedAt.In(r.loc),
		PointsAwarded:   int(row.PointsAwarded.Int64),
		ComplianceTier:  entity.ComplianceTier(row.ComplianceTier.String),
		EvidenceURL:     row.EvidenceURL.String,
	}, nil
}
