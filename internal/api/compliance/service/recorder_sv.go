package complianceService

import (
	"context"
	"errors"
	"fmt"

	"PPEGuard/internal/api/compliance"
	"PPEGuard/internal/entity"
	contextPkg "PPEGuard/pkg/context"
	"PPEGuard/pkg/events"

	"github.com/sirupsen/logrus"
)

func (s *complianceService) Record(ctx context.Context, in compliance.RecordInput) (compliance.RecordResult, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if in.SubjectID == "" {
		return compliance.RecordResult{}, compliance.ErrMissingSubject
	}
	if !entity.IsValidComplianceTier(string(in.ComplianceTier)) {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"tier":       in.ComplianceTier,
		}).Warn("Invalid compliance tier")
		return compliance.RecordResult{}, compliance.ErrInvalidComplianceTier
	}

	timestamp := in.Timestamp
	if timestamp.IsZero() {
		timestamp = s.clock()
	}
	timestamp = timestamp.In(s.loc)

	ULID, err := s.utils.NewULIDFromTimestamp(timestamp)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate ULID")
		return compliance.RecordResult{}, compliance.ErrRecordCompliance
	}

	result := compliance.RecordResult{RecordID: ULID}
	result.EvidenceURL = s.storeEvidence(ctx, in, ULID)

	record := entity.ComplianceRecord{
		ID:              ULID,
		SubjectID:       in.SubjectID,
		OrganizationID:  in.OrganizationID,
		EquipmentStatus: in.EquipmentStatus,
		Timestamp:       timestamp,
		PointsAwarded:   in.PointsAwarded,
		ComplianceTier:  in.ComplianceTier,
		EvidenceURL:     result.EvidenceURL,
	}

	repo, err := s.complianceRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return compliance.RecordResult{}, compliance.ErrRecordCompliance
	}

	if err := repo.Compliance.CreateRecord(ctx, record); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"subject_id": in.SubjectID,
			"error":      err.Error(),
		}).Error("Failed to create compliance record")
		return compliance.RecordResult{}, compliance.ErrRecordCompliance
	}

	if err := repo.Employee.AddPoints(ctx, in.SubjectID, in.PointsAwarded); err != nil {
		if errors.Is(err, compliance.ErrEmployeeNotFound) {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"subject_id": in.SubjectID,
			}).Warn("Employee not found, point total not updated")
		} else {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"subject_id": in.SubjectID,
				"record_id":  ULID,
				"error":      err.Error(),
			}).Error("Compliance record stored but point update failed")
			result.PartialWrite = true
		}
	} else {
		result.PointsAdded = true
	}

	outcome, err := s.MarkAttended(ctx, in.SubjectID, in.OrganizationID, timestamp)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"subject_id": in.SubjectID,
			"record_id":  ULID,
			"error":      err.Error(),
		}).Error("Compliance record stored but attendance marking failed")
		result.PartialWrite = true
	}
	result.Attendance = outcome

	s.publishVerdict(ctx, in, record)

	return result, nil
}

// storeEvidence uploads the last frame of a session that was not fully
// compliant. Failures only cost the link.
func (s *complianceService) storeEvidence(ctx context.Context, in compliance.RecordInput, recordID string) string {
	if s.s3 == nil || len(in.Evidence) == 0 || in.ComplianceTier == entity.ComplianceFully {
		return ""
	}

	key := fmt.Sprintf("%s/%s/%s.jpg", in.OrganizationID, in.SubjectID, recordID)
	url, err := s.s3.UploadBytes(ctx, key, in.Evidence)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"key":        key,
			"error":      err.Error(),
		}).Warn("Failed to upload evidence frame")
		return ""
	}
	return url
}

func (s *complianceService) publishVerdict(ctx context.Context, in compliance.RecordInput, record entity.ComplianceRecord) {
	missing := make([]string, 0, len(in.MissingItems))
	for _, item := range in.MissingItems {
		missing = append(missing, item.String())
	}

	err := s.publisher.PublishVerdict(ctx, events.VerdictEvent{
		Type:            events.TypeVerdict,
		RecordID:        record.ID,
		SessionID:       in.SessionID,
		SubjectID:       record.SubjectID,
		OrganizationID:  record.OrganizationID,
		ComplianceTier:  string(record.ComplianceTier),
		PointsAwarded:   record.PointsAwarded,
		MissingItems:    missing,
		RoundsCompleted: in.RoundsCompleted,
		Reason:          string(in.Reason),
		Timestamp:       record.Timestamp,
	})
	s.metrics.EventPublished(events.TypeVerdict, err)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"record_id":  record.ID,
			"error":      err.Error(),
		}).Warn("Failed to publish verdict event")
	}
}
