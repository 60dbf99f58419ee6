package complianceService

import (
	"context"
	"time"

	"PPEGuard/internal/api/compliance"
	"PPEGuard/internal/entity"
	contextPkg "PPEGuard/pkg/context"
	"PPEGuard/pkg/events"
	"PPEGuard/pkg/rollup"

	"github.com/sirupsen/logrus"
)

// attendanceLockKey scopes the check-then-insert guard. Marking and
// reconciliation for one organization and day share it so an absent row can
// never race a present row for the same subject.
func attendanceLockKey(organizationID string, day time.Time) string {
	return "attendance:" + organizationID + ":" + entity.DateKey(day)
}

func (s *complianceService) MarkAttended(ctx context.Context, subjectID, organizationID string, day time.Time) (compliance.MarkOutcome, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if subjectID == "" {
		return "", compliance.ErrMissingSubject
	}

	date := s.calendarDate(day)
	unlock := s.locks.Lock(attendanceLockKey(organizationID, date))
	defer unlock()

	repo, err := s.complianceRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return "", compliance.ErrMarkAttendance
	}

	exists, err := repo.Attendance.ExistsForSubjectOnDate(ctx, subjectID, date)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"subject_id": subjectID,
			"error":      err.Error(),
		}).Error("Failed to check attendance")
		return "", compliance.ErrMarkAttendance
	}
	if exists {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"subject_id": subjectID,
			"date":       entity.DateKey(date),
		}).Debug("Attendance already marked")
		s.metrics.AttendanceMarked(string(compliance.MarkAlreadyMarked))
		return compliance.MarkAlreadyMarked, nil
	}

	record, err := s.newAttendance(subjectID, organizationID, date, true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate ULID")
		return "", compliance.ErrMarkAttendance
	}

	if err := repo.Attendance.CreateAttendance(ctx, record); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"subject_id": subjectID,
			"error":      err.Error(),
		}).Error("Failed to insert attendance")
		return "", compliance.ErrMarkAttendance
	}

	s.metrics.AttendanceMarked(string(compliance.MarkInserted))
	return compliance.MarkInserted, nil
}

func (s *complianceService) Reconcile(ctx context.Context, organizationID string, day time.Time) (compliance.ReconcileResult, error) {
	requestID := contextPkg.GetRequestID(ctx)

	date := s.calendarDate(day)
	unlock := s.locks.Lock(attendanceLockKey(organizationID, date))
	defer unlock()

	repo, err := s.complianceRepository.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return compliance.ReconcileResult{}, compliance.ErrReconcileAttendance
	}
	defer func() {
		if err != nil {
			if rbErr := repo.Rollback(); rbErr != nil {
				s.log.WithFields(logrus.Fields{
					"request_id": requestID,
					"error":      rbErr.Error(),
				}).Error("Failed to rollback reconciliation")
			}
		}
	}()

	records, err := repo.Attendance.ListByOrganizationBetween(ctx, organizationID, date, date)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to list attendance")
		return compliance.ReconcileResult{}, compliance.ErrReconcileAttendance
	}

	if len(records) == 0 {
		if err = repo.Commit(); err != nil {
			return compliance.ReconcileResult{}, compliance.ErrReconcileAttendance
		}
		return compliance.ReconcileResult{
			Status: compliance.StatusNoAttendance,
			Date:   entity.DateKey(date),
		}, nil
	}

	employees, err := repo.Employee.ListByOrganization(ctx, organizationID)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to list employees")
		return compliance.ReconcileResult{}, compliance.ErrReconcileAttendance
	}

	missing := rollup.Unrecorded(compliance.Roster(employees), records)
	for _, subjectID := range missing {
		var record entity.AttendanceRecord
		record, err = s.newAttendance(subjectID, organizationID, date, false)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Error("Failed to generate ULID")
			return compliance.ReconcileResult{}, compliance.ErrReconcileAttendance
		}

		if err = repo.Attendance.CreateAttendance(ctx, record); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"subject_id": subjectID,
				"error":      err.Error(),
			}).Error("Failed to insert absent record")
			return compliance.ReconcileResult{}, compliance.ErrReconcileAttendance
		}
	}

	if err = repo.Commit(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to commit reconciliation")
		return compliance.ReconcileResult{}, compliance.ErrReconcileAttendance
	}

	summary := rollup.SummarizeAttendance(records)
	result := compliance.ReconcileResult{
		Status:         compliance.StatusFinalized,
		Date:           entity.DateKey(date),
		PresentCount:   summary.Present,
		AbsentCount:    summary.Absent + len(missing),
		TotalEmployees: len(employees),
		FirstFinalize:  len(missing) > 0,
		InsertedAbsent: len(missing),
	}

	s.log.WithFields(logrus.Fields{
		"request_id":      requestID,
		"organization_id": organizationID,
		"date":            result.Date,
		"inserted":        result.InsertedAbsent,
	}).Info("Attendance reconciled")

	pubErr := s.publisher.PublishAttendanceFinalized(ctx, events.AttendanceFinalizedEvent{
		Type:           events.TypeAttendanceFinalized,
		OrganizationID: organizationID,
		Date:           result.Date,
		Present:        result.PresentCount,
		Absent:         result.AbsentCount,
		Total:          result.TotalEmployees,
		FirstFinalize:  result.FirstFinalize,
		Timestamp:      s.clock(),
	})
	s.metrics.EventPublished(events.TypeAttendanceFinalized, pubErr)
	if pubErr != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      pubErr.Error(),
		}).Warn("Failed to publish attendance event")
	}

	return result, nil
}

func (s *complianceService) TodayAttendance(ctx context.Context, organizationID string, day time.Time) (compliance.TodayAttendanceResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)
	date := s.calendarDate(day)

	repo, err := s.complianceRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return compliance.TodayAttendanceResponse{}, compliance.ErrLoadAttendance
	}

	records, err := repo.Attendance.ListByOrganizationBetween(ctx, organizationID, date, date)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to list attendance")
		return compliance.TodayAttendanceResponse{}, compliance.ErrLoadAttendance
	}

	employees, err := repo.Employee.ListByOrganization(ctx, organizationID)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to list employees")
		return compliance.TodayAttendanceResponse{}, compliance.ErrLoadAttendance
	}

	summary := rollup.SummarizeAttendance(records)
	return compliance.TodayAttendanceResponse{
		Date:       entity.DateKey(date),
		Present:    summary.Present,
		Absent:     summary.Absent,
		Attendance: compliance.JoinAttendance(employees, records),
	}, nil
}

func (s *complianceService) newAttendance(subjectID, organizationID string, date time.Time, present bool) (entity.AttendanceRecord, error) {
	now := s.clock()
	ULID, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		return entity.AttendanceRecord{}, err
	}

	return entity.AttendanceRecord{
		ID:             ULID,
		SubjectID:      subjectID,
		OrganizationID: organizationID,
		Date:           date,
		Present:        present,
		CreatedAt:      now,
	}, nil
}
