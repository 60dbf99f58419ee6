package detectionService

import (
	"context"
	"errors"
	"time"

	"PPEGuard/internal/api/compliance"
	"PPEGuard/internal/api/detection"
	detectionRepository "PPEGuard/internal/api/detection/repository"
	"PPEGuard/internal/entity"
	"PPEGuard/pkg/classifier"
	contextPkg "PPEGuard/pkg/context"

	"github.com/sirupsen/logrus"
)

func (s *detectionService) StartSession(ctx context.Context, organizationID, subjectID string) (detection.StartSessionResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if subjectID == "" {
		return detection.StartSessionResponse{}, compliance.ErrMissingSubject
	}

	now := s.clock()
	session := entity.DetectionSession{
		ID:             s.utils.NewSessionID(),
		SubjectID:      subjectID,
		OrganizationID: organizationID,
		CreatedAt:      now,
	}
	session.Touch(now, s.policy.SessionTTL)

	err := s.sessions.Create(ctx, session)
	if errors.Is(err, detectionRepository.ErrSessionExists) {
		session.ID = s.utils.NewSessionID()
		err = s.sessions.Create(ctx, session)
	}
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"subject_id": subjectID,
			"error":      err.Error(),
		}).Error("Failed to create detection session")
		return detection.StartSessionResponse{}, detection.ErrStartSession
	}

	s.metrics.SessionStarted()
	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"session_id": session.ID,
		"subject_id": subjectID,
	}).Info("Detection session started")

	return detection.StartSessionResponse{
		SessionID: session.ID,
		SubjectID: subjectID,
		ExpiresAt: session.ExpiresAt,
		MaxRounds: s.policy.MaxRounds,
		Message:   "Session started successfully.",
	}, nil
}

func (s *detectionService) Advance(ctx context.Context, organizationID, sessionID string, labels []string) (detection.AdvanceResponse, error) {
	if labels == nil {
		return detection.AdvanceResponse{}, detection.ErrEmptyRound
	}
	return s.advance(ctx, organizationID, sessionID, labels, nil, nil)
}

// DetectAndAdvance classifies frame before taking the session lock, so a slow
// classifier never holds up the session or leaves a half-applied round.
func (s *detectionService) DetectAndAdvance(ctx context.Context, organizationID, sessionID string, frame []byte) (detection.AdvanceResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if len(frame) == 0 {
		return detection.AdvanceResponse{}, detection.ErrInvalidFrame
	}

	if _, err := s.sessions.Get(ctx, sessionID); err != nil {
		if errors.Is(err, detection.ErrSessionNotFound) {
			s.metrics.SessionMissing()
		}
		return detection.AdvanceResponse{}, err
	}

	start := time.Now()
	result, err := s.classifier.Detect(ctx, frame)
	s.metrics.ObserveClassifier(time.Since(start), err)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Classifier call failed")
		return detection.AdvanceResponse{}, detection.ErrClassifierUnavailable
	}

	return s.advance(ctx, organizationID, sessionID, result.Labels(), result.Detections, frame)
}

func (s *detectionService) advance(
	ctx context.Context,
	organizationID, sessionID string,
	labels []string,
	detections []classifier.Detection,
	frame []byte,
) (detection.AdvanceResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	unlock, err := s.sessions.Lock(ctx, sessionID)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"error":      err.Error(),
		}).Warn("Could not lock detection session")
		if errors.Is(err, detection.ErrSessionBusy) {
			return detection.AdvanceResponse{}, err
		}
		return detection.AdvanceResponse{}, detection.ErrSaveSession
	}
	defer unlock()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, detection.ErrSessionNotFound) {
			s.metrics.SessionMissing()
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"session_id": sessionID,
			}).Warn("Detection session not found or expired")
			return detection.AdvanceResponse{}, err
		}
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Failed to load detection session")
		return detection.AdvanceResponse{}, detection.ErrSaveSession
	}

	if organizationID != "" && session.OrganizationID != organizationID {
		return detection.AdvanceResponse{}, detection.ErrSessionForbidden
	}

	verdict := s.policy.Step(&session, entity.LabelSet(labels))
	s.metrics.RoundAdvanced()

	if !verdict.Finalized {
		session.Touch(s.clock(), s.policy.SessionTTL)
		if err := s.sessions.Save(ctx, session); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"session_id": sessionID,
				"error":      err.Error(),
			}).Error("Failed to save detection session")
			return detection.AdvanceResponse{}, detection.ErrSaveSession
		}
		return detection.NewAdvanceResponse(verdict, detections), nil
	}

	result, err := s.recorder.Record(ctx, compliance.RecordInput{
		SessionID:       session.ID,
		SubjectID:       session.SubjectID,
		OrganizationID:  session.OrganizationID,
		EquipmentStatus: verdict.EquipmentStatus,
		PointsAwarded:   verdict.PointsAwarded,
		ComplianceTier:  verdict.ComplianceTier,
		MissingItems:    verdict.MissingItems,
		RoundsCompleted: verdict.RoundsCompleted,
		Reason:          verdict.Reason,
		Evidence:        frame,
		Timestamp:       s.clock(),
	})
	if err != nil {
		// The stored session is left at its previous round so the caller can retry.
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Failed to record verdict")
		return detection.AdvanceResponse{}, err
	}
	verdict.PartialWrite = result.PartialWrite

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"error":      err.Error(),
		}).Warn("Failed to delete finalized session, it will expire on its own")
	}

	s.metrics.SessionFinalized(string(verdict.Reason), string(verdict.ComplianceTier))
	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"session_id": sessionID,
		"subject_id": session.SubjectID,
		"rounds":     verdict.RoundsCompleted,
		"reason":     verdict.Reason,
		"tier":       verdict.ComplianceTier,
		"points":     verdict.PointsAwarded,
	}).Info("Detection session finalized")

	return detection.NewAdvanceResponse(verdict, detections), nil
}
