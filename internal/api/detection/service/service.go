package detectionService

import (
	"context"
	"time"

	"PPEGuard/internal/api/compliance"
	"PPEGuard/internal/api/detection"
	detectionRepository "PPEGuard/internal/api/detection/repository"
	"PPEGuard/pkg/classifier"
	"PPEGuard/pkg/metrics"
	"PPEGuard/pkg/utils"

	"github.com/sirupsen/logrus"
)

// Recorder persists finalized verdicts.
type Recorder interface {
	Record(ctx context.Context, in compliance.RecordInput) (compliance.RecordResult, error)
}

type IDetectionService interface {
	StartSession(ctx context.Context, organizationID, subjectID string) (detection.StartSessionResponse, error)
	Advance(ctx context.Context, organizationID, sessionID string, labels []string) (detection.AdvanceResponse, error)
	DetectAndAdvance(ctx context.Context, organizationID, sessionID string, frame []byte) (detection.AdvanceResponse, error)
}

type detectionService struct {
	log        *logrus.Logger
	policy     detection.Policy
	sessions   detectionRepository.SessionStore
	classifier classifier.IClassifier
	recorder   Recorder
	metrics    *metrics.Metrics
	utils      utils.IUtils
	clock      func() time.Time
}

func NewDetectionService(
	log *logrus.Logger,
	policy detection.Policy,
	sessions detectionRepository.SessionStore,
	classifier classifier.IClassifier,
	recorder Recorder,
	m *metrics.Metrics,
	utils utils.IUtils,
) IDetectionService {
	return &detectionService{
		log:        log,
		policy:     policy,
		sessions:   sessions,
		classifier: classifier,
		recorder:   recorder,
		metrics:    m,
		utils:      utils,
		clock:      time.Now,
	}
}
