package complianceService

import (
	"context"
	"time"

	"PPEGuard/internal/api/compliance"
	complianceRepository "PPEGuard/internal/api/compliance/repository"
	"PPEGuard/pkg/events"
	"PPEGuard/pkg/keylock"
	"PPEGuard/pkg/metrics"
	"PPEGuard/pkg/s3"
	"PPEGuard/pkg/utils"

	"github.com/sirupsen/logrus"
)

type IComplianceService interface {
	Record(ctx context.Context, in compliance.RecordInput) (compliance.RecordResult, error)
	MarkAttended(ctx context.Context, subjectID, organizationID string, day time.Time) (compliance.MarkOutcome, error)
	Reconcile(ctx context.Context, organizationID string, day time.Time) (compliance.ReconcileResult, error)
	TodayAttendance(ctx context.Context, organizationID string, day time.Time) (compliance.TodayAttendanceResponse, error)
}

type complianceService struct {
	log                  *logrus.Logger
	complianceRepository complianceRepository.Repository
	s3                   s3.ItfS3
	publisher            events.Publisher
	metrics              *metrics.Metrics
	utils                utils.IUtils
	loc                  *time.Location
	clock                func() time.Time
	locks                *keylock.KeyLock
}

// NewComplianceService wires the recorder. s3Client may be nil, in which case
// evidence frames are dropped.
func NewComplianceService(
	log *logrus.Logger,
	cr complianceRepository.Repository,
	s3Client s3.ItfS3,
	publisher events.Publisher,
	m *metrics.Metrics,
	utils utils.IUtils,
	loc *time.Location,
) IComplianceService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if loc == nil {
		loc = time.Local
	}

	return &complianceService{
		log:                  log,
		complianceRepository: cr,
		s3:                   s3Client,
		publisher:            publisher,
		metrics:              m,
		utils:                utils,
		loc:                  loc,
		clock:                time.Now,
		locks:                keylock.New(),
	}
}

// calendarDate places t on its calendar day in the service timezone.
func (s *complianceService) calendarDate(t time.Time) time.Time {
	if t.IsZero() {
		t = s.clock()
	}
	local := t.In(s.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
}
