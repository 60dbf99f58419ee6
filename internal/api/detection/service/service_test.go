package detectionService

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"PPEGuard/internal/api/compliance"
	"PPEGuard/internal/api/detection"
	detectionRepository "PPEGuard/internal/api/detection/repository"
	"PPEGuard/internal/entity"
	"PPEGuard/pkg/classifier"
	"PPEGuard/pkg/metrics"
	"PPEGuard/pkg/utils"

	"github.com/sirupsen/logrus"
)

type fakeRecorder struct {
	mu      sync.Mutex
	inputs  []compliance.RecordInput
	err     error
	partial bool
}

func (f *fakeRecorder) Record(_ context.Context, in compliance.RecordInput) (compliance.RecordResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return compliance.RecordResult{}, f.err
	}
	f.inputs = append(f.inputs, in)
	return compliance.RecordResult{RecordID: "r", PartialWrite: f.partial}, nil
}

type fakeClassifier struct {
	result *classifier.Result
	err    error
	calls  int
}

func (f *fakeClassifier) Detect(context.Context, []byte) (*classifier.Result, error) {
	f.calls++
	return f.result, f.err
}

func (f *fakeClassifier) IsConnected() bool { return f.err == nil }

func (f *fakeClassifier) Reconnect() error { return nil }

func (f *fakeClassifier) Close() {}

type harness struct {
	svc        *detectionService
	recorder   *fakeRecorder
	classifier *fakeClassifier
	metrics    *metrics.Metrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	store := detectionRepository.NewMemorySessionStore(log, 0)
	t.Cleanup(func() { _ = store.Close() })

	h := &harness{
		recorder:   &fakeRecorder{},
		classifier: &fakeClassifier{},
		metrics:    metrics.New(),
	}
	h.svc = NewDetectionService(log, detection.DefaultPolicy(), store, h.classifier, h.recorder, h.metrics, utils.New()).(*detectionService)
	return h
}

func (h *harness) start(t *testing.T) string {
	t.Helper()
	resp, err := h.svc.StartSession(context.Background(), "org-1", "w@acme.test")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return resp.SessionID
}

var allLabels = []string{"helmet", "gloves", "vest", "goggles", "ear protection", "person"}

func TestAdvanceAllPresentRecordsFullVerdict(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)

	resp, err := h.svc.Advance(context.Background(), "org-1", id, allLabels)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if !resp.Finalized || resp.RoundsCompleted != 1 || resp.PointsAwarded != 100 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.State != string(entity.SessionFinalized) || resp.Prompt != detection.PromptAllPresent {
		t.Fatalf("unexpected state %q prompt %q", resp.State, resp.Prompt)
	}
	if len(h.recorder.inputs) != 1 {
		t.Fatalf("expected one record, got %d", len(h.recorder.inputs))
	}
	in := h.recorder.inputs[0]
	if in.SubjectID != "w@acme.test" || in.OrganizationID != "org-1" || in.ComplianceTier != entity.ComplianceFully {
		t.Fatalf("unexpected record input %+v", in)
	}

	if _, err := h.svc.Advance(context.Background(), "org-1", id, allLabels); !errors.Is(err, detection.ErrSessionNotFound) {
		t.Fatalf("finalized session must be gone, got %v", err)
	}
}

func TestAdvanceMissingGlovesFinalizesAtRoundFour(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)
	labels := []string{"helmet", "vest", "goggles", "ear_protection", "person"}

	for round := 1; round <= 3; round++ {
		resp, err := h.svc.Advance(context.Background(), "org-1", id, labels)
		if err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
		if resp.Finalized || resp.Prompt != "Please show your gloves clearly." {
			t.Fatalf("round %d: unexpected response %+v", round, resp)
		}
	}

	resp, err := h.svc.Advance(context.Background(), "org-1", id, labels)
	if err != nil {
		t.Fatalf("round 4: %v", err)
	}
	if !resp.Finalized || resp.RoundsCompleted != 4 || resp.Reason != string(entity.FinalizeEarlyMissing) {
		t.Fatalf("expected early finalize at round 4, got %+v", resp)
	}
	if len(resp.MissingItems) != 1 || resp.MissingItems[0] != "gloves" || resp.PointsAwarded != 80 {
		t.Fatalf("unexpected verdict %+v", resp)
	}
}

func TestAdvanceWithoutPersonUsesFullBudget(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)

	var resp detection.AdvanceResponse
	var err error
	for round := 1; round <= 6; round++ {
		resp, err = h.svc.Advance(context.Background(), "org-1", id, []string{"helmet"})
		if err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
		if round < 6 && resp.Finalized {
			t.Fatalf("finalized early at round %d", round)
		}
	}
	if !resp.Finalized || resp.Reason != string(entity.FinalizeRoundsReached) || resp.ComplianceTier != string(entity.ComplianceNon) {
		t.Fatalf("unexpected final response %+v", resp)
	}
}

func TestAdvanceUnknownAndExpiredSessions(t *testing.T) {
	h := newHarness(t)

	if _, err := h.svc.Advance(context.Background(), "org-1", "nope", allLabels); !errors.Is(err, detection.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	h.svc.clock = func() time.Time { return time.Now().Add(-10 * time.Minute) }
	id := h.start(t)
	h.svc.clock = time.Now

	if _, err := h.svc.Advance(context.Background(), "org-1", id, allLabels); !errors.Is(err, detection.ErrSessionNotFound) {
		t.Fatalf("expected expired session to be rejected, got %v", err)
	}
	if len(h.recorder.inputs) != 0 {
		t.Fatalf("expired session must not produce a record")
	}
}

func TestAdvanceRejectsOtherOrganization(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)

	if _, err := h.svc.Advance(context.Background(), "org-2", id, allLabels); !errors.Is(err, detection.ErrSessionForbidden) {
		t.Fatalf("expected ErrSessionForbidden, got %v", err)
	}
}

func TestAdvanceRequiresLabels(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)

	if _, err := h.svc.Advance(context.Background(), "org-1", id, nil); !errors.Is(err, detection.ErrEmptyRound) {
		t.Fatalf("expected ErrEmptyRound, got %v", err)
	}
}

func TestConcurrentAdvancesAreSerialized(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, missing, finalized := 0, 0, 0

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := h.svc.Advance(context.Background(), "org-1", id, []string{})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, detection.ErrSessionNotFound):
				missing++
			case err != nil:
				t.Errorf("unexpected error: %v", err)
			default:
				succeeded++
				if resp.Finalized {
					finalized++
				}
			}
		}()
	}
	wg.Wait()

	if succeeded != 6 || missing != 4 || finalized != 1 {
		t.Fatalf("expected 6 rounds, 4 misses and 1 finalize, got %d, %d and %d", succeeded, missing, finalized)
	}
	if len(h.recorder.inputs) != 1 || h.recorder.inputs[0].RoundsCompleted != 6 {
		t.Fatalf("unexpected records %+v", h.recorder.inputs)
	}
}

func TestRecorderFailureKeepsSession(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)
	h.recorder.err = compliance.ErrRecordCompliance

	if _, err := h.svc.Advance(context.Background(), "org-1", id, allLabels); !errors.Is(err, compliance.ErrRecordCompliance) {
		t.Fatalf("expected record error, got %v", err)
	}

	h.recorder.err = nil
	resp, err := h.svc.Advance(context.Background(), "org-1", id, allLabels)
	if err != nil || !resp.Finalized || resp.RoundsCompleted != 1 {
		t.Fatalf("expected retry to finalize on round 1, got %+v (%v)", resp, err)
	}
}

func TestDetectAndAdvance(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)
	h.classifier.result = &classifier.Result{Detections: []classifier.Detection{
		{Class: "person", Confidence: 0.9, BBox: []float64{0, 0, 10, 10}},
		{Class: "helmet", Confidence: 0.8, BBox: []float64{1, 1, 4, 4}},
	}}

	resp, err := h.svc.DetectAndAdvance(context.Background(), "org-1", id, []byte{0xff, 0xd8})
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if resp.Finalized || len(resp.Detections) != 2 || !resp.Status.Has(entity.Helmet) {
		t.Fatalf("unexpected response %+v", resp)
	}

	h.classifier.err = classifier.ErrUnavailable
	if _, err := h.svc.DetectAndAdvance(context.Background(), "org-1", id, []byte{0xff}); !errors.Is(err, detection.ErrClassifierUnavailable) {
		t.Fatalf("expected ErrClassifierUnavailable, got %v", err)
	}

	h.classifier.err = nil
	resp, err = h.svc.Advance(context.Background(), "org-1", id, []string{"person"})
	if err != nil || resp.RoundsCompleted != 2 {
		t.Fatalf("classifier failure must not consume a round, got %+v (%v)", resp, err)
	}
}

func TestDetectAndAdvanceUnknownSessionSkipsClassifier(t *testing.T) {
	h := newHarness(t)

	if _, err := h.svc.DetectAndAdvance(context.Background(), "org-1", "nope", []byte{1}); !errors.Is(err, detection.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if h.classifier.calls != 0 {
		t.Fatalf("classifier must not run for unknown sessions")
	}
}

// slowStore widens the gap between reading and saving a session.
type slowStore struct {
	detectionRepository.SessionStore
}

func (s slowStore) Get(ctx context.Context, id string) (entity.DetectionSession, error) {
	time.Sleep(2 * time.Millisecond)
	return s.SessionStore.Get(ctx, id)
}

func TestAdvanceSerializedAcrossInstances(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	store := detectionRepository.NewMemorySessionStore(log, 0)
	t.Cleanup(func() { _ = store.Close() })
	shared := slowStore{store}

	policy := detection.DefaultPolicy()
	policy.MaxRounds = 1000
	policy.EarlyExitRounds = 1000

	instances := make([]IDetectionService, 2)
	for i := range instances {
		instances[i] = NewDetectionService(log, policy, shared, &fakeClassifier{}, &fakeRecorder{}, nil, utils.New())
	}

	started, err := instances[0].StartSession(context.Background(), "org-1", "w@acme.test")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	var wg sync.WaitGroup
	for _, svc := range instances {
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := svc.Advance(context.Background(), "org-1", started.SessionID, []string{"person"}); err != nil {
					t.Errorf("advance: %v", err)
				}
			}()
		}
	}
	wg.Wait()

	session, err := store.Get(context.Background(), started.SessionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if session.RoundsCompleted != 40 {
		t.Fatalf("expected 40 rounds, got %d", session.RoundsCompleted)
	}
}

func TestAdvanceBusySession(t *testing.T) {
	h := newHarness(t)
	id := h.start(t)

	unlock, err := h.svc.sessions.Lock(context.Background(), id)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := h.svc.Advance(ctx, "org-1", id, []string{"person"}); !errors.Is(err, detection.ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy, got %v", err)
	}
}
