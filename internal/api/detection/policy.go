package detection

import (
	"fmt"
	"strings"
	"time"

	"PPEGuard/internal/entity"
)

const (
	PromptAllPresent = "✅ All PPE detected successfully!"
	PromptHoldStill  = "Hold still, verifying detection stability..."
)

// Policy holds the round budget and stability rules of a detection session.
type Policy struct {
	MaxRounds       int
	EarlyExitRounds int
	PointsPerItem   int
	SessionTTL      time.Duration
	StableThreshold [entity.EquipmentClassCount]int
	// NoPersonLimit is tracked on the session but does not end it.
	NoPersonLimit int
}

func DefaultPolicy() Policy {
	p := Policy{
		MaxRounds:       6,
		EarlyExitRounds: 4,
		PointsPerItem:   20,
		SessionTTL:      5 * time.Minute,
		NoPersonLimit:   3,
	}
	for i := range p.StableThreshold {
		p.StableThreshold[i] = 1
	}
	return p
}

func (p Policy) Validate() error {
	switch {
	case p.MaxRounds < 1:
		return fmt.Errorf("%w: max rounds must be positive", ErrInvalidPolicy)
	case p.EarlyExitRounds < 1:
		return fmt.Errorf("%w: early exit rounds must be positive", ErrInvalidPolicy)
	case p.PointsPerItem < 0:
		return fmt.Errorf("%w: points per item must not be negative", ErrInvalidPolicy)
	case p.SessionTTL <= 0:
		return fmt.Errorf("%w: session ttl must be positive", ErrInvalidPolicy)
	}
	for _, c := range entity.AllEquipmentClasses {
		if p.StableThreshold[c] < 1 {
			return fmt.Errorf("%w: stable threshold for %s must be positive", ErrInvalidPolicy, c)
		}
	}
	return nil
}

// Step applies one round of detected classes to s and decides whether the
// session ends. s is mutated in place; persistence is left to the caller.
func (p Policy) Step(s *entity.DetectionSession, detected map[entity.EquipmentClass]struct{}) entity.SessionVerdict {
	for c := range detected {
		s.DetectionCounts[c]++
	}
	s.RoundsCompleted++

	if _, ok := detected[entity.Person]; ok {
		s.NoPersonRounds = 0
	} else {
		s.NoPersonRounds++
	}

	for _, c := range entity.AllEquipmentClasses {
		s.StableStatus[c] = s.DetectionCounts[c] >= p.StableThreshold[c]
	}

	missing := s.StableStatus.Missing()
	verdict := entity.SessionVerdict{
		SessionID:       s.ID,
		SubjectID:       s.SubjectID,
		EquipmentStatus: s.StableStatus,
		MissingItems:    missing,
		RoundsCompleted: s.RoundsCompleted,
		State:           entity.SessionActive,
	}

	switch {
	case s.StableStatus.AllTrue():
		verdict.Reason = entity.FinalizeAllPresent
	case s.RoundsCompleted >= p.EarlyExitRounds && s.StableStatus.Has(entity.Person) && len(missing) > 0:
		verdict.Reason = entity.FinalizeEarlyMissing
	case s.RoundsCompleted >= p.MaxRounds:
		verdict.Reason = entity.FinalizeRoundsReached
	}

	if verdict.Reason == entity.FinalizeNone {
		verdict.Prompt = continuePrompt(missing)
		return verdict
	}

	verdict.Finalized = true
	verdict.State = entity.SessionFinalized
	verdict.Prompt = finalPrompt(missing)
	verdict.PointsAwarded = s.StableStatus.WornCount() * p.PointsPerItem
	verdict.ComplianceTier = entity.TierFromMissed(len(missing))
	return verdict
}

func finalPrompt(missing []entity.EquipmentClass) string {
	if len(missing) == 0 {
		return PromptAllPresent
	}

	labels := make([]string, 0, len(missing))
	for _, c := range missing {
		labels = append(labels, c.Label())
	}
	return "⚠️ Missing items: " + strings.Join(labels, ", ")
}

func continuePrompt(missing []entity.EquipmentClass) string {
	if len(missing) == 0 {
		return PromptHoldStill
	}
	return fmt.Sprintf("Please show your %s clearly.", missing[0].Label())
}
