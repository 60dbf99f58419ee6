package entity

import "time"

type SessionState string

const (
	SessionActive    SessionState = "ACTIVE"
	SessionFinalized SessionState = "FINALIZED"
	SessionExpired   SessionState = "EXPIRED"
)

// DetectionSession is the round accumulator for one subject. It lives only in
// the session store and is removed on finalize or expiry.
type DetectionSession struct {
	ID               string          `json:"id"`
	SubjectID        string          `json:"subject_id"`
	OrganizationID   string          `json:"organization_id"`
	RoundsCompleted  int             `json:"rounds_completed"`
	DetectionCounts  DetectionCounts `json:"detection_counts"`
	StableStatus     EquipmentStatus `json:"stable_status"`
	NoPersonRounds   int             `json:"no_person_rounds"`
	CreatedAt        time.Time       `json:"created_at"`
	LastActivityTime time.Time       `json:"last_activity_time"`
	ExpiresAt        time.Time       `json:"expires_at"`
}

func (s DetectionSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Touch refreshes the activity time and pushes the deadline out by ttl.
func (s *DetectionSession) Touch(now time.Time, ttl time.Duration) {
	s.LastActivityTime = now
	s.ExpiresAt = now.Add(ttl)
}

type FinalizeReason string

const (
	FinalizeNone          FinalizeReason = ""
	FinalizeAllPresent    FinalizeReason = "all_present"
	FinalizeEarlyMissing  FinalizeReason = "early_missing"
	FinalizeRoundsReached FinalizeReason = "max_rounds"
)

// SessionVerdict is the outcome of one advance.
type SessionVerdict struct {
	SessionID       string
	SubjectID       string
	Prompt          string
	EquipmentStatus EquipmentStatus
	MissingItems    []EquipmentClass
	RoundsCompleted int
	Finalized       bool
	Reason          FinalizeReason
	PointsAwarded   int
	ComplianceTier  ComplianceTier
	State           SessionState
	PartialWrite    bool
}
