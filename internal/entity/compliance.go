package entity

import "time"

type ComplianceTier string

const (
	ComplianceFully     ComplianceTier = "fully"
	CompliancePartially ComplianceTier = "partially"
	ComplianceNon       ComplianceTier = "non"
)

// TierFromMissed buckets a missed required-class count: 0 is fully, 1-2 partially, 3+ non.
func TierFromMissed(missed int) ComplianceTier {
	switch {
	case missed <= 0:
		return ComplianceFully
	case missed <= 2:
		return CompliancePartially
	default:
		return ComplianceNon
	}
}

func IsValidComplianceTier(tier string) bool {
	switch ComplianceTier(tier) {
	case ComplianceFully, CompliancePartially, ComplianceNon:
		return true
	default:
		return false
	}
}

type ComplianceRecord struct {
	ID              string          `json:"id"`
	SubjectID       string          `json:"subject_id"`
	OrganizationID  string          `json:"organization_id"`
	EquipmentStatus EquipmentStatus `json:"equipment_status"`
	Timestamp       time.Time       `json:"timestamp"`
	PointsAwarded   int             `json:"points_awarded"`
	ComplianceTier  ComplianceTier  `json:"compliance_tier"`
	EvidenceURL     string          `json:"evidence_url,omitempty"`
}

type AttendanceRecord struct {
	ID             string    `json:"id"`
	SubjectID      string    `json:"subject_id"`
	OrganizationID string    `json:"organization_id"`
	Date           time.Time `json:"date"`
	Present        bool      `json:"present"`
	CreatedAt      time.Time `json:"created_at"`
}

// CalendarDate truncates t to midnight of its calendar day in t's location.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DateKey formats a calendar date as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Format(time.DateOnly)
}
