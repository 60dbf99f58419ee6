package rollup

import (
	"PPEGuard/internal/entity"
)

type ClassCount struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

// ComplianceSummary is the tier and violation tally for a set of compliance records.
type ComplianceSummary struct {
	Fully      int
	Partially  int
	Non        int
	Checked    int
	Violations [entity.EquipmentClassCount]int
}

// DailyCompliance tiers each record from its equipment status, not from the
// stored tier, and counts one violation per false required class.
func DailyCompliance(records []entity.ComplianceRecord) ComplianceSummary {
	var summary ComplianceSummary
	for _, record := range records {
		summary.add(record.EquipmentStatus)
	}
	return summary
}

func (s *ComplianceSummary) add(status entity.EquipmentStatus) {
	s.Checked++

	for _, c := range entity.RequiredEquipmentClasses {
		if !status[c] {
			s.Violations[c]++
		}
	}

	switch entity.TierFromMissed(status.MissedCount()) {
	case entity.ComplianceFully:
		s.Fully++
	case entity.CompliancePartially:
		s.Partially++
	default:
		s.Non++
	}
}

func (s *ComplianceSummary) Merge(other ComplianceSummary) {
	s.Fully += other.Fully
	s.Partially += other.Partially
	s.Non += other.Non
	s.Checked += other.Checked
	for i := range s.Violations {
		s.Violations[i] += other.Violations[i]
	}
}

func (s ComplianceSummary) SafetyRate() float64 {
	return SafetyRate(s.Fully, s.Partially, s.Checked)
}

func (s ComplianceSummary) DaySafetyRate() *float64 {
	return DaySafetyRate(s.Fully, s.Partially, s.Checked)
}

// ViolationList returns per-class violation counts for required classes in enum order.
func (s ComplianceSummary) ViolationList() []ClassCount {
	list := make([]ClassCount, 0, entity.RequiredClassCount)
	for _, c := range entity.RequiredEquipmentClasses {
		list = append(list, ClassCount{Item: c.String(), Count: s.Violations[c]})
	}
	return list
}

type TierShare struct {
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

type Distribution struct {
	Fully     TierShare `json:"fully"`
	Partially TierShare `json:"partially"`
	Non       TierShare `json:"non"`
	// TotalCompliancePercent is (fully + partially) over the same denominator.
	TotalCompliancePercent float64 `json:"total_compliance_percent"`
}

// Distribute expresses tier counts as percentages of denominator.
func (s ComplianceSummary) Distribute(denominator int) Distribution {
	return Distribution{
		Fully:                  TierShare{Count: s.Fully, Percent: Percent(s.Fully, denominator)},
		Partially:              TierShare{Count: s.Partially, Percent: Percent(s.Partially, denominator)},
		Non:                    TierShare{Count: s.Non, Percent: Percent(s.Non, denominator)},
		TotalCompliancePercent: Percent(s.Fully+s.Partially, denominator),
	}
}

// SubjectTally accumulates missed-item counts and checks per subject.
type SubjectTally struct {
	Missed map[string]int
	Checks map[string]int
}

func NewSubjectTally() SubjectTally {
	return SubjectTally{
		Missed: make(map[string]int),
		Checks: make(map[string]int),
	}
}

// Add folds records into the tally. When keep is non-nil only records it accepts are counted.
func (t SubjectTally) Add(records []entity.ComplianceRecord, keep func(entity.ComplianceRecord) bool) {
	for _, record := range records {
		if record.SubjectID == "" {
			continue
		}
		if keep != nil && !keep(record) {
			continue
		}
		t.Missed[record.SubjectID] += record.EquipmentStatus.MissedCount()
		t.Checks[record.SubjectID]++
	}
}
