package entity

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

type EquipmentClass uint8

const (
	Helmet EquipmentClass = iota
	Gloves
	Vest
	Goggles
	EarProtection
	Person

	EquipmentClassCount = int(Person) + 1
)

// RequiredClassCount is the number of classes scored for compliance ("person" is not scored).
const RequiredClassCount = EquipmentClassCount - 1

var equipmentClassNames = [EquipmentClassCount]string{
	Helmet:        "helmet",
	Gloves:        "gloves",
	Vest:          "vest",
	Goggles:       "goggles",
	EarProtection: "ear_protection",
	Person:        "person",
}

// AllEquipmentClasses lists every class in enum order.
var AllEquipmentClasses = [EquipmentClassCount]EquipmentClass{Helmet, Gloves, Vest, Goggles, EarProtection, Person}

// RequiredEquipmentClasses lists the classes a subject must wear.
var RequiredEquipmentClasses = [RequiredClassCount]EquipmentClass{Helmet, Gloves, Vest, Goggles, EarProtection}

func (c EquipmentClass) String() string {
	if int(c) >= EquipmentClassCount {
		return fmt.Sprintf("equipment(%d)", uint8(c))
	}
	return equipmentClassNames[c]
}

// Label is the human form used in prompts, e.g. "ear protection".
func (c EquipmentClass) Label() string {
	return strings.ReplaceAll(c.String(), "_", " ")
}

func (c EquipmentClass) IsRequired() bool {
	return c != Person && int(c) < EquipmentClassCount
}

// ParseEquipmentClass normalizes a classifier label. The detector emits
// "ear protection" while stored documents use "ear_protection"; hyphen, space
// and underscore variants all resolve to EarProtection.
func ParseEquipmentClass(label string) (EquipmentClass, bool) {
	normalized := strings.ToLower(strings.TrimSpace(label))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)

	for i, name := range equipmentClassNames {
		if name == normalized {
			return EquipmentClass(i), true
		}
	}

	return 0, false
}

// EquipmentStatus holds one flag per class, indexed by EquipmentClass.
type EquipmentStatus [EquipmentClassCount]bool

func (s EquipmentStatus) Has(c EquipmentClass) bool {
	return s[c]
}

// WornCount counts required classes marked true.
func (s EquipmentStatus) WornCount() int {
	count := 0
	for _, c := range RequiredEquipmentClasses {
		if s[c] {
			count++
		}
	}
	return count
}

// MissedCount counts required classes marked false.
func (s EquipmentStatus) MissedCount() int {
	return RequiredClassCount - s.WornCount()
}

// Missing returns required classes marked false, in enum order.
func (s EquipmentStatus) Missing() []EquipmentClass {
	missing := make([]EquipmentClass, 0, RequiredClassCount)
	for _, c := range RequiredEquipmentClasses {
		if !s[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

func (s EquipmentStatus) AllTrue() bool {
	for _, v := range s {
		if !v {
			return false
		}
	}
	return true
}

func (s EquipmentStatus) Map() map[string]bool {
	m := make(map[string]bool, EquipmentClassCount)
	for _, c := range AllEquipmentClasses {
		m[c.String()] = s[c]
	}
	return m
}

func (s EquipmentStatus) MarshalJSON() ([]byte, error) {
	return jsoniter.Marshal(s.Map())
}

func (s *EquipmentStatus) UnmarshalJSON(data []byte) error {
	var raw map[string]bool
	if err := jsoniter.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = EquipmentStatus{}
	for key, v := range raw {
		c, ok := ParseEquipmentClass(key)
		if !ok {
			continue
		}
		s[c] = v
	}

	return nil
}

// DetectionCounts holds one round counter per class, indexed by EquipmentClass.
type DetectionCounts [EquipmentClassCount]int

func (d DetectionCounts) MarshalJSON() ([]byte, error) {
	m := make(map[string]int, EquipmentClassCount)
	for _, c := range AllEquipmentClasses {
		m[c.String()] = d[c]
	}
	return jsoniter.Marshal(m)
}

func (d *DetectionCounts) UnmarshalJSON(data []byte) error {
	var raw map[string]int
	if err := jsoniter.Unmarshal(data, &raw); err != nil {
		return err
	}

	*d = DetectionCounts{}
	for key, v := range raw {
		c, ok := ParseEquipmentClass(key)
		if !ok {
			continue
		}
		d[c] = v
	}

	return nil
}

// LabelSet converts raw classifier labels into a class set; unknown labels are dropped.
func LabelSet(labels []string) map[EquipmentClass]struct{} {
	set := make(map[EquipmentClass]struct{}, len(labels))
	for _, label := range labels {
		if c, ok := ParseEquipmentClass(label); ok {
			set[c] = struct{}{}
		}
	}
	return set
}
