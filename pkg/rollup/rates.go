package rollup

import "math"

// PartialWeight is the credit a partially compliant check contributes to the safety rate.
const PartialWeight = 0.6

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SafetyRate is (fully + 0.6*partially) / checked * 100, rounded to 2 decimals. Zero checks yield 0.
func SafetyRate(fully, partially, checked int) float64 {
	if checked == 0 {
		return 0
	}
	return Round2((float64(fully) + float64(partially)*PartialWeight) / float64(checked) * 100)
}

// DaySafetyRate is SafetyRate for a single day; nil when nothing was checked that day.
func DaySafetyRate(fully, partially, checked int) *float64 {
	if checked == 0 {
		return nil
	}
	rate := SafetyRate(fully, partially, checked)
	return &rate
}

func AttendanceRate(present, total int) float64 {
	return Percent(present, total)
}

// Percent is part/total*100 rounded to 2 decimals, 0 for an empty total.
func Percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return Round2(float64(part) / float64(total) * 100)
}

// PercentFloat is Percent for fractional numerators (e.g. averaged daily counts).
func PercentFloat(part float64, total int) float64 {
	if total == 0 {
		return 0
	}
	return Round2(part / float64(total) * 100)
}

// Average returns the rounded mean of values, 0 for none.
func Average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return Round2(sum / float64(len(values)))
}

// WornPercent is the share of required items worn across checks:
// (checks*required - missed) / (checks*required) * 100.
func WornPercent(checks, missed, required int) float64 {
	if checks == 0 {
		return 0
	}
	maxItems := checks * required
	if maxItems < 1 {
		maxItems = 1
	}
	return Round2(float64(maxItems-missed) / float64(maxItems) * 100)
}
