package rollup

import (
	"fmt"
	"testing"
	"time"

	"PPEGuard/internal/entity"
)

func statusWith(classes ...entity.EquipmentClass) entity.EquipmentStatus {
	var status entity.EquipmentStatus
	status[entity.Person] = true
	for _, c := range classes {
		status[c] = true
	}
	return status
}

func TestSafetyRateZeroChecks(t *testing.T) {
	if got := SafetyRate(0, 0, 0); got != 0 {
		t.Fatalf("expected 0 for zero checks, got %.2f", got)
	}
	if got := DaySafetyRate(0, 0, 0); got != nil {
		t.Fatalf("expected nil day rate for zero checks, got %v", *got)
	}
}

func TestSafetyRateWeightsPartial(t *testing.T) {
	if got := SafetyRate(3, 2, 5); got != 84.0 {
		t.Fatalf("expected 84.00, got %.2f", got)
	}
	if got := SafetyRate(1, 1, 3); got != 53.33 {
		t.Fatalf("expected 53.33, got %.2f", got)
	}
}

func TestAttendanceRateZeroRoster(t *testing.T) {
	if got := AttendanceRate(4, 0); got != 0 {
		t.Fatalf("expected 0 for empty roster, got %.2f", got)
	}
	if got := AttendanceRate(2, 3); got != 66.67 {
		t.Fatalf("expected 66.67, got %.2f", got)
	}
}

func TestDailyComplianceTiersAndViolations(t *testing.T) {
	records := []entity.ComplianceRecord{
		{SubjectID: "a", EquipmentStatus: statusWith(entity.Helmet, entity.Gloves, entity.Vest, entity.Goggles, entity.EarProtection)},
		{SubjectID: "b", EquipmentStatus: statusWith(entity.Helmet, entity.Gloves, entity.Vest)},
		{SubjectID: "c", EquipmentStatus: statusWith(entity.Helmet)},
	}

	summary := DailyCompliance(records)
	if summary.Fully != 1 || summary.Partially != 1 || summary.Non != 1 {
		t.Fatalf("unexpected tiers %+v", summary)
	}
	if summary.Checked != 3 {
		t.Fatalf("expected 3 checked, got %d", summary.Checked)
	}
	if summary.Violations[entity.Goggles] != 2 || summary.Violations[entity.Helmet] != 0 || summary.Violations[entity.Gloves] != 1 {
		t.Fatalf("unexpected violations %v", summary.Violations)
	}
	if summary.Violations[entity.Person] != 0 {
		t.Fatalf("person must never count as a violation")
	}

	list := summary.ViolationList()
	if len(list) != entity.RequiredClassCount || list[4].Item != "ear_protection" || list[4].Count != 2 {
		t.Fatalf("unexpected violation list %+v", list)
	}
}

func TestDistributeGuardsDenominator(t *testing.T) {
	summary := ComplianceSummary{Fully: 2, Partially: 1, Non: 1, Checked: 4}

	empty := summary.Distribute(0)
	if empty.Fully.Percent != 0 || empty.TotalCompliancePercent != 0 {
		t.Fatalf("expected zero percents, got %+v", empty)
	}

	dist := summary.Distribute(4)
	if dist.Fully.Percent != 50 || dist.Partially.Percent != 25 || dist.TotalCompliancePercent != 75 {
		t.Fatalf("unexpected distribution %+v", dist)
	}
}

func TestTopNSortedAndBounded(t *testing.T) {
	counts := map[string]int{}
	for i := 0; i < 12; i++ {
		counts[fmt.Sprintf("emp-%02d", i)] = (i * 7) % 5
	}

	for _, n := range []int{0, 1, 5, 6, 20} {
		top := TopN(counts, n)
		if len(top) > n {
			t.Fatalf("TopN(%d) returned %d entries", n, len(top))
		}
		for i := 1; i < len(top); i++ {
			if top[i-1].Count < top[i].Count {
				t.Fatalf("TopN(%d) not descending: %+v", n, top)
			}
		}
	}

	top := TopN(map[string]int{"b": 3, "a": 3, "c": 9}, 2)
	if top[0].Key != "c" || top[1].Key != "a" {
		t.Fatalf("unexpected tie ordering %+v", top)
	}
}

func TestTrailingAndPreviousWeek(t *testing.T) {
	anchor := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)
	week := TrailingWeek(anchor)
	if entity.DateKey(week.Start) != "2026-03-04" || entity.DateKey(week.End) != "2026-03-10" {
		t.Fatalf("unexpected week %v - %v", week.Start, week.End)
	}
	if week.Len() != 7 {
		t.Fatalf("expected 7 days, got %d", week.Len())
	}

	prev := PreviousWeek(week)
	if entity.DateKey(prev.Start) != "2026-02-25" || entity.DateKey(prev.End) != "2026-03-03" {
		t.Fatalf("unexpected previous week %v - %v", prev.Start, prev.End)
	}
}

func TestCalendarMonthWeeks(t *testing.T) {
	month := CalendarMonth(time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC))
	if month.Len() != 28 {
		t.Fatalf("expected 28 days in Feb 2026, got %d", month.Len())
	}
	if weeks := month.Weeks(); len(weeks) != 4 {
		t.Fatalf("expected 4 weeks, got %d", len(weeks))
	}

	prev := PreviousMonth(month)
	if entity.DateKey(prev.Start) != "2026-01-01" || entity.DateKey(prev.End) != "2026-01-31" {
		t.Fatalf("unexpected previous month %v - %v", prev.Start, prev.End)
	}
	weeks := prev.Weeks()
	if len(weeks) != 5 {
		t.Fatalf("expected 5 weeks in January, got %d", len(weeks))
	}
	last := weeks[len(weeks)-1]
	if entity.DateKey(last.Start) != "2026-01-29" || entity.DateKey(last.End) != "2026-01-31" {
		t.Fatalf("unexpected trailing chunk %v - %v", last.Start, last.End)
	}

	jan := CalendarMonth(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
	if dec := PreviousMonth(jan); dec.Start.Year() != 2025 || dec.Start.Month() != time.December {
		t.Fatalf("expected December 2025, got %v", dec.Start)
	}
}

func TestUnrecorded(t *testing.T) {
	roster := []string{"a", "b", "c", "d"}
	records := []entity.AttendanceRecord{{SubjectID: "b", Present: true}, {SubjectID: "d", Present: false}}

	missing := Unrecorded(roster, records)
	if len(missing) != 2 || missing[0] != "a" || missing[1] != "c" {
		t.Fatalf("unexpected unrecorded %v", missing)
	}

	summary := SummarizeAttendance(records)
	if summary.Present != 1 || summary.Absent != 1 || summary.Recorded() != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestWornPercent(t *testing.T) {
	if got := WornPercent(0, 0, 5); got != 0 {
		t.Fatalf("expected 0 without checks, got %.2f", got)
	}
	if got := WornPercent(2, 3, 5); got != 70 {
		t.Fatalf("expected 70, got %.2f", got)
	}
}
