package rollup

import "PPEGuard/internal/entity"

type AttendanceSummary struct {
	Present int
	Absent  int
}

func (a AttendanceSummary) Recorded() int {
	return a.Present + a.Absent
}

func SummarizeAttendance(records []entity.AttendanceRecord) AttendanceSummary {
	var summary AttendanceSummary
	for _, record := range records {
		if record.Present {
			summary.Present++
		} else {
			summary.Absent++
		}
	}
	return summary
}

// Unrecorded returns roster subjects that have no attendance record, in roster order.
func Unrecorded(roster []string, records []entity.AttendanceRecord) []string {
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		seen[record.SubjectID] = struct{}{}
	}

	missing := make([]string, 0)
	for _, subject := range roster {
		if _, ok := seen[subject]; ok {
			continue
		}
		seen[subject] = struct{}{}
		missing = append(missing, subject)
	}
	return missing
}
