package compliance

import (
	"time"

	"PPEGuard/internal/entity"
)

// JoinAttendance pairs attendance records with roster details. Records whose
// subject is not on the roster are left out.
func JoinAttendance(employees []entity.Employee, records []entity.AttendanceRecord) []AttendanceEntry {
	byEmail := make(map[string]entity.Employee, len(employees))
	for _, e := range employees {
		byEmail[e.Email] = e
	}

	entries := make([]AttendanceEntry, 0, len(records))
	for _, record := range records {
		emp, ok := byEmail[record.SubjectID]
		if !ok {
			continue
		}
		entries = append(entries, AttendanceEntry{
			EmployeeID: emp.EmployeeCode,
			Name:       emp.Name,
			Email:      emp.Email,
			ImagePath:  emp.ImagePath,
			MarkedAt:   record.CreatedAt.Format(time.RFC3339),
			Present:    record.Present,
		})
	}
	return entries
}

// Roster lists the subject ids of employees in roster order.
func Roster(employees []entity.Employee) []string {
	roster := make([]string, 0, len(employees))
	for _, e := range employees {
		roster = append(roster, e.Email)
	}
	return roster
}
