package entity

type Employee struct {
	ID             string `db:"id"`
	EmployeeCode   string `db:"employee_code"`
	Name           string `db:"name"`
	Email          string `db:"email"`
	OrganizationID string `db:"organization_id"`
	ImagePath      string `db:"image_path"`
	PointTotal     int    `db:"point_total"`
}

// AttendanceKey is the per-subject key used by rollups: the employee code when
// set, otherwise the e-mail.
func (e Employee) AttendanceKey() string {
	if e.EmployeeCode != "" {
		return e.EmployeeCode
	}
	return e.Email
}
