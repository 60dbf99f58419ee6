package complianceRepository

const (
	queryCreateComplianceRecord = `
		INSERT INTO compliance_records (
			id,
			subject_id,
			organization_id,
			equipment_status,
			points_awarded,
			compliance_tier,
			evidence_url,
			recorded_at
		) VALUES (
			:id,
			:subject_id,
			:organization_id,
			:equipment_status,
			:points_awarded,
			:compliance_tier,
			:evidence_url,
			:recorded_at
		)
	`

	queryListComplianceByOrganization = `
		SELECT
			id,
			subject_id,
			organization_id,
			equipment_status,
			points_awarded,
			compliance_tier,
			evidence_url,
			recorded_at
		FROM compliance_records
		WHERE organization_id = :organization_id
			AND recorded_at >= :from
			AND recorded_at < :to
		ORDER BY recorded_at ASC
	`

	queryListComplianceBySubject = `
		SELECT
			id,
			subject_id,
			organization_id,
			equipment_status,
			points_awarded,
			compliance_tier,
			evidence_url,
			recorded_at
		FROM compliance_records
		WHERE subject_id = :subject_id
			AND recorded_at >= :from
			AND recorded_at < :to
		ORDER BY recorded_at ASC
	`

	queryCreateAttendance = `
		INSERT INTO attendance_records (
			id,
			subject_id,
			organization_id,
			attendance_date,
			present,
			created_at
		) VALUES (
			:id,
			:subject_id,
			:organization_id,
			:attendance_date,
			:present,
			:created_at
		)
	`

	queryAttendanceExists = `
		SELECT EXISTS (
			SELECT 1
			FROM attendance_records
			WHERE subject_id = :subject_id
				AND attendance_date = :attendance_date
		)
	`

	queryListAttendanceByOrganization = `
		SELECT
			id,
			subject_id,
			organization_id,
			to_char(attendance_date, 'YYYY-MM-DD') AS attendance_date,
			present,
			created_at
		FROM attendance_records
		WHERE organization_id = :organization_id
			AND attendance_date >= :from
			AND attendance_date <= :to
		ORDER BY attendance_date ASC, created_at ASC
	`

	queryListAttendanceBySubject = `
		SELECT
			id,
			subject_id,
			organization_id,
			to_char(attendance_date, 'YYYY-MM-DD') AS attendance_date,
			present,
			created_at
		FROM attendance_records
		WHERE subject_id = :subject_id
			AND attendance_date >= :from
			AND attendance_date <= :to
		ORDER BY attendance_date ASC, created_at ASC
	`

	queryGetEmployeeByEmail = `
		SELECT
			id,
			organization_id,
			employee_code,
			name,
			email,
			image_path,
			point_total
		FROM employees
		WHERE email = :email
	`

	queryListEmployeesByOrganization = `
		SELECT
			id,
			organization_id,
			employee_code,
			name,
			email,
			image_path,
			point_total
		FROM employees
		WHERE organization_id = :organization_id
		ORDER BY name ASC
	`

	queryAddEmployeePoints = `
		UPDATE employees
		SET point_total = point_total + :points
		WHERE email = :email
	`
)
