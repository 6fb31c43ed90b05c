package records

// Table holds the certificate records. Its schema is owned by the database.
const Table = "leap_certificate_details"

const (
	selectAllQuery = "SELECT * FROM " + Table

	totalCountQuery = "SELECT COUNT(*) AS total_count FROM " + Table

	topRMsQuery = `SELECT rm_name, COUNT(rm_name) AS rm_count
		FROM ` + Table + `
		GROUP BY rm_name
		ORDER BY rm_count DESC, rm_name ASC
		LIMIT 5`

	// Parameter: lower bound of the trailing window, inclusive.
	topMRsSinceQuery = `SELECT mr_name, COUNT(mr_name) AS mr_count
		FROM ` + Table + `
		WHERE date >= ?
		GROUP BY mr_name
		ORDER BY mr_count DESC, mr_name ASC
		LIMIT 5`

	// Parameters: start of the day (inclusive) and start of the next day (exclusive).
	topMRsBetweenQuery = `SELECT mr_name, COUNT(mr_name) AS mr_count
		FROM ` + Table + `
		WHERE date >= ? AND date < ?
		GROUP BY mr_name
		ORDER BY mr_count DESC, mr_name ASC
		LIMIT 5`
)

// Query names used in logs, errors and metrics
const (
	QuerySelectAll  = "select_all"
	QueryTotalCount = "total_count"
	QueryTopRMs     = "top_rms"
	QueryTopMRs     = "top_mrs"
	QueryTodayMRs   = "today_mrs"
)
