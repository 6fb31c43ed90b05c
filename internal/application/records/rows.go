package records

import (
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
)

// Row is one record keyed by column name
type Row map[string]any

// scanRows reads every row of rs into column-keyed maps. Text-protocol
// values arrive as []byte and are converted by declared column type.
func scanRows(rs *sql.Rows) ([]Row, error) {
	cols, err := rs.Columns()
	if err != nil {
		return nil, err
	}

	typeNames := make([]string, len(cols))
	if types, err := rs.ColumnTypes(); err == nil {
		for i, ct := range types {
			typeNames[i] = ct.DatabaseTypeName()
		}
	}

	result := make([]Row, 0)
	for rs.Next() {
		values := make([]any, len(cols))
		scanArgs := make([]any, len(cols))
		for i := range values {
			scanArgs[i] = &values[i]
		}

		if err := rs.Scan(scanArgs...); err != nil {
			return nil, err
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = convertValue(typeNames[i], values[i])
		}
		result = append(result, row)
	}
	if err := rs.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// convertValue turns raw column bytes into the JSON-friendly value for its
// database type. DECIMAL stays a string so no precision is lost.
func convertValue(typeName string, v any) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	s := string(b)

	name := strings.ToUpper(typeName)
	unsigned := strings.HasPrefix(name, "UNSIGNED ")
	name = strings.TrimPrefix(name, "UNSIGNED ")

	switch name {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT", "YEAR":
		if unsigned {
			if n, err := strconv.ParseUint(s, 10, 64); err == nil {
				return n
			}
			return s
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	case "FLOAT", "DOUBLE", "REAL":
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	case "JSON":
		if json.Valid(b) {
			return json.RawMessage(s)
		}
	case "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BINARY", "VARBINARY", "BIT", "GEOMETRY":
		return b
	}

	return s
}
