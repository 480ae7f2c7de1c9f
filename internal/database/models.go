package database

import "fmt"

// Table is a fully materialized tabular payload.
type Table struct {
	Columns []string
	Rows    [][]string
	// Truncated is set when draining stopped at a row limit.
	Truncated bool
}

// Drain materializes a result set into a Table, formatting values for
// display. maxRows of zero means unlimited. The result set is closed in every
// case, including read errors.
func Drain(rs ResultSet, maxRows int) (*Table, error) {
	defer func() { _ = rs.Close() }()

	t := &Table{Columns: rs.Columns()}
	for rs.Next() {
		if maxRows > 0 && len(t.Rows) >= maxRows {
			t.Truncated = true
			break
		}
		values, err := rs.Values()
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		row := make([]string, len(values))
		for i, v := range values {
			if v == nil {
				row[i] = "NULL"
			} else {
				row[i] = fmt.Sprintf("%v", v)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return t, nil
}
