package database

import "github.com/koustreak/talenttrack/internal/errs"

// Row is one result row keyed by column name.
type Row = map[string]any

// ScanRows drains rows into a non-nil slice and closes them.
// Text that a driver returns as []byte is converted to string, so a row
// encodes to the same JSON on every dialect.
func ScanRows(rows Rows) ([]Row, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQuery, "failed to read column names", err)
	}

	out := []Row{}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for rows.Next() {
		for i := range vals {
			vals[i] = nil
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errs.Wrap(errs.ErrKindQuery, "failed to scan row", err)
		}
		out = append(out, toRow(cols, vals))
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindQuery, "error during row iteration", err)
	}
	return out, nil
}

func toRow(cols []string, vals []any) Row {
	row := make(Row, len(cols))
	for i, c := range cols {
		if b, ok := vals[i].([]byte); ok {
			row[c] = string(b)
			continue
		}
		row[c] = vals[i]
	}
	return row
}
