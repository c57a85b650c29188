package core

// NullText is the token stored in place of NULL column values.
const NullText = "NULL"

// Row is one result row, every column stringified.
type Row []string

// Clone returns an independent copy of the row.
func (row Row) Clone() Row {
	if row == nil {
		return nil
	}
	out := make(Row, len(row))
	copy(out, row)
	return out
}

// CloneRows deep-copies a row buffer.
func CloneRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, row := range rows {
		out[i] = row.Clone()
	}
	return out
}
