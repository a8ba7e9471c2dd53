package model

// Frame is the in-memory dataset structure returned by the Dataset Builder
// (spec §4.9, Design Note "Dataset persistence"). Encoding it to the
// on-disk columnar format is an external concern; this type only carries
// the fixed column order and row data.
type Frame struct {
	Columns []string
	Rows    []FrameRow
}

// FrameRow is one row of a Frame, keyed by column name for safe access
// regardless of column-rename mappings applied to the score columns.
type FrameRow map[string]string

// NewFrame builds an empty Frame with the given fixed column order.
func NewFrame(columns []string) Frame {
	return Frame{Columns: columns}
}

// AppendRow appends a row holding exactly the declared columns: a declared
// column missing from row is stored as the empty string, and keys that are
// not declared columns are dropped.
func (f *Frame) AppendRow(row FrameRow) {
	complete := make(FrameRow, len(f.Columns))
	for _, c := range f.Columns {
		complete[c] = row[c]
	}
	f.Rows = append(f.Rows, complete)
}

// Len returns the number of rows.
func (f Frame) Len() int { return len(f.Rows) }
