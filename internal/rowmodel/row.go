package rowmodel

// Row represents a single table row: one cell value per column name,
// plus the stable key used to correlate the row across updates. Cell
// values are treated as primitives; a missing column reads as nil.
type Row struct {
	Key   string
	Cells map[string]any
}

func NewRow(key string, size int) Row {
	return Row{Key: key, Cells: make(map[string]any, size)}
}

func (r Row) Clone() Row {
	cells := make(map[string]any, len(r.Cells))
	for k, v := range r.Cells {
		cells[k] = v
	}
	return Row{Key: r.Key, Cells: cells}
}

// Equal reports whether both rows hold identical cell values under
// strict per-column comparison. No deep equality: nested values only
// compare equal when they are the same primitive.
func (r Row) Equal(o Row) bool {
	if len(r.Cells) != len(o.Cells) {
		return false
	}
	for k, v := range r.Cells {
		ov, ok := o.Cells[k]
		if !ok || !cellEqual(v, ov) {
			return false
		}
	}
	return true
}

func cellEqual(a, b any) (eq bool) {
	// Uncomparable cell values (slices, maps) never compare equal.
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

// Rows represents a collection of rows.
type Rows []Row

func (r Rows) Clone() Rows {
	out := make(Rows, len(r))
	for i, row := range r {
		out[i] = row.Clone()
	}
	return out
}
