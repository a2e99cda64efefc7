package rowmodel

// RowSet is a key-indexed row collection preserving insertion order.
type RowSet struct {
	rows  []Row
	index map[string]int
}

func NewRowSet(size int) *RowSet {
	return &RowSet{
		rows:  make([]Row, 0, size),
		index: make(map[string]int, size),
	}
}

// Add appends a row, replacing any existing row with the same key.
func (s *RowSet) Add(r Row) {
	if i, ok := s.index[r.Key]; ok {
		s.rows[i] = r
		return
	}
	s.rows = append(s.rows, r)
	s.index[r.Key] = len(s.rows) - 1
}

func (s *RowSet) Get(key string) (Row, bool) {
	i, ok := s.index[key]
	if !ok {
		return Row{}, false
	}
	return s.rows[i], true
}

func (s *RowSet) Len() int {
	return len(s.rows)
}

// Rows returns the rows in insertion order.
func (s *RowSet) Rows() Rows {
	out := make(Rows, len(s.rows))
	copy(out, s.rows)
	return out
}

func (s *RowSet) Range(f func(int, Row) bool) {
	for i, r := range s.rows {
		if !f(i, r) {
			return
		}
	}
}

// Remove deletes the row with the given key, preserving the order of
// the remaining rows.
func (s *RowSet) Remove(key string) bool {
	i, ok := s.index[key]
	if !ok {
		return false
	}
	s.rows = append(s.rows[:i], s.rows[i+1:]...)
	delete(s.index, key)
	for j := i; j < len(s.rows); j++ {
		s.index[s.rows[j].Key] = j
	}
	return true
}

// Diff computes the transaction turning this set into next: keys only
// in next are adds, keys in both with any differing cell are updates,
// keys only in this set are removes. Pure reordering with identical
// row content yields an empty transaction.
func (s *RowSet) Diff(next *RowSet) Transaction {
	var tx Transaction
	for _, r := range next.rows {
		prev, ok := s.Get(r.Key)
		switch {
		case !ok:
			tx.Add = append(tx.Add, r)
		case !prev.Equal(r):
			tx.Update = append(tx.Update, r)
		}
	}
	for _, r := range s.rows {
		if _, ok := next.index[r.Key]; !ok {
			tx.Remove = append(tx.Remove, r)
		}
	}
	return tx
}
