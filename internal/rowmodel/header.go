package rowmodel

// Column describes a remote table column. The type tag is server-owned
// and fixed for the table's lifetime.
type Column struct {
	Name string
	Type string
}

// Header represents an ordered table header (slice of columns).
type Header []Column

func (h Header) Clone() Header {
	he := make(Header, len(h))
	copy(he, h)
	return he
}

// IndexOf returns the position of the named column.
func (h Header) IndexOf(name string) (int, bool) {
	for i, c := range h {
		if c.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Names returns the column names in header order.
func (h Header) Names() []string {
	if len(h) == 0 {
		return nil
	}
	nn := make([]string, 0, len(h))
	for _, c := range h {
		nn = append(nn, c.Name)
	}
	return nn
}

// Types returns the column type tags in header order.
func (h Header) Types() []string {
	if len(h) == 0 {
		return nil
	}
	tt := make([]string, 0, len(h))
	for _, c := range h {
		tt = append(tt, c.Type)
	}
	return tt
}
