package remote

// SortColumn is a single column/direction pair.
type SortColumn struct {
	Name string `json:"name"`
	Desc bool   `json:"desc,omitempty"`
}

// SortSpec is an ordered sequence of per-column sort directions.
// Applying a spec replaces any prior sort; order is significant.
type SortSpec []SortColumn
