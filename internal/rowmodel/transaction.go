package rowmodel

import "fmt"

// Transaction is a batch of added, updated and removed rows describing
// the delta between two full snapshots. Only non-empty categories are
// populated.
type Transaction struct {
	Add    Rows
	Update Rows
	Remove Rows
}

// Empty returns true when the transaction carries no rows.
func (t Transaction) Empty() bool {
	return len(t.Add) == 0 && len(t.Update) == 0 && len(t.Remove) == 0
}

func (t Transaction) String() string {
	return fmt.Sprintf("tx[add=%d update=%d remove=%d]", len(t.Add), len(t.Update), len(t.Remove))
}
