// Package sync bridges a remote table to a grid widget. Two mutually
// exclusive strategies share the remote-table capability: the
// Reconciler mirrors the full table and emits minimal transactions,
// the Provider pages a viewport window and owns remote-side
// sort/filter application.
package sync

import (
	"github.com/gridsync/gridsync/internal/rowmodel"
)

// BulkListener consumes Reconciler output. The initial load after
// Start is delivered through GridLoaded; every later change arrives as
// a transaction.
type BulkListener interface {
	GridLoaded(header rowmodel.Header, rows rowmodel.Rows)
	GridTransaction(tx rowmodel.Transaction)
}

// GridSink consumes Provider output: a row count plus batches of rows
// keyed by absolute index. Implementations must not call back into the
// Provider synchronously.
type GridSink interface {
	SetRowCount(n int64)
	SetRows(offset int64, rows rowmodel.Rows)
}

// extractRow builds a row snapshot via column-by-column value access.
// Missing columns read as nil so a malformed row degrades to nil cells
// instead of failing the update.
func extractRow(header rowmodel.Header, raw map[string]any, key string) rowmodel.Row {
	row := rowmodel.NewRow(key, len(header))
	for _, c := range header {
		row.Cells[c.Name] = raw[c.Name]
	}
	return row
}
