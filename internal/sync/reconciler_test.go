package sync

import (
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/gridsync/gridsync/internal/remote"
	"github.com/gridsync/gridsync/internal/rowmodel"
)

var testHeader = rowmodel.Header{
	{Name: "Id", Type: "string"},
	{Name: "Val", Type: "string"},
	{Name: "Qty", Type: "long"},
}

func testRow(id, val string, qty int64) map[string]any {
	return map[string]any{"Id": id, "Val": val, "Qty": qty}
}

type recListener struct {
	loaded chan rowmodel.Rows
	txs    chan rowmodel.Transaction
}

func newRecListener() *recListener {
	return &recListener{
		loaded: make(chan rowmodel.Rows, 8),
		txs:    make(chan rowmodel.Transaction, 8),
	}
}

func (l *recListener) GridLoaded(_ rowmodel.Header, rows rowmodel.Rows) {
	l.loaded <- rows
}

func (l *recListener) GridTransaction(tx rowmodel.Transaction) {
	l.txs <- tx
}

func waitLoaded(t *testing.T, l *recListener) rowmodel.Rows {
	t.Helper()
	select {
	case rows := <-l.loaded:
		return rows
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for initial load")
		return nil
	}
}

func waitTx(t *testing.T, l *recListener) rowmodel.Transaction {
	t.Helper()
	select {
	case tx := <-l.txs:
		return tx
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for transaction")
		return rowmodel.Transaction{}
	}
}

func expectNoTx(t *testing.T, l *recListener) {
	t.Helper()
	select {
	case tx := <-l.txs:
		t.Fatalf("unexpected transaction: %s", tx)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestReconcilerInitialLoadEmitsNoTransaction(t *testing.T) {
	table := remote.NewMemoryTable(testHeader, []map[string]any{
		testRow("1", "A", 10),
		testRow("2", "A", 20),
	})
	l := newRecListener()
	r := NewReconciler()
	r.AddListener(l)
	defer r.Stop()

	assert.Equal(t, nil, r.Start(table))

	rows := waitLoaded(t, l)
	assert.Equal(t, 2, len(rows))
	assert.Equal(t, "1", rows[0].Key)
	expectNoTx(t, l)
}

func TestReconcilerDiffScenario(t *testing.T) {
	table := remote.NewMemoryTable(testHeader, []map[string]any{
		testRow("1", "A", 1),
		testRow("2", "A", 2),
		testRow("3", "A", 3),
	})
	l := newRecListener()
	r := NewReconciler()
	r.AddListener(l)
	defer r.Stop()

	assert.Equal(t, nil, r.Start(table))
	waitLoaded(t, l)

	table.Replace([]map[string]any{
		testRow("2", "B", 2),
		testRow("3", "A", 3),
		testRow("4", "A", 4),
	})

	tx := waitTx(t, l)
	assert.Equal(t, 1, len(tx.Add))
	assert.Equal(t, "4", tx.Add[0].Key)
	assert.Equal(t, 1, len(tx.Update))
	assert.Equal(t, "2", tx.Update[0].Key)
	assert.Equal(t, "B", tx.Update[0].Cells["Val"])
	assert.Equal(t, 1, len(tx.Remove))
	assert.Equal(t, "1", tx.Remove[0].Key)
}

func TestReconcilerReorderKeepsBaselineCurrent(t *testing.T) {
	table := remote.NewMemoryTable(testHeader, []map[string]any{
		testRow("1", "A", 1),
		testRow("2", "A", 2),
	})
	l := newRecListener()
	r := NewReconciler()
	r.AddListener(l)
	defer r.Stop()

	assert.Equal(t, nil, r.Start(table))
	waitLoaded(t, l)

	// Pure reorder: no transaction, but the baseline must rebase.
	assert.Equal(t, nil, table.ApplySort(remote.SortSpec{{Name: "Id", Desc: true}}))
	expectNoTx(t, l)

	table.Append(testRow("3", "A", 3))
	tx := waitTx(t, l)
	assert.Equal(t, 1, len(tx.Add))
	assert.Equal(t, "3", tx.Add[0].Key)
	assert.Equal(t, 0, len(tx.Update))
	assert.Equal(t, 0, len(tx.Remove))
}

func TestReconcilerMissingKeyColumn(t *testing.T) {
	table := remote.NewMemoryTable(testHeader, []map[string]any{
		{"Val": "A"},
		{"Val": "B"},
	})
	l := newRecListener()
	r := NewReconciler()
	r.AddListener(l)
	defer r.Stop()

	// Rows without the key field fall back to positional identity.
	assert.Equal(t, nil, r.Start(table))
	rows := waitLoaded(t, l)
	assert.Equal(t, 2, len(rows))
	assert.Equal(t, "0", rows[0].Key)
	assert.Equal(t, "1", rows[1].Key)
}

func TestReconcilerStopIdempotent(t *testing.T) {
	r := NewReconciler()
	r.Stop()
	r.Stop()

	table := remote.NewMemoryTable(testHeader, nil)
	assert.Equal(t, nil, r.Start(table))
	r.Stop()
	r.Stop()
	assert.Equal(t, 0, table.ActiveSubscriptions())
}

func TestReconcilerDoubleStart(t *testing.T) {
	table := remote.NewMemoryTable(testHeader, nil)
	r := NewReconciler()
	defer r.Stop()

	assert.Equal(t, nil, r.Start(table))
	assert.Equal(t, ErrStarted, r.Start(table))
}
