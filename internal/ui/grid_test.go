package ui

import (
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/gridsync/gridsync/internal/rowmodel"
	datasync "github.com/gridsync/gridsync/internal/sync"
)

var gridHeader = rowmodel.Header{
	{Name: "ExecId", Type: "string"},
	{Name: "Qty", Type: "long"},
}

func gridRows() rowmodel.Rows {
	return rowmodel.Rows{
		{Key: "EXE-1", Cells: map[string]any{"ExecId": "EXE-1", "Qty": int64(10)}},
		{Key: "EXE-2", Cells: map[string]any{"ExecId": "EXE-2", "Qty": int64(20)}},
	}
}

func TestGridBulkLoad(t *testing.T) {
	g := NewGrid("executions", false)
	g.Init()

	g.GridLoaded(gridHeader, gridRows())

	// Header row plus two data rows.
	assert.Equal(t, 3, g.GetRowCount())
	assert.Equal(t, "ExecId", g.GetCell(0, 0).Text)
	assert.Equal(t, "EXE-1", g.GetCell(1, 0).Text)
	assert.Equal(t, "20", g.GetCell(2, 1).Text)
}

func TestGridBulkTransaction(t *testing.T) {
	g := NewGrid("executions", false)
	g.Init()
	g.GridLoaded(gridHeader, gridRows())

	g.GridTransaction(rowmodel.Transaction{
		Add: rowmodel.Rows{
			{Key: "EXE-3", Cells: map[string]any{"ExecId": "EXE-3", "Qty": int64(30)}},
		},
		Update: rowmodel.Rows{
			{Key: "EXE-1", Cells: map[string]any{"ExecId": "EXE-1", "Qty": int64(11)}},
		},
		Remove: rowmodel.Rows{
			{Key: "EXE-2", Cells: map[string]any{}},
		},
	})

	assert.Equal(t, 3, g.GetRowCount())
	assert.Equal(t, "11", g.GetCell(1, 1).Text)
	assert.Equal(t, "EXE-3", g.GetCell(2, 0).Text)
}

func TestGridTransactionBeforeLoadDropped(t *testing.T) {
	g := NewGrid("executions", false)
	g.Init()

	g.GridTransaction(rowmodel.Transaction{
		Add: rowmodel.Rows{{Key: "x", Cells: map[string]any{}}},
	})

	// Still showing the loading placeholder.
	assert.Equal(t, 1, g.GetRowCount())
}

func TestGridWindowedRender(t *testing.T) {
	g := NewGrid("executions", true)
	g.Init()
	g.SetHeader(gridHeader)

	g.SetRowCount(1000)
	g.SetRows(100, gridRows())

	assert.Equal(t, 3, g.GetRowCount())
	assert.Equal(t, "EXE-1", g.GetCell(1, 0).Text)
	// Title reports the table size, not the window size.
	assert.Equal(t, " <executions>[viewport][1000] ", g.GetTitle())
}

func TestGridShrinkResetsWindow(t *testing.T) {
	g := NewGrid("executions", true)
	g.Init()
	g.SetHeader(gridHeader)
	g.SetRows(100, gridRows())

	// The table shrank below the window offset: stale rows must go.
	g.SetRowCount(5)

	_, ok := g.SelectedRow()
	assert.Equal(t, false, ok)
}

func TestGridSelectedRow(t *testing.T) {
	g := NewGrid("executions", false)
	g.Init()
	g.GridLoaded(gridHeader, gridRows())

	g.Select(2, 0)
	row, ok := g.SelectedRow()
	assert.Equal(t, true, ok)
	assert.Equal(t, "EXE-2", row.Key)
}

func TestGridPageViewport(t *testing.T) {
	g := NewGrid("executions", true)
	g.Init()
	g.SetHeader(gridHeader)
	g.SetPageSize(10)

	var gotFirst, gotLast int64 = -1, -1
	g.SetViewportFunc(func(first, last int64) { gotFirst, gotLast = first, last })

	g.SetRowCount(25)
	g.SetRows(0, gridRows())

	g.pageViewport(1)
	assert.Equal(t, int64(10), gotFirst)
	assert.Equal(t, int64(19), gotLast)
}

func TestGridPageViewportClampedAtEnd(t *testing.T) {
	g := NewGrid("executions", true)
	g.Init()
	g.SetHeader(gridHeader)
	g.SetPageSize(10)

	called := false
	g.SetViewportFunc(func(first, last int64) { called = true })

	g.SetRowCount(25)
	g.SetRows(20, gridRows())

	// Already at the last page.
	g.pageViewport(1)
	assert.Equal(t, false, called)
}

func TestGridEmitFilterTargetsFirstColumn(t *testing.T) {
	g := NewGrid("executions", false)
	g.Init()
	g.GridLoaded(gridHeader, gridRows())

	var got datasync.FilterModel
	g.SetFilterFunc(func(m datasync.FilterModel) { got = m })

	g.emitFilter("UST")
	assert.Equal(t, 1, len(got))
	assert.Equal(t, "contains", got["ExecId"].Type)
	assert.Equal(t, "UST", got["ExecId"].Filter)

	g.emitFilter("")
	assert.Equal(t, 0, len(got))
}

func TestGridBulkSortsLocally(t *testing.T) {
	g := NewGrid("executions", false)
	g.Init()

	// Out of order on load, with keys that need natural ordering.
	g.GridLoaded(gridHeader, rowmodel.Rows{
		{Key: "EXE-10", Cells: map[string]any{"ExecId": "EXE-10", "Qty": int64(5)}},
		{Key: "EXE-2", Cells: map[string]any{"ExecId": "EXE-2", "Qty": int64(20)}},
		{Key: "EXE-1", Cells: map[string]any{"ExecId": "EXE-1", "Qty": int64(10)}},
	})
	assert.Equal(t, "EXE-10", g.GetCell(1, 0).Text)

	// First press sorts by the first column, ascending.
	g.sortHandler(nil)
	assert.Equal(t, "EXE-1", g.GetCell(1, 0).Text)
	assert.Equal(t, "EXE-2", g.GetCell(2, 0).Text)
	assert.Equal(t, "EXE-10", g.GetCell(3, 0).Text)

	g.reverseHandler(nil)
	assert.Equal(t, "EXE-10", g.GetCell(1, 0).Text)
	assert.Equal(t, "EXE-1", g.GetCell(3, 0).Text)

	// New rows land in sorted position, not append order.
	g.reverseHandler(nil)
	g.GridTransaction(rowmodel.Transaction{
		Add: rowmodel.Rows{
			{Key: "EXE-3", Cells: map[string]any{"ExecId": "EXE-3", "Qty": int64(30)}},
		},
	})
	assert.Equal(t, "EXE-3", g.GetCell(3, 0).Text)
	assert.Equal(t, "EXE-10", g.GetCell(4, 0).Text)
}

func TestGridSelectedRowTracksSortedOrder(t *testing.T) {
	g := NewGrid("executions", false)
	g.Init()
	g.GridLoaded(gridHeader, rowmodel.Rows{
		{Key: "EXE-2", Cells: map[string]any{"ExecId": "EXE-2", "Qty": int64(20)}},
		{Key: "EXE-1", Cells: map[string]any{"ExecId": "EXE-1", "Qty": int64(10)}},
	})

	g.sortHandler(nil)

	g.Select(1, 0)
	row, ok := g.SelectedRow()
	assert.Equal(t, true, ok)
	assert.Equal(t, "EXE-1", row.Key)
}

func TestGridRendersThroughQueue(t *testing.T) {
	g := NewGrid("executions", false)
	g.Init()

	var queued []func()
	g.SetQueue(func(f func()) { queued = append(queued, f) })

	g.GridLoaded(gridHeader, gridRows())

	// Nothing rendered until the queue drains.
	assert.Equal(t, 1, g.GetRowCount())
	for _, f := range queued {
		f()
	}
	assert.Equal(t, 3, g.GetRowCount())
}

func TestGridSortCycle(t *testing.T) {
	g := NewGrid("executions", false)
	g.Init()
	g.GridLoaded(gridHeader, gridRows())

	var got datasync.SortModel
	g.SetSortFunc(func(m datasync.SortModel) { got = m })

	g.sortHandler(nil)
	assert.Equal(t, 1, len(got))
	assert.Equal(t, "ExecId", got[0].ColID)
	assert.Equal(t, "asc", got[0].Sort)

	g.sortHandler(nil)
	assert.Equal(t, "Qty", got[0].ColID)

	g.reverseHandler(nil)
	assert.Equal(t, "Qty", got[0].ColID)
	assert.Equal(t, "desc", got[0].Sort)
}
