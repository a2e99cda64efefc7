// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gridsync

package ui

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/fvbommel/sortorder"
	"github.com/golang/glog"

	"github.com/gridsync/gridsync/internal/rowmodel"
	datasync "github.com/gridsync/gridsync/internal/sync"
)

const (
	// GridTitleFmt formats the grid title with table name, mode and row count.
	GridTitleFmt = " <%s>[%s][%d] "

	// DefaultPageSize is the viewport window height used before the
	// screen dimensions are known.
	DefaultPageSize = 25
)

// Grid is the data grid widget. It renders either a fully mirrored
// table fed by transactions, or a paged window over a large table. It
// implements both sync.BulkListener and sync.GridSink; the mode is
// fixed at construction.
type Grid struct {
	*tview.Table

	mx      sync.RWMutex
	name    string
	mode    string
	actions *KeyActions
	queue   func(func())

	header rowmodel.Header
	loaded bool

	// bulk state
	bulk *rowmodel.RowSet

	// viewport state
	windowed  bool
	rowCount  int64
	winOffset int64
	winRows   rowmodel.Rows
	pageSize  int64

	sortCol  string
	sortDesc bool

	filterActive bool
	filterText   string

	onSort     func(datasync.SortModel)
	onFilter   func(datasync.FilterModel)
	onViewport func(first, last int64)
	onSelect   func(row rowmodel.Row)
}

// NewGrid returns a grid for the named table. windowed selects the
// viewport strategy.
func NewGrid(name string, windowed bool) *Grid {
	mode := "bulk"
	if windowed {
		mode = "viewport"
	}
	g := &Grid{
		Table:    tview.NewTable(),
		name:     name,
		mode:     mode,
		windowed: windowed,
		actions:  NewKeyActions(),
		pageSize: DefaultPageSize,
		queue:    func(f func()) { f() },
	}
	return g
}

// Init initializes the grid component.
func (g *Grid) Init() {
	g.SetFixed(1, 0)
	g.SetBorder(true)
	g.SetBorderAttributes(tcell.AttrBold)
	g.SetBorderPadding(0, 0, 1, 1)
	g.SetSelectable(true, false)
	g.SetBackgroundColor(tcell.ColorDefault)
	g.SetBorderColor(tcell.ColorWhite)
	g.Select(1, 0)

	g.SetTitle(fmt.Sprintf(GridTitleFmt, g.name, g.mode, 0))
	g.showNoData("Loading...")

	g.SetInputCapture(g.keyboard)
	g.bindKeys()
}

// SetQueue sets the function used to marshal updates onto the UI
// goroutine. Data arrives on sync goroutines; rendering must not.
func (g *Grid) SetQueue(fn func(func())) {
	g.mx.Lock()
	defer g.mx.Unlock()
	g.queue = fn
}

// SetSortFunc registers the sort model consumer.
func (g *Grid) SetSortFunc(fn func(datasync.SortModel)) { g.onSort = fn }

// SetFilterFunc registers the filter model consumer.
func (g *Grid) SetFilterFunc(fn func(datasync.FilterModel)) { g.onFilter = fn }

// SetViewportFunc registers the viewport range consumer.
func (g *Grid) SetViewportFunc(fn func(first, last int64)) { g.onViewport = fn }

// SetSelectFunc registers the row selection consumer.
func (g *Grid) SetSelectFunc(fn func(row rowmodel.Row)) { g.onSelect = fn }

// SetPageSize sets the viewport window height.
func (g *Grid) SetPageSize(n int64) {
	if n < 1 {
		return
	}
	g.mx.Lock()
	defer g.mx.Unlock()
	g.pageSize = n
}

// Name returns the grid name.
func (g *Grid) Name() string { return g.name }

// FilterInputActive reports whether the filter bar is capturing
// keystrokes. Global key handlers must stand down while it is.
func (g *Grid) FilterInputActive() bool {
	g.mx.RLock()
	defer g.mx.RUnlock()
	return g.filterActive
}

// Actions returns the key actions.
func (g *Grid) Actions() *KeyActions { return g.actions }

// Hints returns menu hints for key bindings.
func (g *Grid) Hints() MenuHints { return g.actions.Hints() }

// GridLoaded implements sync.BulkListener.
func (g *Grid) GridLoaded(header rowmodel.Header, rows rowmodel.Rows) {
	set := rowmodel.NewRowSet(len(rows))
	for _, r := range rows {
		set.Add(r)
	}

	g.mx.Lock()
	g.header = header.Clone()
	g.bulk = set
	g.loaded = true
	g.mx.Unlock()

	g.queue(g.render)
}

// GridTransaction implements sync.BulkListener.
func (g *Grid) GridTransaction(tx rowmodel.Transaction) {
	g.mx.Lock()
	if g.bulk == nil {
		g.mx.Unlock()
		glog.Warningf("ui: transaction before load, dropping %s", tx)
		return
	}
	for _, r := range tx.Add {
		g.bulk.Add(r)
	}
	for _, r := range tx.Update {
		g.bulk.Add(r)
	}
	for _, r := range tx.Remove {
		g.bulk.Remove(r.Key)
	}
	g.mx.Unlock()

	g.queue(g.render)
}

// SetRowCount implements sync.GridSink.
func (g *Grid) SetRowCount(n int64) {
	g.mx.Lock()
	g.rowCount = n
	if g.winOffset >= n {
		g.winOffset, g.winRows = 0, nil
	}
	g.mx.Unlock()

	g.queue(g.render)
}

// SetRows implements sync.GridSink.
func (g *Grid) SetRows(offset int64, rows rowmodel.Rows) {
	g.mx.Lock()
	g.winOffset = offset
	g.winRows = rows.Clone()
	g.loaded = true
	g.mx.Unlock()

	g.queue(g.render)
}

// SetHeader sets the column layout for windowed grids, where no bulk
// load carries it.
func (g *Grid) SetHeader(header rowmodel.Header) {
	g.mx.Lock()
	g.header = header.Clone()
	g.mx.Unlock()
}

// bindKeys sets up the grid key bindings.
func (g *Grid) bindKeys() {
	g.actions.Bulk(KeyMap{
		KeyS:           NewKeyAction("Sort", g.sortHandler, true),
		KeyR:           NewKeyAction("Reverse", g.reverseHandler, true),
		KeySlash:       NewKeyAction("Filter", g.filterHandler, true),
		tcell.KeyEnter: NewKeyAction("Inspect", g.selectHandler, true),
		tcell.KeyEsc:   NewKeyAction("Clear Filter", g.clearFilterHandler, false),
	})
}

// keyboard handles grid keyboard input.
func (g *Grid) keyboard(evt *tcell.EventKey) *tcell.EventKey {
	g.mx.RLock()
	filterActive := g.filterActive
	g.mx.RUnlock()
	if filterActive {
		return g.handleFilterInput(evt)
	}

	key := evt.Key()
	row, col := g.GetSelection()
	rowCount := g.GetRowCount()

	if key == tcell.KeyRune {
		switch evt.Rune() {
		case 'j':
			return g.moveDown(row, col, rowCount)
		case 'k':
			return g.moveUp(row, col)
		case 'g':
			return g.moveTop(col)
		case 'G':
			return g.moveBottom(col, rowCount)
		}
	}

	switch key {
	case tcell.KeyDown:
		return g.moveDown(row, col, rowCount)
	case tcell.KeyUp:
		return g.moveUp(row, col)
	case tcell.KeyHome:
		return g.moveTop(col)
	case tcell.KeyEnd:
		return g.moveBottom(col, rowCount)
	case tcell.KeyPgDn:
		g.pageViewport(1)
		return nil
	case tcell.KeyPgUp:
		g.pageViewport(-1)
		return nil
	}

	actionKey := key
	if key == tcell.KeyRune {
		actionKey = tcell.Key(evt.Rune())
	}
	if action, ok := g.actions.Get(actionKey); ok {
		return action.Action(evt)
	}

	return evt
}

func (g *Grid) moveDown(row, col, rowCount int) *tcell.EventKey {
	if row < rowCount-1 {
		g.Select(row+1, col)
		return nil
	}
	// Bottom of the window: page forward.
	g.pageViewport(1)
	return nil
}

func (g *Grid) moveUp(row, col int) *tcell.EventKey {
	if row > 1 {
		g.Select(row-1, col)
		return nil
	}
	g.pageViewport(-1)
	return nil
}

func (g *Grid) moveTop(col int) *tcell.EventKey {
	g.mx.RLock()
	windowed, offset := g.windowed, g.winOffset
	page := g.pageSize
	g.mx.RUnlock()

	if windowed && offset > 0 && g.onViewport != nil {
		g.onViewport(0, page-1)
	}
	if g.GetRowCount() > 1 {
		g.Select(1, col)
	}
	return nil
}

func (g *Grid) moveBottom(col, rowCount int) *tcell.EventKey {
	g.mx.RLock()
	windowed, total, page := g.windowed, g.rowCount, g.pageSize
	g.mx.RUnlock()

	if windowed && g.onViewport != nil && total > 0 {
		first := total - page
		if first < 0 {
			first = 0
		}
		g.onViewport(first, total-1)
	}
	if rowCount > 1 {
		g.Select(rowCount-1, col)
	}
	return nil
}

// pageViewport shifts the viewport by dir pages. A no-op for bulk
// grids and at the table edges.
func (g *Grid) pageViewport(dir int64) {
	g.mx.RLock()
	windowed, offset, total, page := g.windowed, g.winOffset, g.rowCount, g.pageSize
	g.mx.RUnlock()

	if !windowed || g.onViewport == nil || total == 0 {
		return
	}

	first := offset + dir*page
	if first > total-1 {
		return
	}
	if first < 0 {
		first = 0
	}
	last := first + page - 1
	if last > total-1 {
		last = total - 1
	}
	g.onViewport(first, last)
}

// sortHandler cycles the sort column.
func (g *Grid) sortHandler(evt *tcell.EventKey) *tcell.EventKey {
	g.mx.Lock()
	if len(g.header) == 0 {
		g.mx.Unlock()
		return nil
	}
	idx := -1
	for i, c := range g.header {
		if c.Name == g.sortCol {
			idx = i
			break
		}
	}
	g.sortCol = g.header[(idx+1)%len(g.header)].Name
	g.sortDesc = false
	g.mx.Unlock()

	g.emitSort()
	g.queue(g.render)
	return nil
}

// reverseHandler flips the sort direction.
func (g *Grid) reverseHandler(evt *tcell.EventKey) *tcell.EventKey {
	g.mx.Lock()
	if g.sortCol == "" {
		g.mx.Unlock()
		return nil
	}
	g.sortDesc = !g.sortDesc
	g.mx.Unlock()

	g.emitSort()
	g.queue(g.render)
	return nil
}

func (g *Grid) emitSort() {
	g.mx.RLock()
	col, desc := g.sortCol, g.sortDesc
	g.mx.RUnlock()

	if g.onSort == nil {
		return
	}
	dir := "asc"
	if desc {
		dir = "desc"
	}
	g.onSort(datasync.SortModel{{ColID: col, Sort: dir}})
}

// filterHandler enters filter input mode.
func (g *Grid) filterHandler(evt *tcell.EventKey) *tcell.EventKey {
	g.mx.Lock()
	g.filterActive = true
	g.filterText = ""
	g.mx.Unlock()

	g.updateTitle()
	return nil
}

// clearFilterHandler clears any active filter.
func (g *Grid) clearFilterHandler(evt *tcell.EventKey) *tcell.EventKey {
	g.mx.Lock()
	wasSet := g.filterActive || g.filterText != ""
	g.filterActive, g.filterText = false, ""
	g.mx.Unlock()

	if wasSet {
		g.emitFilter("")
	}
	g.updateTitle()
	return nil
}

// handleFilterInput handles keyboard input while the filter bar is
// open.
func (g *Grid) handleFilterInput(evt *tcell.EventKey) *tcell.EventKey {
	switch evt.Key() {
	case tcell.KeyEsc:
		g.mx.Lock()
		g.filterActive, g.filterText = false, ""
		g.mx.Unlock()
		g.emitFilter("")

	case tcell.KeyEnter:
		g.mx.Lock()
		g.filterActive = false
		text := g.filterText
		g.mx.Unlock()
		g.emitFilter(text)

	case tcell.KeyBackspace, tcell.KeyBackspace2:
		g.mx.Lock()
		if len(g.filterText) > 0 {
			g.filterText = g.filterText[:len(g.filterText)-1]
		}
		g.mx.Unlock()

	case tcell.KeyRune:
		g.mx.Lock()
		g.filterText += string(evt.Rune())
		g.mx.Unlock()

	default:
		return evt
	}

	g.updateTitle()
	return nil
}

// emitFilter builds the filter model from the entered text. The filter
// targets the current sort column, falling back to the first column:
// substring match on text columns, equality elsewhere. Empty text
// clears the filter.
func (g *Grid) emitFilter(text string) {
	if g.onFilter == nil {
		return
	}
	if text == "" {
		g.onFilter(datasync.FilterModel{})
		return
	}

	g.mx.RLock()
	var col rowmodel.Column
	for _, c := range g.header {
		if c.Name == g.sortCol {
			col = c
			break
		}
	}
	if col.Name == "" && len(g.header) > 0 {
		col = g.header[0]
	}
	g.mx.RUnlock()
	if col.Name == "" {
		return
	}

	op := "equals"
	if rowmodel.CategoryOf(col.Type) == rowmodel.CategoryText {
		op = "contains"
	}
	g.onFilter(datasync.FilterModel{
		col.Name: {Type: op, Filter: text},
	})
}

// selectHandler reports the selected row.
func (g *Grid) selectHandler(evt *tcell.EventKey) *tcell.EventKey {
	if g.onSelect == nil {
		return nil
	}
	row, ok := g.SelectedRow()
	if !ok {
		return nil
	}
	g.onSelect(row)
	return nil
}

// SelectedRow returns the row under the cursor. Bulk rows resolve
// through the key stored on the rendered cell, so local sorting never
// desynchronizes selection from data.
func (g *Grid) SelectedRow() (rowmodel.Row, bool) {
	sel, _ := g.GetSelection()
	if sel < 1 {
		return rowmodel.Row{}, false
	}

	g.mx.RLock()
	defer g.mx.RUnlock()

	if g.windowed {
		i := sel - 1
		if i >= len(g.winRows) {
			return rowmodel.Row{}, false
		}
		return g.winRows[i], true
	}
	if g.bulk == nil {
		return rowmodel.Row{}, false
	}
	cell := g.GetCell(sel, 0)
	if cell == nil {
		return rowmodel.Row{}, false
	}
	key, ok := cell.GetReference().(string)
	if !ok {
		return rowmodel.Row{}, false
	}
	return g.bulk.Get(key)
}

// render rebuilds the visible table. Runs on the UI goroutine.
func (g *Grid) render() {
	g.mx.RLock()
	header := g.header
	var rows rowmodel.Rows
	var count int64
	if g.windowed {
		rows, count = g.winRows, g.rowCount
	} else if g.bulk != nil {
		rows = g.bulk.Rows()
		count = int64(g.bulk.Len())
	}
	loaded := g.loaded
	sortCol, sortDesc := g.sortCol, g.sortDesc
	g.mx.RUnlock()

	if !loaded {
		return
	}
	// A windowed grid receives rows already ordered by the remote
	// sort; the bulk mirror orders its own snapshot.
	if !g.windowed && sortCol != "" {
		sortRows(rows, sortCol, sortDesc)
	}
	if len(rows) == 0 {
		g.showNoData("No rows")
		g.updateTitleWith(count)
		return
	}

	sel, _ := g.GetSelection()
	g.Clear()
	g.buildHeader(header)
	for i, r := range rows {
		g.buildRow(r, header, i+1)
	}
	g.updateTitleWith(count)

	if sel < 1 || sel > len(rows) {
		sel = 1
	}
	g.Select(sel, 0)
}

func (g *Grid) buildHeader(header rowmodel.Header) {
	g.mx.RLock()
	sortCol, desc := g.sortCol, g.sortDesc
	g.mx.RUnlock()

	for col, h := range header {
		cell := tview.NewTableCell(h.Name)
		cell.SetTextColor(tcell.ColorYellow)
		cell.SetBackgroundColor(tcell.ColorDefault)
		cell.SetExpansion(1)
		cell.SetSelectable(false)

		if h.Name == sortCol {
			marker := " ▲"
			if desc {
				marker = " ▼"
			}
			cell.SetText(h.Name + marker)
			cell.SetAttributes(tcell.AttrBold)
		}

		g.SetCell(0, col, cell)
	}
}

func (g *Grid) buildRow(row rowmodel.Row, header rowmodel.Header, rowIdx int) {
	for col, h := range header {
		cell := tview.NewTableCell(formatCell(row.Cells[h.Name]))
		cell.SetTextColor(tcell.ColorWhite)
		cell.SetBackgroundColor(tcell.ColorDefault)
		cell.SetExpansion(1)
		if col == 0 {
			cell.SetReference(row.Key)
		}
		g.SetCell(rowIdx, col, cell)
	}
}

func (g *Grid) showNoData(msg string) {
	g.Clear()
	cell := tview.NewTableCell(msg)
	cell.SetTextColor(tcell.ColorGray)
	cell.SetAlign(tview.AlignCenter)
	cell.SetSelectable(false)
	g.SetCell(0, 0, cell)
}

func (g *Grid) updateTitle() {
	g.mx.RLock()
	var count int64
	if g.windowed {
		count = g.rowCount
	} else if g.bulk != nil {
		count = int64(g.bulk.Len())
	}
	g.mx.RUnlock()

	g.updateTitleWith(count)
}

func (g *Grid) updateTitleWith(count int64) {
	g.mx.RLock()
	filter, active := g.filterText, g.filterActive
	g.mx.RUnlock()

	title := fmt.Sprintf(GridTitleFmt, g.name, g.mode, count)
	if active || filter != "" {
		title = fmt.Sprintf(" <%s>[%s][%d] Filter: %s█ ", g.name, g.mode, count, filter)
	}
	g.SetTitle(title)
}

// sortRows orders a bulk snapshot by the given column, nils first.
func sortRows(rows rowmodel.Rows, col string, desc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Cells[col], rows[j].Cells[col]
		if desc {
			return cellLess(b, a)
		}
		return cellLess(a, b)
	})
}

func cellLess(a, b any) bool {
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	af, aok := cellFloat(a)
	bf, bok := cellFloat(b)
	if aok && bok {
		return af < bf
	}
	return sortorder.NaturalLess(formatCell(a), formatCell(b))
}

func cellFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case time.Time:
		return float64(t.UnixNano()), true
	default:
		return 0, false
	}
}

func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		return t.Format(time.RFC3339)
	case float64:
		return fmt.Sprintf("%g", t)
	case float32:
		return fmt.Sprintf("%g", t)
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}
