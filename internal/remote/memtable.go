package remote

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fvbommel/sortorder"
	"github.com/golang/glog"

	"github.com/gridsync/gridsync/internal/rowmodel"
)

const subBuffer = 64

// MemoryTable is a full in-process Table implementation. It backs demo
// mode and the sync-core tests: rows live in arrival order, the
// effective view is recomputed on every append, sort or filter, and
// subscriptions receive their window of the view after each change.
type MemoryTable struct {
	mu      sync.Mutex
	cols    rowmodel.Header
	base    []map[string]any
	view    []map[string]any
	sortOn  SortSpec
	filter  *Condition
	subs    map[*memSub]struct{}
	sizeFns map[int]func(int64)
	nextFn  int
	opened  int
	closed  bool
}

// NewMemoryTable creates a table with the given columns and initial rows.
func NewMemoryTable(cols rowmodel.Header, rows []map[string]any) *MemoryTable {
	t := &MemoryTable{
		cols:    cols.Clone(),
		base:    append([]map[string]any(nil), rows...),
		subs:    make(map[*memSub]struct{}),
		sizeFns: make(map[int]func(int64)),
	}
	t.view = t.materialize()
	return t
}

// Size returns the current effective row count.
func (t *MemoryTable) Size() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return int64(len(t.view))
}

// Columns returns the fixed column descriptors.
func (t *MemoryTable) Columns() rowmodel.Header {
	return t.cols.Clone()
}

// Append adds a row to the table and pushes the resulting view to all
// subscribers.
func (t *MemoryTable) Append(cells map[string]any) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.base = append(t.base, cells)
	t.refreshLocked()
}

// Replace swaps the entire row set and pushes the resulting view to
// all subscribers.
func (t *MemoryTable) Replace(rows []map[string]any) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.base = append([]map[string]any(nil), rows...)
	t.refreshLocked()
}

// SubscribeAll opens a full-table subscription. The current snapshot is
// delivered as the first update.
func (t *MemoryTable) SubscribeAll() (Subscription, error) {
	return t.subscribe(true, 0, 0)
}

// SubscribeRange opens a subscription over [first, last].
func (t *MemoryTable) SubscribeRange(first, last int64) (RangeSubscription, error) {
	return t.subscribe(false, first, last)
}

func (t *MemoryTable) subscribe(all bool, first, last int64) (*memSub, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, ErrClosed
	}
	s := &memSub{
		table: t,
		ch:    make(chan Update, subBuffer),
		all:   all,
		first: first,
		last:  last,
	}
	t.subs[s] = struct{}{}
	t.opened++
	upd := t.updateFor(s)
	t.mu.Unlock()

	s.push(upd)
	return s, nil
}

// ApplySort replaces the table ordering. Synchronous: the view and all
// subscriber windows reflect the new order on return.
func (t *MemoryTable) ApplySort(spec SortSpec) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	t.sortOn = spec
	t.refreshLocked()
	return nil
}

// ApplyFilter replaces the table filter. A nil condition clears it.
func (t *MemoryTable) ApplyFilter(cond *Condition) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	t.filter = cond
	t.refreshLocked()
	return nil
}

// OnSizeChanged registers a row-count listener.
func (t *MemoryTable) OnSizeChanged(fn func(int64)) func() {
	t.mu.Lock()
	id := t.nextFn
	t.nextFn++
	t.sizeFns[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.sizeFns, id)
		t.mu.Unlock()
	}
}

// Close tears the table down and closes all subscriptions.
func (t *MemoryTable) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	subs := make([]*memSub, 0, len(t.subs))
	for s := range t.subs {
		subs = append(subs, s)
	}
	t.subs = map[*memSub]struct{}{}
	t.sizeFns = map[int]func(int64){}
	t.mu.Unlock()

	for _, s := range subs {
		s.Close()
	}
	return nil
}

// ActiveSubscriptions returns the number of live subscriptions.
func (t *MemoryTable) ActiveSubscriptions() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// SubscriptionsOpened returns the total number of subscriptions ever
// created on this table.
func (t *MemoryTable) SubscriptionsOpened() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.opened
}

// refreshLocked recomputes the view and broadcasts to subscribers and
// size listeners. Called with t.mu held; releases it.
func (t *MemoryTable) refreshLocked() {
	oldSize := len(t.view)
	t.view = t.materialize()
	newSize := len(t.view)

	type delivery struct {
		sub *memSub
		upd Update
	}
	dd := make([]delivery, 0, len(t.subs))
	for s := range t.subs {
		dd = append(dd, delivery{s, t.updateFor(s)})
	}
	var fns []func(int64)
	if newSize != oldSize {
		for _, fn := range t.sizeFns {
			fns = append(fns, fn)
		}
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn(int64(newSize))
	}
	for _, d := range dd {
		d.sub.push(d.upd)
	}
}

func (t *MemoryTable) materialize() []map[string]any {
	view := make([]map[string]any, 0, len(t.base))
	for _, row := range t.base {
		if evalCondition(t.filter, row) {
			view = append(view, row)
		}
	}
	if len(t.sortOn) > 0 {
		spec := t.sortOn
		sort.SliceStable(view, func(i, j int) bool {
			for _, sc := range spec {
				c := compareCells(view[i][sc.Name], view[j][sc.Name])
				if c == 0 {
					continue
				}
				if sc.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}
	return view
}

// updateFor builds the update a subscriber should see. Called with
// t.mu held.
func (t *MemoryTable) updateFor(s *memSub) Update {
	if s.all {
		return Update{Offset: 0, Rows: append([]map[string]any(nil), t.view...)}
	}
	first, last := s.first, s.last
	size := int64(len(t.view))
	if first >= size {
		return Update{Offset: first}
	}
	if last > size-1 {
		last = size - 1
	}
	return Update{Offset: first, Rows: append([]map[string]any(nil), t.view[first:last+1]...)}
}

type memSub struct {
	table  *MemoryTable
	ch     chan Update
	all    bool
	first  int64
	last   int64
	closed bool
}

func (s *memSub) Updates() <-chan Update {
	return s.ch
}

func (s *memSub) Close() error {
	t := s.table
	t.mu.Lock()
	if s.closed {
		t.mu.Unlock()
		return nil
	}
	s.closed = true
	delete(t.subs, s)
	t.mu.Unlock()

	close(s.ch)
	return nil
}

// SetViewport moves the subscribed range in place and redelivers the
// new window.
func (s *memSub) SetViewport(first, last int64) error {
	t := s.table
	t.mu.Lock()
	if s.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	s.first, s.last = first, last
	upd := t.updateFor(s)
	t.mu.Unlock()

	s.push(upd)
	return nil
}

func (s *memSub) push(u Update) {
	select {
	case s.ch <- u:
	default:
		glog.Warningf("memtable: subscriber lagging, dropping update of %d rows", len(u.Rows))
	}
}

// evalCondition evaluates a predicate tree against a single row. A
// missing column reads as nil.
func evalCondition(c *Condition, row map[string]any) bool {
	if c == nil {
		return true
	}
	switch c.Op {
	case OpAnd:
		for _, k := range c.Children {
			if !evalCondition(k, row) {
				return false
			}
		}
		return true
	case OpOr:
		for _, k := range c.Children {
			if evalCondition(k, row) {
				return true
			}
		}
		return false
	case OpNot:
		if len(c.Children) != 1 {
			return false
		}
		return !evalCondition(c.Children[0], row)
	}

	v, ok := row[c.Column]
	if !ok {
		v = nil
	}
	switch c.Op {
	case OpEq:
		return cellsEqual(v, c.Value)
	case OpNeq:
		return !cellsEqual(v, c.Value)
	case OpGt:
		cmp, ok := compareOrdered(v, c.Value)
		return ok && cmp > 0
	case OpGte:
		cmp, ok := compareOrdered(v, c.Value)
		return ok && cmp >= 0
	case OpLt:
		cmp, ok := compareOrdered(v, c.Value)
		return ok && cmp < 0
	case OpLte:
		cmp, ok := compareOrdered(v, c.Value)
		return ok && cmp <= 0
	case OpContains:
		return v != nil && strings.Contains(cellString(v), cellString(c.Value))
	case OpNotContains:
		return v != nil && !strings.Contains(cellString(v), cellString(c.Value))
	case OpStartsWith:
		return v != nil && strings.HasPrefix(cellString(v), cellString(c.Value))
	case OpEndsWith:
		return v != nil && strings.HasSuffix(cellString(v), cellString(c.Value))
	case OpIsNull:
		return v == nil
	case OpNotNull:
		return v != nil
	default:
		glog.Warningf("memtable: unknown filter op %q", c.Op)
		return false
	}
}

func cellsEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return cellString(a) == cellString(b)
}

// compareOrdered compares two cell values: numerically when both sides
// coerce to a number (temporal values coerce to epoch nanos), falling
// back to natural string order.
func compareOrdered(a, b any) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	as, bs := cellString(a), cellString(b)
	switch {
	case as == bs:
		return 0, true
	case sortorder.NaturalLess(as, bs):
		return -1, true
	default:
		return 1, true
	}
}

// compareCells orders two cells for sorting; nils sort first.
func compareCells(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if cmp, ok := compareOrdered(a, b); ok {
		return cmp
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case time.Time:
		return float64(n.UnixNano()), true
	case string:
		// Enterprise-edition temporal values arrive as RFC 3339.
		if ts, err := time.Parse(time.RFC3339Nano, n); err == nil {
			return float64(ts.UnixNano()), true
		}
	}
	return 0, false
}

func cellString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
