package sync

import (
	"strconv"
	gosync "sync"

	"github.com/golang/glog"

	"github.com/gridsync/gridsync/internal/remote"
	"github.com/gridsync/gridsync/internal/rowmodel"
)

// subState tracks the subscription lifecycle. The only legal
// transitions from subscribed are viewport moves and close;
// reconstruction always goes through a fresh subscribed state.
type subState int

const (
	subUninitialized subState = iota
	subSubscribed
	subClosed
)

// Viewport is the currently requested visible row range, inclusive on
// both ends. Meaningful only relative to the table's current
// sort/filter generation.
type Viewport struct {
	First int64
	Last  int64
}

// Width returns the span between the window edges.
func (v Viewport) Width() int64 {
	return v.Last - v.First
}

// Provider implements the windowed paging contract: it reports the
// table's row count, serves row data for the requested window, and
// applies sort/filter against the remote table, resubscribing
// afterward since row positions are renumbered.
type Provider struct {
	mu        gosync.Mutex
	table     remote.Table
	header    rowmodel.Header
	enc       remote.TemporalEncoder
	sink      GridSink
	sub       remote.RangeSubscription
	state     subState
	vp        Viewport
	rmSize    func()
	destroyed bool
}

// NewProvider creates a provider over the table. The temporal encoder
// is resolved once per connection; nil falls back to the community
// encoding.
func NewProvider(t remote.Table, enc remote.TemporalEncoder) *Provider {
	if enc == nil {
		enc = remote.EncoderFor(remote.EditionCommunity)
	}
	return &Provider{table: t, header: t.Columns(), enc: enc}
}

// Init reports the current size to the sink and keeps re-reporting it
// whenever the remote row count changes.
func (p *Provider) Init(sink GridSink) {
	p.mu.Lock()
	p.sink = sink
	p.rmSize = p.table.OnSizeChanged(func(n int64) {
		sink.SetRowCount(n)
	})
	p.mu.Unlock()

	sink.SetRowCount(p.table.Size())
}

// SetViewportRange is the single mutation point for the current
// viewport. Invalid ranges are silently ignored: they legitimately
// occur during UI transition states. An open subscription is moved in
// place; otherwise a new one is opened.
func (p *Provider) SetViewportRange(first, last int64) {
	if first < 0 || last < first {
		glog.V(2).Infof("sync: ignoring invalid viewport [%d,%d]", first, last)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return
	}
	if p.state == subSubscribed {
		if err := p.sub.SetViewport(first, last); err != nil {
			glog.Warningf("sync: viewport move [%d,%d]: %v", first, last, err)
			return
		}
		p.vp = Viewport{First: first, Last: last}
		return
	}
	p.openLocked(first, last)
}

// ApplySort resolves the requested column/direction pairs, applies the
// combined spec to the remote table and resubscribes from row zero.
// Unresolvable columns are skipped, never failing the batch.
func (p *Provider) ApplySort(model SortModel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return
	}
	if err := p.table.ApplySort(model.spec(p.header)); err != nil {
		glog.Errorf("sync: apply sort: %v", err)
		return
	}
	p.resubscribeLocked()
}

// ApplyFilter builds a type-appropriate predicate per filtered column,
// combines them with AND, applies the result to the remote table and
// resubscribes from row zero. Per-column failures are isolated.
func (p *Provider) ApplyFilter(model FilterModel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return
	}
	if err := p.table.ApplyFilter(model.Condition(p.header, p.enc)); err != nil {
		glog.Errorf("sync: apply filter: %v", err)
		return
	}
	p.resubscribeLocked()
}

// Destroy removes the size listener and closes any open subscription.
// Safe to call multiple times.
func (p *Provider) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return
	}
	p.destroyed = true
	if p.rmSize != nil {
		p.rmSize()
		p.rmSize = nil
	}
	p.closeSubLocked()
}

// ColumnNames returns the column names. No subscription side effects.
func (p *Provider) ColumnNames() []string {
	return p.header.Names()
}

// ColumnTypes returns the column type tags. No subscription side
// effects.
func (p *Provider) ColumnTypes() []string {
	return p.header.Types()
}

// Header returns the column descriptors.
func (p *Provider) Header() rowmodel.Header {
	return p.header.Clone()
}

// Viewport returns the current window.
func (p *Provider) Viewport() Viewport {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.vp
}

// resubscribeLocked runs the close, re-read size, reopen-from-zero
// sequence after a sort or filter mutation. Absolute row positions are
// meaningless across the mutation; the grid re-requests its real range
// once it redraws. Width carries over, clamped to the new size. No
// subscription is opened on an empty table.
func (p *Provider) resubscribeLocked() {
	width := p.vp.Width()
	p.closeSubLocked()

	size := p.table.Size()
	if p.sink != nil {
		p.sink.SetRowCount(size)
	}
	if size == 0 {
		return
	}
	last := width
	if last > size-1 {
		last = size - 1
	}
	p.openLocked(0, last)
}

// closeSubLocked closes the current subscription before any
// replacement is opened, never the other way around.
func (p *Provider) closeSubLocked() {
	if p.sub != nil {
		p.sub.Close()
		p.sub = nil
	}
	if p.state == subSubscribed {
		p.state = subClosed
	}
}

func (p *Provider) openLocked(first, last int64) {
	sub, err := p.table.SubscribeRange(first, last)
	if err != nil {
		// Degrades to no data until the next range, sort or filter
		// request retries implicitly.
		glog.Errorf("sync: subscribe [%d,%d]: %v", first, last, err)
		return
	}
	p.sub = sub
	p.state = subSubscribed
	p.vp = Viewport{First: first, Last: last}
	go p.consume(sub)
}

// consume forwards window batches to the sink, keyed by absolute row
// index. Exits as soon as the subscription is superseded so a stale
// window can never overwrite a fresh one.
func (p *Provider) consume(sub remote.RangeSubscription) {
	for upd := range sub.Updates() {
		p.mu.Lock()
		if p.sub != sub {
			p.mu.Unlock()
			return
		}
		sink, header := p.sink, p.header
		p.mu.Unlock()

		if sink == nil {
			continue
		}
		rows := make(rowmodel.Rows, 0, len(upd.Rows))
		for i, raw := range upd.Rows {
			key := strconv.FormatInt(upd.Offset+int64(i), 10)
			rows = append(rows, extractRow(header, raw, key))
		}
		sink.SetRows(upd.Offset, rows)
	}
}
