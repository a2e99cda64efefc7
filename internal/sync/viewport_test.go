package sync

import (
	"fmt"
	gosync "sync"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/gridsync/gridsync/internal/remote"
	"github.com/gridsync/gridsync/internal/rowmodel"
)

type sinkBatch struct {
	offset int64
	rows   rowmodel.Rows
}

type testSink struct {
	mu      gosync.Mutex
	counts  []int64
	batches chan sinkBatch
}

func newTestSink() *testSink {
	return &testSink{batches: make(chan sinkBatch, 32)}
}

func (s *testSink) SetRowCount(n int64) {
	s.mu.Lock()
	s.counts = append(s.counts, n)
	s.mu.Unlock()
}

func (s *testSink) SetRows(offset int64, rows rowmodel.Rows) {
	s.batches <- sinkBatch{offset: offset, rows: rows}
}

func (s *testSink) lastCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.counts) == 0 {
		return -1
	}
	return s.counts[len(s.counts)-1]
}

func waitBatch(t *testing.T, s *testSink) sinkBatch {
	t.Helper()
	select {
	case b := <-s.batches:
		return b
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for row batch")
		return sinkBatch{}
	}
}

func seededTable(n int) *remote.MemoryTable {
	rows := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, map[string]any{
			"Id":  fmt.Sprintf("%d", i),
			"Val": fmt.Sprintf("item%d", i),
			"Qty": int64(i),
		})
	}
	header := rowmodel.Header{
		{Name: "Id", Type: "string"},
		{Name: "Val", Type: "string"},
		{Name: "Qty", Type: "long"},
	}
	return remote.NewMemoryTable(header, rows)
}

func TestProviderInitReportsSize(t *testing.T) {
	table := seededTable(20)
	p := NewProvider(table, nil)
	defer p.Destroy()

	sink := newTestSink()
	p.Init(sink)
	assert.Equal(t, int64(20), sink.lastCount())
}

func TestProviderInvalidRangeIgnored(t *testing.T) {
	table := seededTable(20)
	p := NewProvider(table, nil)
	defer p.Destroy()
	p.Init(newTestSink())

	p.SetViewportRange(-1, 5)
	p.SetViewportRange(5, 2)

	assert.Equal(t, Viewport{}, p.Viewport())
	assert.Equal(t, 0, table.SubscriptionsOpened())
}

func TestProviderWindowDelivery(t *testing.T) {
	table := seededTable(20)
	p := NewProvider(table, nil)
	defer p.Destroy()
	sink := newTestSink()
	p.Init(sink)

	p.SetViewportRange(0, 9)
	b := waitBatch(t, sink)
	assert.Equal(t, int64(0), b.offset)
	assert.Equal(t, 10, len(b.rows))
	assert.Equal(t, "item0", b.rows[0].Cells["Val"])
	// Rows are keyed by absolute index.
	assert.Equal(t, "0", b.rows[0].Key)
	assert.Equal(t, 1, table.SubscriptionsOpened())

	// Scrolling moves the open subscription in place.
	p.SetViewportRange(5, 14)
	b = waitBatch(t, sink)
	assert.Equal(t, int64(5), b.offset)
	assert.Equal(t, 10, len(b.rows))
	assert.Equal(t, "item5", b.rows[0].Cells["Val"])
	assert.Equal(t, 1, table.SubscriptionsOpened())
}

func TestProviderFilterResubscribesFromZero(t *testing.T) {
	table := seededTable(100)
	p := NewProvider(table, nil)
	defer p.Destroy()
	sink := newTestSink()
	p.Init(sink)

	p.SetViewportRange(0, 49)
	waitBatch(t, sink)

	// Shrink the table to 5 rows: window reopens at [0,4].
	p.ApplyFilter(FilterModel{
		"Qty": {Type: "inRange", Filter: 0, FilterTo: 4},
	})

	assert.Equal(t, Viewport{First: 0, Last: 4}, p.Viewport())
	assert.Equal(t, int64(5), sink.lastCount())
	assert.Equal(t, 2, table.SubscriptionsOpened())
	assert.Equal(t, 1, table.ActiveSubscriptions())

	b := waitBatch(t, sink)
	assert.Equal(t, int64(0), b.offset)
	assert.Equal(t, 5, len(b.rows))

	// The grid re-requesting the same range moves in place.
	p.SetViewportRange(0, 4)
	waitBatch(t, sink)
	assert.Equal(t, 2, table.SubscriptionsOpened())
}

func TestProviderSortResubscribesFromZero(t *testing.T) {
	table := seededTable(30)
	p := NewProvider(table, nil)
	defer p.Destroy()
	sink := newTestSink()
	p.Init(sink)

	p.SetViewportRange(10, 19)
	waitBatch(t, sink)

	p.ApplySort(SortModel{{ColID: "Qty", Sort: "desc"}})

	// Width carries over, anchored at zero.
	assert.Equal(t, Viewport{First: 0, Last: 9}, p.Viewport())
	b := waitBatch(t, sink)
	assert.Equal(t, int64(0), b.offset)
	assert.Equal(t, int64(29), b.rows[0].Cells["Qty"])
}

func TestProviderEmptyFilterResultOpensNoSubscription(t *testing.T) {
	table := seededTable(10)
	p := NewProvider(table, nil)
	defer p.Destroy()
	sink := newTestSink()
	p.Init(sink)

	p.SetViewportRange(0, 9)
	waitBatch(t, sink)

	p.ApplyFilter(FilterModel{
		"Val": {Type: "equals", Filter: "no-such-row"},
	})

	assert.Equal(t, int64(0), sink.lastCount())
	assert.Equal(t, 0, table.ActiveSubscriptions())
	assert.Equal(t, 1, table.SubscriptionsOpened())
}

func TestProviderSortSkipsUnknownColumns(t *testing.T) {
	table := seededTable(10)
	p := NewProvider(table, nil)
	defer p.Destroy()
	sink := newTestSink()
	p.Init(sink)
	p.SetViewportRange(0, 4)
	waitBatch(t, sink)

	// The unknown column drops out; the valid one still applies.
	p.ApplySort(SortModel{
		{ColID: "Bogus", Sort: "asc"},
		{ColID: "Qty", Sort: "desc"},
	})
	b := waitBatch(t, sink)
	assert.Equal(t, int64(9), b.rows[0].Cells["Qty"])
}

func TestProviderDestroyIdempotent(t *testing.T) {
	table := seededTable(10)
	p := NewProvider(table, nil)
	sink := newTestSink()
	p.Init(sink)
	p.SetViewportRange(0, 4)
	waitBatch(t, sink)

	p.Destroy()
	p.Destroy()
	assert.Equal(t, 0, table.ActiveSubscriptions())

	// No new subscriptions after teardown.
	p.SetViewportRange(0, 4)
	assert.Equal(t, 1, table.SubscriptionsOpened())
}

func TestProviderColumnAccessors(t *testing.T) {
	table := seededTable(1)
	p := NewProvider(table, nil)
	defer p.Destroy()

	assert.Equal(t, []string{"Id", "Val", "Qty"}, p.ColumnNames())
	assert.Equal(t, []string{"string", "string", "long"}, p.ColumnTypes())
	assert.Equal(t, 0, table.SubscriptionsOpened())
}
