package remote

import (
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/gridsync/gridsync/internal/rowmodel"
)

var memHeader = rowmodel.Header{
	{Name: "Name", Type: "string"},
	{Name: "Qty", Type: "long"},
}

func memRows() []map[string]any {
	return []map[string]any{
		{"Name": "item10", "Qty": int64(10)},
		{"Name": "item2", "Qty": int64(2)},
		{"Name": "item1", "Qty": int64(1)},
	}
}

func drain(t *testing.T, sub Subscription) Update {
	t.Helper()
	var last Update
	got := false
	for {
		select {
		case u, ok := <-sub.Updates():
			if !ok {
				return last
			}
			last, got = u, true
		case <-time.After(200 * time.Millisecond):
			if !got {
				t.Fatal("no update received")
			}
			return last
		}
	}
}

func TestMemoryTableNaturalSort(t *testing.T) {
	table := NewMemoryTable(memHeader, memRows())
	assert.Equal(t, nil, table.ApplySort(SortSpec{{Name: "Name"}}))

	sub, err := table.SubscribeAll()
	assert.Equal(t, nil, err)
	defer sub.Close()

	u := drain(t, sub)
	// Natural order: item2 before item10.
	assert.Equal(t, "item1", u.Rows[0]["Name"])
	assert.Equal(t, "item2", u.Rows[1]["Name"])
	assert.Equal(t, "item10", u.Rows[2]["Name"])
}

func TestMemoryTableSortDescending(t *testing.T) {
	table := NewMemoryTable(memHeader, memRows())
	assert.Equal(t, nil, table.ApplySort(SortSpec{{Name: "Qty", Desc: true}}))

	sub, _ := table.SubscribeAll()
	defer sub.Close()

	u := drain(t, sub)
	assert.Equal(t, int64(10), u.Rows[0]["Qty"])
}

func TestMemoryTableFilter(t *testing.T) {
	table := NewMemoryTable(memHeader, memRows())
	assert.Equal(t, nil, table.ApplyFilter(Column("Qty").Gte(2)))
	assert.Equal(t, int64(2), table.Size())

	assert.Equal(t, nil, table.ApplyFilter(Column("Name").Contains("item1").And(Column("Qty").Lt(5))))
	assert.Equal(t, int64(1), table.Size())

	// Clearing the filter restores the full set.
	assert.Equal(t, nil, table.ApplyFilter(nil))
	assert.Equal(t, int64(3), table.Size())
}

func TestMemoryTableFilterNullChecks(t *testing.T) {
	table := NewMemoryTable(memHeader, []map[string]any{
		{"Name": "a", "Qty": int64(1)},
		{"Name": "b"},
	})

	assert.Equal(t, nil, table.ApplyFilter(Column("Qty").IsNull()))
	assert.Equal(t, int64(1), table.Size())

	assert.Equal(t, nil, table.ApplyFilter(Column("Qty").NotNull()))
	assert.Equal(t, int64(1), table.Size())
}

func TestMemoryTableRangeClamped(t *testing.T) {
	table := NewMemoryTable(memHeader, memRows())
	sub, err := table.SubscribeRange(1, 50)
	assert.Equal(t, nil, err)
	defer sub.Close()

	u := drain(t, sub)
	assert.Equal(t, int64(1), u.Offset)
	assert.Equal(t, 2, len(u.Rows))
}

func TestMemoryTableViewportMove(t *testing.T) {
	table := NewMemoryTable(memHeader, memRows())
	sub, _ := table.SubscribeRange(0, 0)
	defer sub.Close()
	drain(t, sub)

	assert.Equal(t, nil, sub.SetViewport(2, 2))
	u := drain(t, sub)
	assert.Equal(t, int64(2), u.Offset)
	assert.Equal(t, 1, len(u.Rows))
	assert.Equal(t, "item1", u.Rows[0]["Name"])
}

func TestMemoryTableSizeListener(t *testing.T) {
	table := NewMemoryTable(memHeader, memRows())

	sizes := make(chan int64, 8)
	remove := table.OnSizeChanged(func(n int64) { sizes <- n })

	table.Append(map[string]any{"Name": "item3", "Qty": int64(3)})
	select {
	case n := <-sizes:
		assert.Equal(t, int64(4), n)
	case <-time.After(time.Second):
		t.Fatal("no size notification")
	}

	remove()
	table.Append(map[string]any{"Name": "item4", "Qty": int64(4)})
	select {
	case n := <-sizes:
		t.Fatalf("unexpected size notification: %d", n)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMemoryTableSubscriptionCloseIdempotent(t *testing.T) {
	table := NewMemoryTable(memHeader, memRows())
	sub, _ := table.SubscribeAll()

	assert.Equal(t, nil, sub.Close())
	assert.Equal(t, nil, sub.Close())
	assert.Equal(t, 0, table.ActiveSubscriptions())
}

func TestMemoryTableClose(t *testing.T) {
	table := NewMemoryTable(memHeader, memRows())
	sub, _ := table.SubscribeAll()
	drain(t, sub)

	assert.Equal(t, nil, table.Close())
	assert.Equal(t, nil, table.Close())

	_, err := table.SubscribeAll()
	assert.Equal(t, ErrClosed, err)
}
