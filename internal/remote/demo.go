package remote

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/gridsync/gridsync/internal/rowmodel"
)

// Demo feed: a ticking fixed-income executions table, one row per
// interval, for running the grid without a server.

var demoColumns = rowmodel.Header{
	{Name: "ExecId", Type: "string"},
	{Name: "OrderId", Type: "string"},
	{Name: "Symbol", Type: "string"},
	{Name: "CUSIP", Type: "string"},
	{Name: "Side", Type: "string"},
	{Name: "Quantity", Type: "long"},
	{Name: "Price", Type: "double"},
	{Name: "Yield", Type: "double"},
	{Name: "Notional", Type: "double"},
	{Name: "Venue", Type: "string"},
	{Name: "Counterparty", Type: "string"},
	{Name: "ExecStatus", Type: "string"},
	{Name: "Trader", Type: "string"},
	{Name: "Book", Type: "string"},
	{Name: "ExecTime", Type: "instant"},
}

var (
	demoSymbols  = []string{"UST 2Y", "UST 5Y", "UST 10Y", "UST 30Y", "SOFR 3M", "TIPS 10Y"}
	demoCusips   = []string{"91282CJL6", "91282CJM4", "91282CJN2", "912810TM0", "91282CJP7", "912810TP3"}
	demoVenues   = []string{"D2C", "D2D", "ECN", "RFQ", "CLOB"}
	demoParties  = []string{"GS", "JPM", "MS", "BARC", "CITI", "BofA", "HSBC", "DB"}
	demoStatuses = []string{"FILLED", "FILLED", "FILLED", "PARTIAL", "REJECTED"}
	demoTraders  = []string{"JSMITH", "ADOE", "MWONG", "KPATEL"}
	demoBooks    = []string{"RATES-NY", "RATES-LDN", "RATES-TKY"}
)

// DemoFeed ticks rows into a MemoryTable.
type DemoFeed struct {
	table *MemoryTable
	rng   *rand.Rand
	seq   int64
}

// NewDemoFeed creates the executions table pre-seeded with the given
// number of rows.
func NewDemoFeed(seed int64, initialRows int) *DemoFeed {
	f := &DemoFeed{
		table: NewMemoryTable(demoColumns, nil),
		rng:   rand.New(rand.NewSource(seed)),
	}
	for i := 0; i < initialRows; i++ {
		f.tick()
	}
	return f
}

// Table returns the backing table.
func (f *DemoFeed) Table() *MemoryTable {
	return f.table
}

// Start appends one execution per interval until the context ends.
func (f *DemoFeed) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				f.tick()
			}
		}
	}()
}

func (f *DemoFeed) tick() {
	i := f.seq
	f.seq++

	qty := int64(math.Round(f.rng.Float64()*50+1)) * 1_000_000
	price := 99.0 + math.Round(f.rng.Float64()*400)/128.0
	f.table.Append(map[string]any{
		"ExecId":       fmt.Sprintf("EXE-%06d", i),
		"OrderId":      fmt.Sprintf("ORD-%04d", i%500),
		"Symbol":       demoSymbols[i%int64(len(demoSymbols))],
		"CUSIP":        demoCusips[i%int64(len(demoCusips))],
		"Side":         map[bool]string{true: "BUY", false: "SELL"}[i%2 == 0],
		"Quantity":     qty,
		"Price":        price,
		"Yield":        3.5 + math.Round(f.rng.Float64()*200)/100.0,
		"Notional":     float64(qty) * price / 100.0,
		"Venue":        demoVenues[i%int64(len(demoVenues))],
		"Counterparty": demoParties[f.rng.Intn(len(demoParties))],
		"ExecStatus":   demoStatuses[f.rng.Intn(len(demoStatuses))],
		"Trader":       demoTraders[i%int64(len(demoTraders))],
		"Book":         demoBooks[i%int64(len(demoBooks))],
		"ExecTime":     time.Now().UTC(),
	})
}
