// Package remote defines the capability contract for a remote-table
// server and provides two implementations: a websocket wire client and
// an in-process table used by demo mode and tests.
package remote

import (
	"errors"

	"github.com/gridsync/gridsync/internal/rowmodel"
)

var (
	// ErrClosed signals use of a closed table, session or subscription.
	ErrClosed = errors.New("remote: closed")

	// ErrNoSession signals a table operation without a live session.
	ErrNoSession = errors.New("remote: no session")
)

// Update carries one batch of row data from a subscription. Range
// subscriptions deliver a partial batch starting at Offset; full
// subscriptions always deliver the complete row set at offset 0.
type Update struct {
	Offset int64
	Rows   []map[string]any
}

// Subscription is an active registration for table updates. It must be
// closed before a replacement is opened on the same table. The updates
// channel is closed when the subscription is.
type Subscription interface {
	Updates() <-chan Update
	Close() error
}

// RangeSubscription is a subscription over a bounded row range which
// can be moved in place without teardown.
type RangeSubscription interface {
	Subscription
	SetViewport(first, last int64) error
}

// Table is the remote-table capability consumed by the sync core.
// Sort and filter application are synchronous and replace any prior
// sort or filter; both renumber row positions.
type Table interface {
	// Size returns the current row count.
	Size() int64

	// Columns returns the ordered column descriptors, fixed for the
	// table's lifetime.
	Columns() rowmodel.Header

	// SubscribeAll opens a full-table, all-columns subscription.
	SubscribeAll() (Subscription, error)

	// SubscribeRange opens a subscription over [first, last].
	SubscribeRange(first, last int64) (RangeSubscription, error)

	// ApplySort replaces the table's effective ordering.
	ApplySort(spec SortSpec) error

	// ApplyFilter replaces the table's effective row set. A nil
	// condition clears the filter.
	ApplyFilter(cond *Condition) error

	// OnSizeChanged registers a row-count listener and returns its
	// removal function.
	OnSizeChanged(fn func(int64)) (remove func())

	Close() error
}
