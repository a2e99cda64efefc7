package sync

import (
	"errors"
	"fmt"
	"strconv"
	gosync "sync"

	"github.com/golang/glog"

	"github.com/gridsync/gridsync/internal/remote"
	"github.com/gridsync/gridsync/internal/rowmodel"
)

// ErrStarted signals a second Start on a running reconciler.
var ErrStarted = errors.New("sync: reconciler already started")

// Reconciler maintains a complete local mirror of a remote table and
// emits minimal add/update/remove transactions describing how the
// mirror changed between consecutive full snapshots.
type Reconciler struct {
	mu        gosync.Mutex
	table     remote.Table
	header    rowmodel.Header
	keyCol    string
	baseline  *rowmodel.RowSet
	sub       remote.Subscription
	listeners []BulkListener
	started   bool
}

func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// AddListener registers a transaction listener.
func (r *Reconciler) AddListener(l BulkListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// RemoveListener unregisters a transaction listener.
func (r *Reconciler) RemoveListener(l BulkListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, listener := range r.listeners {
		if listener == l {
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
			return
		}
	}
}

// Start opens a full-column subscription on the table. The first
// column is recorded as the row-key field.
func (r *Reconciler) Start(t remote.Table) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return ErrStarted
	}
	r.table = t
	r.header = t.Columns()
	r.keyCol = ""
	if len(r.header) > 0 {
		r.keyCol = r.header[0].Name
	}
	r.baseline = nil
	r.mu.Unlock()

	sub, err := t.SubscribeAll()
	if err != nil {
		return fmt.Errorf("sync: subscribe: %w", err)
	}

	r.mu.Lock()
	r.sub = sub
	r.started = true
	r.mu.Unlock()

	go r.loop(sub)
	return nil
}

// Stop closes the subscription. Idempotent: safe when never started or
// already stopped.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	sub := r.sub
	r.sub = nil
	r.started = false
	r.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
}

// loop processes each update synchronously to completion; updates for
// one subscription are never handled concurrently.
func (r *Reconciler) loop(sub remote.Subscription) {
	for upd := range sub.Updates() {
		r.onUpdate(upd)
	}
}

func (r *Reconciler) onUpdate(upd remote.Update) {
	// A malformed update degrades that update only.
	defer func() {
		if p := recover(); p != nil {
			glog.Errorf("sync: update handler panicked: %v", p)
		}
	}()

	r.mu.Lock()
	header, keyCol := r.header, r.keyCol
	r.mu.Unlock()

	next := rowmodel.NewRowSet(len(upd.Rows))
	positional := 0
	for i, raw := range upd.Rows {
		key := ""
		if kv, ok := raw[keyCol]; ok && kv != nil {
			key = fmt.Sprintf("%v", kv)
		} else {
			// Degraded mode: positional identity is stable only
			// within a single update, not across reorders.
			key = strconv.Itoa(i)
			positional++
		}
		next.Add(extractRow(header, raw, key))
	}
	if positional > 0 {
		glog.Warningf("sync: %d rows missing key column %q, using positional identity", positional, keyCol)
	}

	r.mu.Lock()
	first := r.baseline == nil
	var tx rowmodel.Transaction
	if !first {
		tx = r.baseline.Diff(next)
	}
	// Replace the baseline even when nothing is emitted: a pure
	// reorder with identical content must still rebase future diffs.
	r.baseline = next
	listeners := make([]BulkListener, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	switch {
	case first:
		for _, l := range listeners {
			l.GridLoaded(header, next.Rows())
		}
	case !tx.Empty():
		glog.V(2).Infof("sync: emitting %s", tx)
		for _, l := range listeners {
			l.GridTransaction(tx)
		}
	}
}

// Row returns the current baseline snapshot for a row key.
func (r *Reconciler) Row(key string) (rowmodel.Row, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.baseline == nil {
		return rowmodel.Row{}, false
	}
	return r.baseline.Get(key)
}

// Header returns the table's column descriptors.
func (r *Reconciler) Header() rowmodel.Header {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.header.Clone()
}
