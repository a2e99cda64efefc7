package remote

import (
	"sync"
	"sync/atomic"

	"github.com/gridsync/gridsync/internal/rowmodel"
)

// wireTable is a Table handle backed by a Session.
type wireTable struct {
	session *Session
	name    string
	cols    rowmodel.Header
	size    atomic.Int64

	mu      sync.Mutex
	sizeFns map[int]func(int64)
	nextFn  int
}

func (t *wireTable) Size() int64 {
	return t.size.Load()
}

func (t *wireTable) Columns() rowmodel.Header {
	return t.cols.Clone()
}

func (t *wireTable) SubscribeAll() (Subscription, error) {
	return t.subscribe(frame{Type: frameSubscribe, Table: t.name, All: true})
}

func (t *wireTable) SubscribeRange(first, last int64) (RangeSubscription, error) {
	return t.subscribe(frame{Type: frameSubscribe, Table: t.name, First: first, Last: last})
}

func (t *wireTable) subscribe(f frame) (*wireSub, error) {
	s := t.session
	f.ID = s.newID()
	sub := &wireSub{session: s, id: f.ID, ch: make(chan Update, subBuffer)}

	// Register before the round trip so the first data frame cannot
	// outrun us.
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.subs[f.ID] = sub
	s.mu.Unlock()

	if err := s.write(f); err != nil {
		sub.drop()
		return nil, err
	}
	return sub, nil
}

func (t *wireTable) ApplySort(spec SortSpec) error {
	_, err := t.session.request(frame{Type: frameSort, Table: t.name, Sort: spec})
	return err
}

func (t *wireTable) ApplyFilter(cond *Condition) error {
	_, err := t.session.request(frame{Type: frameFilter, Table: t.name, Filter: cond})
	return err
}

func (t *wireTable) OnSizeChanged(fn func(int64)) func() {
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

func (t *wireTable) setSize(n int64) {
	t.size.Store(n)
	t.mu.Lock()
	fns := make([]func(int64), 0, len(t.sizeFns))
	for _, fn := range t.sizeFns {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn(n)
	}
}

func (t *wireTable) Close() error {
	s := t.session
	s.mu.Lock()
	delete(s.tables, t.name)
	s.mu.Unlock()
	return nil
}

// wireSub is a server-side subscription correlated by id.
type wireSub struct {
	session *Session
	id      string
	ch      chan Update

	mu     sync.Mutex
	closed bool
}

func (s *wireSub) Updates() <-chan Update {
	return s.ch
}

func (s *wireSub) SetViewport(first, last int64) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.mu.Unlock()
	return s.session.write(frame{Type: frameViewport, ID: s.id, First: first, Last: last})
}

func (s *wireSub) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	sess := s.session
	sess.mu.Lock()
	delete(sess.subs, s.id)
	sess.mu.Unlock()

	err := sess.write(frame{Type: frameUnsubscribe, ID: s.id})
	close(s.ch)
	return err
}

func (s *wireSub) push(u Update) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	select {
	case s.ch <- u:
	default:
	}
	s.mu.Unlock()
}

// drop detaches the subscription without notifying the server, used on
// session teardown.
func (s *wireSub) drop() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	s.mu.Unlock()
}
