package remote

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/glog"
	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
)

// requestTimeout bounds synchronous round trips to the server. The
// sync core itself carries no timeouts; this belongs to the connection
// collaborator.
const requestTimeout = 30 * time.Second

// Session is an authenticated websocket connection to a remote table
// server. One session serves one table for its lifetime.
type Session struct {
	conn    *websocket.Conn
	edition Edition
	expires time.Time

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan frame
	subs    map[string]*wireSub
	tables  map[string]*wireTable
	entropy *ulid.MonotonicEntropy
	closed  bool

	done chan struct{}
}

// Dial connects, performs the login handshake and starts the read
// loop. The token is sent as-is; when it parses as a JWT its expiry is
// recorded for introspection.
func Dial(ctx context.Context, url, token string) (*Session, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("remote: dial %s: %w", url, err)
	}

	s := &Session{
		conn:    conn,
		pending: make(map[string]chan frame),
		subs:    make(map[string]*wireSub),
		tables:  make(map[string]*wireTable),
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
		done:    make(chan struct{}),
	}

	if err := s.write(frame{Type: frameLogin, Token: token}); err != nil {
		conn.Close()
		return nil, err
	}
	var ack frame
	if err := conn.ReadJSON(&ack); err != nil {
		conn.Close()
		return nil, fmt.Errorf("remote: login: %w", err)
	}
	if ack.Type != frameLoginAck {
		conn.Close()
		return nil, fmt.Errorf("remote: login rejected: %s", ack.Error)
	}
	s.edition = Edition(ack.Edition)
	s.expires = tokenExpiry(token)

	go s.readLoop()
	return s, nil
}

// Edition returns the server variant declared during login.
func (s *Session) Edition() Edition {
	return s.edition
}

// Expiry returns the session token's expiry, zero when unknown.
func (s *Session) Expiry() time.Time {
	return s.expires
}

// OpenTable fetches a named table's schema and returns its handle.
func (s *Session) OpenTable(name string) (Table, error) {
	resp, err := s.request(frame{Type: frameOpenTable, Table: name})
	if err != nil {
		return nil, fmt.Errorf("remote: open table %q: %w", name, err)
	}
	t := &wireTable{
		session: s,
		name:    name,
		cols:    resp.Columns,
		sizeFns: make(map[int]func(int64)),
	}
	t.size.Store(resp.Size)

	s.mu.Lock()
	s.tables[name] = t
	s.mu.Unlock()
	return t, nil
}

// Close tears the session down. Idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	subs := make([]*wireSub, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.subs = map[string]*wireSub{}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.drop()
	}
	return s.conn.Close()
}

func (s *Session) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *Session) write(f frame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(f)
}

// request performs one synchronous round trip correlated by frame id.
func (s *Session) request(f frame) (frame, error) {
	f.ID = s.newID()
	ch := make(chan frame, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return frame{}, ErrClosed
	}
	s.pending[f.ID] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, f.ID)
		s.mu.Unlock()
	}()

	if err := s.write(f); err != nil {
		return frame{}, err
	}
	select {
	case resp := <-ch:
		if resp.Type == frameError {
			return frame{}, fmt.Errorf("remote: %s", resp.Error)
		}
		return resp, nil
	case <-time.After(requestTimeout):
		return frame{}, fmt.Errorf("remote: %s request timed out", f.Type)
	case <-s.done:
		return frame{}, ErrClosed
	}
}

// readLoop dispatches inbound frames: data to subscriptions, size
// pushes to table handles, everything else to pending requests.
func (s *Session) readLoop() {
	for {
		var f frame
		if err := s.conn.ReadJSON(&f); err != nil {
			select {
			case <-s.done:
			default:
				glog.Warningf("remote: session read: %v", err)
			}
			s.Close()
			return
		}

		switch f.Type {
		case frameData:
			s.mu.Lock()
			sub := s.subs[f.ID]
			s.mu.Unlock()
			if sub != nil {
				sub.push(Update{Offset: f.Offset, Rows: f.Rows})
			}
		case frameSize:
			s.mu.Lock()
			t := s.tables[f.Table]
			s.mu.Unlock()
			if t != nil {
				t.setSize(f.Size)
			}
		default:
			s.mu.Lock()
			ch := s.pending[f.ID]
			s.mu.Unlock()
			if ch != nil {
				ch <- f
			} else {
				glog.V(2).Infof("remote: dropping uncorrelated %s frame", f.Type)
			}
		}
	}
}

func tokenExpiry(token string) time.Time {
	if token == "" {
		return time.Time{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
