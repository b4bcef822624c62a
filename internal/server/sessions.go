package server

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/msalah0e/flowcanvas/internal/canvas"
	c "github.com/patrickmn/go-cache"
)

var (
	errNoSession  = errors.New("no such session")
	errBadRequest = errors.New("bad request")
)

// session is one mounted canvas. mu serializes events into the host.
type session struct {
	mu      sync.Mutex
	id      string
	host    *canvas.Host
	source  string // library id, "inline" or "demo"
	created time.Time
	edits   int
}

// locked runs fn while holding the session lock. The lock is released even
// if fn panics, so a failed request never wedges the canvas.
func (s *session) locked(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// sessions keeps live canvases. Each access slides the expiry forward, so
// a canvas nobody touches for ttl is unmounted.
type sessions struct {
	cache *c.Cache
	ttl   time.Duration
}

func newSessions(ttl time.Duration) *sessions {
	return &sessions{cache: c.New(ttl, ttl/2), ttl: ttl}
}

func (ss *sessions) add(s *session) {
	if s.id == "" {
		s.id = uuid.NewString()
	}
	ss.cache.Set(s.id, s, c.DefaultExpiration)
}

func (ss *sessions) get(id string) (*session, error) {
	v, found := ss.cache.Get(id)
	if !found {
		return nil, errNoSession
	}
	s := v.(*session)
	ss.cache.Set(id, s, c.DefaultExpiration)
	return s, nil
}

func (ss *sessions) remove(id string) bool {
	if _, found := ss.cache.Get(id); !found {
		return false
	}
	ss.cache.Delete(id)
	return true
}

func (ss *sessions) count() int { return ss.cache.ItemCount() }
