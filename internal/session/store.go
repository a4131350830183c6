package session

import (
	"container/list"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry struct {
	sess     *Session
	lastUsed time.Time
	lruElem  *list.Element
}

// Store is an in-memory session table with LRU eviction and idle expiry.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	lruList *list.List // front = most recently used
	maxSize int        // 0 = unlimited
	ttl     time.Duration
	now     func() time.Time
	onEvict func(*Session)
}

// NewStore creates a store holding at most maxSize sessions. Sessions idle
// for longer than ttl are dropped; ttl 0 disables expiry.
func NewStore(maxSize int, ttl time.Duration) *Store {
	return &Store{
		entries: make(map[string]*entry),
		lruList: list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Add registers a new session under a fresh id.
func (s *Store) Add(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess.ID = uuid.NewString()
	if s.maxSize > 0 && len(s.entries) >= s.maxSize {
		s.evictOldest()
	}
	elem := s.lruList.PushFront(sess.ID)
	s.entries[sess.ID] = &entry{sess: sess, lastUsed: s.now(), lruElem: elem}
}

// Get returns the session and marks it used. Expired sessions are removed.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if s.expired(e, now) {
		s.remove(id, e)
		return nil, false
	}
	e.lastUsed = now
	s.lruList.MoveToFront(e.lruElem)
	return e.sess, true
}

func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return false
	}
	s.remove(id, e)
	return true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep drops every expired session and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	// Oldest first; stop at the first live entry.
	for elem := s.lruList.Back(); elem != nil; {
		prev := elem.Prev()
		id := elem.Value.(string)
		e := s.entries[id]
		if !s.expired(e, now) {
			break
		}
		s.remove(id, e)
		n++
		elem = prev
	}
	return n
}

func (s *Store) expired(e *entry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.lastUsed) > s.ttl
}

func (s *Store) evictOldest() {
	back := s.lruList.Back()
	if back == nil {
		return
	}
	id := back.Value.(string)
	s.remove(id, s.entries[id])
}

func (s *Store) remove(id string, e *entry) {
	s.lruList.Remove(e.lruElem)
	delete(s.entries, id)
	if s.onEvict != nil {
		s.onEvict(e.sess)
	}
}
