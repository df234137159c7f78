package shell

import (
	"container/list"
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"
)

// DefaultTTL is how long an idle workspace is kept.
const DefaultTTL = 24 * time.Hour

// DefaultPendingTTL is how long a workspace whose cookie never came back is kept.
const DefaultPendingTTL = 2 * time.Minute

// DefaultCapacity bounds the number of stored workspaces.
const DefaultCapacity = 10000

// StoreOptions tune a WorkspaceStore. Zero values select the defaults.
type StoreOptions struct {
	// TTL expires workspaces whose viewer has returned at least once.
	TTL time.Duration
	// PendingTTL expires workspaces that were created but never looked up again.
	PendingTTL time.Duration
	// Capacity is the maximum number of stored workspaces.
	Capacity int
}

type entry struct {
	token     string
	ws        *Workspace
	lastSeen  time.Time
	confirmed bool
	elem      *list.Element
}

// WorkspaceStore is an in-memory map from viewer token to workspace.
// Pending and confirmed workspaces are kept in separate recency lists;
// when full, the least recently seen pending workspace is evicted first.
type WorkspaceStore struct {
	mu         sync.Mutex
	workspaces map[string]*entry
	pending    *list.List // front is most recently seen
	confirmed  *list.List
	newFn      func() *Workspace
	opts       StoreOptions
	now        func() time.Time
}

// NewWorkspaceStore creates a store that builds workspaces with newFn.
// PRE: newFn is non-nil
// POST: Store is empty; non-positive options fall back to the defaults
func NewWorkspaceStore(newFn func() *Workspace, opts StoreOptions) *WorkspaceStore {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.PendingTTL <= 0 {
		opts.PendingTTL = DefaultPendingTTL
	}
	if opts.PendingTTL > opts.TTL {
		opts.PendingTTL = opts.TTL
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	return &WorkspaceStore{
		workspaces: make(map[string]*entry),
		pending:    list.New(),
		confirmed:  list.New(),
		newFn:      newFn,
		opts:       opts,
		now:        time.Now,
	}
}

// Create stores a fresh pending workspace and returns its token.
// POST: Workspace is stored under a new random token; at most Capacity workspaces remain
func (s *WorkspaceStore) Create() (string, *Workspace, error) {
	token, err := generateToken()
	if err != nil {
		return "", nil, err
	}
	ws := s.newFn()
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.workspaces) >= s.opts.Capacity {
		if !s.evictOldestLocked() {
			break
		}
	}
	e := &entry{token: token, ws: ws, lastSeen: s.now()}
	e.elem = s.pending.PushFront(e)
	s.workspaces[token] = e
	return token, ws, nil
}

// Get returns the workspace for token and marks it as seen.
// A pending workspace becomes confirmed on its first successful Get.
// PRE: token is non-empty
// POST: Returns false for unknown or expired tokens; expired workspaces are closed
func (s *WorkspaceStore) Get(token string) (*Workspace, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.workspaces[token]
	if !ok {
		return nil, false
	}
	now := s.now()
	if s.expiredLocked(e, now) {
		s.removeLocked(e)
		return nil, false
	}
	e.lastSeen = now
	if !e.confirmed {
		s.pending.Remove(e.elem)
		e.confirmed = true
		e.elem = s.confirmed.PushFront(e)
	} else {
		s.confirmed.MoveToFront(e.elem)
	}
	return e.ws, true
}

// Len returns the number of stored workspaces.
func (s *WorkspaceStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workspaces)
}

// Sweep closes and removes every expired workspace.
// POST: Returns the number removed
func (s *WorkspaceStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for _, e := range s.workspaces {
		if s.expiredLocked(e, now) {
			s.removeLocked(e)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (s *WorkspaceStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Info("workspaces_expired", "count", n, "remaining", s.Len())
			}
		}
	}
}

func (s *WorkspaceStore) expiredLocked(e *entry, now time.Time) bool {
	ttl := s.opts.TTL
	if !e.confirmed {
		ttl = s.opts.PendingTTL
	}
	return now.Sub(e.lastSeen) > ttl
}

// evictOldestLocked removes the least recently seen workspace, pending first.
func (s *WorkspaceStore) evictOldestLocked() bool {
	back := s.pending.Back()
	if back == nil {
		back = s.confirmed.Back()
	}
	if back == nil {
		return false
	}
	e := back.Value.(*entry)
	s.removeLocked(e)
	slog.Debug("workspace_evicted", "confirmed", e.confirmed, "capacity", s.opts.Capacity)
	return true
}

func (s *WorkspaceStore) removeLocked(e *entry) {
	if e.confirmed {
		s.confirmed.Remove(e.elem)
	} else {
		s.pending.Remove(e.elem)
	}
	delete(s.workspaces, e.token)
	if e.ws != nil {
		e.ws.Close()
	}
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
