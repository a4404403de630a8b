package workspace

import (
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/dunning/internal/clock"
	"github.com/smallbiznis/dunning/internal/collection/domain"
	obsmetrics "github.com/smallbiznis/dunning/internal/observability/metrics"
	"go.uber.org/fx"
)

type Params struct {
	fx.In

	Clock   clock.Clock
	Metrics *obsmetrics.WorkspaceMetrics `optional:"true"`
}

// Store keeps one independent workspace per session id.
type Store struct {
	clock   clock.Clock
	metrics *obsmetrics.WorkspaceMetrics

	mu    sync.Mutex
	items map[string]*Workspace
}

func NewStore(p Params) *Store {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Store{
		clock:   clk,
		metrics: p.Metrics,
		items:   make(map[string]*Workspace),
	}
}

// Create opens a new empty workspace under a fresh ULID.
func (s *Store) Create() *Workspace {
	now := s.clock.Now()
	id := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
	ws := newWorkspace(id, now)

	s.mu.Lock()
	s.items[id] = ws
	active := len(s.items)
	s.mu.Unlock()

	s.metrics.IncCreated()
	s.metrics.SetActive(active)
	return ws
}

// Get returns the workspace for id and marks it as used.
func (s *Store) Get(id string) (*Workspace, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrWorkspaceNotFound
	}

	s.mu.Lock()
	ws, ok := s.items[id]
	s.mu.Unlock()
	if !ok {
		return nil, domain.ErrWorkspaceNotFound
	}
	ws.touch(s.clock.Now())
	return ws, nil
}

// Resolve returns the workspace for id, opening a new one when id is unknown.
// The boolean reports whether a workspace was created.
func (s *Store) Resolve(id string) (*Workspace, bool) {
	if ws, err := s.Get(id); err == nil {
		return ws, false
	}
	return s.Create(), true
}

// Delete drops the workspace for id.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	_, ok := s.items[id]
	delete(s.items, id)
	active := len(s.items)
	s.mu.Unlock()

	if ok {
		s.metrics.AddEvicted(obsmetrics.EvictionReasonCleared, 1)
		s.metrics.SetActive(active)
	}
	return ok
}

// Sweep evicts workspaces idle for longer than idleTTL and returns how many
// were dropped.
func (s *Store) Sweep(idleTTL time.Duration) int {
	cutoff := s.clock.Now().Add(-idleTTL)

	s.mu.Lock()
	evicted := 0
	for id, ws := range s.items {
		if ws.LastSeen().Before(cutoff) {
			delete(s.items, id)
			evicted++
		}
	}
	active := len(s.items)
	s.mu.Unlock()

	s.metrics.AddEvicted(obsmetrics.EvictionReasonIdle, evicted)
	s.metrics.SetActive(active)
	return evicted
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
