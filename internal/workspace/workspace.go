package workspace

import (
	"sync"
	"time"

	"github.com/smallbiznis/dunning/internal/collection/domain"
)

// Workspace is the state one browser session keeps between reconciliation
// calls: the loaded debt base and the last cross-check result.
type Workspace struct {
	id        string
	createdAt time.Time

	mu        sync.RWMutex
	lastSeen   time.Time
	generation uint64
	debts      domain.DebtTable
	hasDebts   bool
	result     domain.CrossCheckResult
	hasResult  bool
}

var _ domain.Session = (*Workspace)(nil)

func newWorkspace(id string, now time.Time) *Workspace {
	return &Workspace{id: id, createdAt: now, lastSeen: now}
}

func (w *Workspace) ID() string {
	return w.id
}

func (w *Workspace) CreatedAt() time.Time {
	return w.createdAt
}

// LoadDebts replaces the debt base. A result computed against the previous
// base no longer applies and is dropped.
func (w *Workspace) LoadDebts(t domain.DebtTable) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.generation++
	t.Generation = w.generation
	w.debts = t
	w.hasDebts = true
	w.result = domain.CrossCheckResult{}
	w.hasResult = false
}

func (w *Workspace) Debts() (domain.DebtTable, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.debts, w.hasDebts
}

func (w *Workspace) StoreResult(base uint64, r domain.CrossCheckResult) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.hasDebts || w.debts.Generation != base {
		return domain.ErrStaleDebtBase
	}
	w.result = r
	w.hasResult = true
	return nil
}

func (w *Workspace) Result() (domain.CrossCheckResult, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.result, w.hasResult
}

// Clear drops everything the workspace retains.
func (w *Workspace) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.generation++
	w.debts = domain.DebtTable{}
	w.hasDebts = false
	w.result = domain.CrossCheckResult{}
	w.hasResult = false
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if now.After(w.lastSeen) {
		w.lastSeen = now
	}
}

func (w *Workspace) LastSeen() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastSeen
}
