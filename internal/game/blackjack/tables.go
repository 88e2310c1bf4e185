package blackjack

import (
	"slices"
	"sync"
)

// Tables tracks the open round of each user.
type Tables struct {
	mu     sync.Mutex
	tables map[int64]*Table
}

// NewTables creates an empty table map.
func NewTables() *Tables {
	return &Tables{tables: make(map[int64]*Table)}
}

// Open registers t for userID unless a round is already open.
func (ts *Tables) Open(userID int64, t *Table) bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if _, ok := ts.tables[userID]; ok {
		return false
	}
	ts.tables[userID] = t
	return true
}

// Get returns the open round of userID.
func (ts *Tables) Get(userID int64) (*Table, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	t, ok := ts.tables[userID]
	return t, ok
}

// Has reports whether userID has an open round.
func (ts *Tables) Has(userID int64) bool {
	_, ok := ts.Get(userID)
	return ok
}

// Close removes the round of userID.
func (ts *Tables) Close(userID int64) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	delete(ts.tables, userID)
}

// Take removes and returns the round of userID.
func (ts *Tables) Take(userID int64) (*Table, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	t, ok := ts.tables[userID]
	delete(ts.tables, userID)
	return t, ok
}

// Users lists the owners of open rounds in ascending order.
func (ts *Tables) Users() []int64 {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ids := make([]int64, 0, len(ts.tables))
	for id := range ts.tables {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of open rounds.
func (ts *Tables) Len() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.tables)
}
