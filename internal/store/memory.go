package store

import (
	"context"
	"sort"
	"sync"

	"github.com/NotCool09/myowobot/internal/model"
)

// Memory is the in-process backend. Units of work are serialized by one
// mutex; records are copied in and out so callers never share state.
type Memory struct {
	defaults Defaults

	mu          sync.RWMutex
	users       map[int64]*model.User
	inventories map[int64]*model.Inventory
	marriages   map[string]*model.Marriage
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory(d Defaults) *Memory {
	return &Memory{
		defaults:    d,
		users:       make(map[int64]*model.User),
		inventories: make(map[int64]*model.Inventory),
		marriages:   make(map[string]*model.Marriage),
	}
}

func (m *Memory) GetUser(ctx context.Context, id int64) (*model.User, error) {
	if u, err := m.FindUser(ctx, id); err == nil {
		return u, nil
	}
	var out *model.User
	err := m.Update(ctx, func(tx Tx) error {
		u, err := tx.User(id)
		out = u
		return err
	})
	return out, err
}

func (m *Memory) FindUser(ctx context.Context, id int64) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u.Clone(), nil
}

func (m *Memory) GetInventory(ctx context.Context, id int64) (*model.Inventory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if inv, ok := m.inventories[id]; ok {
		return inv.Clone(), nil
	}
	return model.NewInventory(id), nil
}

func (m *Memory) ListUsers(ctx context.Context) ([]*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) TopUsers(ctx context.Context, field TopField, limit int) ([]*model.User, error) {
	users, err := m.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	sortTop(users, field)
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

// sortTop orders users best first; ties go to the lower id.
func sortTop(users []*model.User, field TopField) {
	key := func(u *model.User) (int64, int64) {
		switch field {
		case TopLevel:
			return int64(u.Level), u.XP
		case TopXP:
			return u.XP, 0
		default:
			return u.Balance, 0
		}
	}
	sort.SliceStable(users, func(i, j int) bool {
		a1, a2 := key(users[i])
		b1, b2 := key(users[j])
		if a1 != b1 {
			return a1 > b1
		}
		if a2 != b2 {
			return a2 > b2
		}
		return users[i].ID < users[j].ID
	})
}

func (m *Memory) ListMarriages(ctx context.Context) ([]*model.Marriage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Marriage, 0, len(m.marriages))
	for _, mr := range m.marriages {
		out = append(out, mr.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProposedAt.Before(out[j].ProposedAt) })
	return out, nil
}

func (m *Memory) Update(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{
		m:           m,
		users:       make(map[int64]*model.User),
		inventories: make(map[int64]*model.Inventory),
		marriages:   make(map[string]*model.Marriage),
		deleted:     make(map[string]bool),
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (m *Memory) Close() {}

// memTx stages writes until commit. The store mutex is held for its whole life.
type memTx struct {
	m           *Memory
	users       map[int64]*model.User
	inventories map[int64]*model.Inventory
	marriages   map[string]*model.Marriage
	deleted     map[string]bool
}

func (tx *memTx) lookupUser(id int64) (*model.User, bool) {
	if u, ok := tx.users[id]; ok {
		return u.Clone(), true
	}
	if u, ok := tx.m.users[id]; ok {
		return u.Clone(), true
	}
	return nil, false
}

func (tx *memTx) User(id int64) (*model.User, error) {
	if u, ok := tx.lookupUser(id); ok {
		return u, nil
	}
	u := tx.m.defaults.newUser(id)
	tx.users[id] = u.Clone()
	return u, nil
}

func (tx *memTx) ExistingUser(id int64) (*model.User, error) {
	if u, ok := tx.lookupUser(id); ok {
		return u, nil
	}
	return nil, ErrNotFound
}

func (tx *memTx) LockUsers(...int64) error { return nil }

func (tx *memTx) Inventory(id int64) (*model.Inventory, error) {
	if inv, ok := tx.inventories[id]; ok {
		return inv.Clone(), nil
	}
	if inv, ok := tx.m.inventories[id]; ok {
		return inv.Clone(), nil
	}
	return model.NewInventory(id), nil
}

// marriagesView returns the marriages as seen inside the unit of work.
func (tx *memTx) marriagesView() []*model.Marriage {
	out := make([]*model.Marriage, 0, len(tx.m.marriages)+len(tx.marriages))
	for id, mr := range tx.m.marriages {
		if tx.deleted[id] {
			continue
		}
		if staged, ok := tx.marriages[id]; ok {
			mr = staged
		}
		out = append(out, mr)
	}
	for id, mr := range tx.marriages {
		if _, ok := tx.m.marriages[id]; !ok && !tx.deleted[id] {
			out = append(out, mr)
		}
	}
	return out
}

func (tx *memTx) Proposal(proposer, proposee int64) (*model.Marriage, error) {
	for _, mr := range tx.marriagesView() {
		if mr.Pending() && mr.Proposer == proposer && mr.Proposee == proposee {
			return mr.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (tx *memTx) ActiveMarriage(id int64) (*model.Marriage, error) {
	for _, mr := range tx.marriagesView() {
		if mr.Active() && mr.Involves(id) {
			return mr.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (tx *memTx) SaveUser(u *model.User) error {
	if err := validateUser(u); err != nil {
		return err
	}
	c := u.Clone()
	c.UpdatedAt = tx.m.defaults.now()
	tx.users[u.ID] = c
	return nil
}

func (tx *memTx) SaveInventory(inv *model.Inventory) error {
	if err := validateInventory(inv); err != nil {
		return err
	}
	tx.inventories[inv.ID] = inv.Clone()
	return nil
}

func (tx *memTx) SaveMarriage(mr *model.Marriage) error {
	if err := validateMarriage(mr); err != nil {
		return err
	}
	if mr.Pending() {
		for _, other := range tx.marriagesView() {
			if other.ID != mr.ID && other.Pending() && other.Proposer == mr.Proposer && other.Proposee == mr.Proposee {
				return ErrConflict
			}
		}
	}
	delete(tx.deleted, mr.ID)
	tx.marriages[mr.ID] = mr.Clone()
	return nil
}

func (tx *memTx) DeleteMarriage(id string) error {
	delete(tx.marriages, id)
	tx.deleted[id] = true
	return nil
}

func (tx *memTx) commit() {
	for id, u := range tx.users {
		tx.m.users[id] = u
	}
	for id, inv := range tx.inventories {
		if len(inv.Items) == 0 {
			// An emptied inventory and a missing one read the same.
			delete(tx.m.inventories, id)
			continue
		}
		tx.m.inventories[id] = inv
	}
	for id := range tx.deleted {
		delete(tx.m.marriages, id)
	}
	for id, mr := range tx.marriages {
		tx.m.marriages[id] = mr
	}
}
