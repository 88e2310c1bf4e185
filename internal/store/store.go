// Package store persists users, inventories and marriages. Two backends
// implement Store: Memory, used when no database is configured, and Postgres.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NotCool09/myowobot/internal/model"
)

// Common errors for store operations.
var (
	ErrNotFound      = errors.New("store: not found")
	ErrInvalidRecord = errors.New("store: invalid record")
	ErrConflict      = errors.New("store: conflicting record")
)

// TopField is a leaderboard ordering.
type TopField string

const (
	TopBalance TopField = "balance"
	TopLevel   TopField = "level"
	TopXP      TopField = "xp"
)

// ParseTopField validates a leaderboard category.
func ParseTopField(s string) (TopField, bool) {
	switch f := TopField(s); f {
	case TopBalance, TopLevel, TopXP:
		return f, true
	}
	return "", false
}

// Tx is a unit of work. Documents read through a Tx are locked until the
// unit ends; saves become visible only if the unit commits.
type Tx interface {
	// User loads the user, creating a default record if none exists.
	User(id int64) (*model.User, error)
	// ExistingUser loads the user or returns ErrNotFound.
	ExistingUser(id int64) (*model.User, error)
	// LockUsers locks existing users in ascending id order. Call it before
	// loading two users so concurrent pairs cannot deadlock.
	LockUsers(ids ...int64) error
	// Inventory loads the inventory, empty if none exists.
	Inventory(id int64) (*model.Inventory, error)
	// Proposal returns the pending proposal from proposer to proposee.
	Proposal(proposer, proposee int64) (*model.Marriage, error)
	// ActiveMarriage returns the current marriage involving id.
	ActiveMarriage(id int64) (*model.Marriage, error)

	SaveUser(u *model.User) error
	SaveInventory(inv *model.Inventory) error
	SaveMarriage(m *model.Marriage) error
	DeleteMarriage(id string) error
}

// Store is the persistence capability shared by the bot and the dashboard.
type Store interface {
	// GetUser loads the user, creating a default record on first sight.
	GetUser(ctx context.Context, id int64) (*model.User, error)
	// FindUser loads the user without creating it.
	FindUser(ctx context.Context, id int64) (*model.User, error)
	// GetInventory returns the inventory, empty if none exists.
	GetInventory(ctx context.Context, id int64) (*model.Inventory, error)
	TopUsers(ctx context.Context, field TopField, limit int) ([]*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	ListMarriages(ctx context.Context) ([]*model.Marriage, error)

	// Update runs fn as one atomic unit of work. If fn returns an error
	// nothing it saved is kept.
	Update(ctx context.Context, fn func(tx Tx) error) error

	Close()
}

// Defaults describes a freshly created user.
type Defaults struct {
	StartBalance int64
	StartRank    string
	Now          func() time.Time
}

func (d Defaults) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Defaults) newUser(id int64) *model.User {
	now := d.now()
	return &model.User{
		ID:         id,
		Balance:    d.StartBalance,
		Level:      1,
		LevelRank:  d.StartRank,
		LastAction: make(map[model.Action]time.Time),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func validateUser(u *model.User) error {
	switch {
	case u.Balance < 0:
		return fmt.Errorf("%w: user %d balance %d", ErrInvalidRecord, u.ID, u.Balance)
	case u.XP < 0:
		return fmt.Errorf("%w: user %d xp %d", ErrInvalidRecord, u.ID, u.XP)
	case u.Level < 1:
		return fmt.Errorf("%w: user %d level %d", ErrInvalidRecord, u.ID, u.Level)
	case len([]rune(u.Bio)) > model.MaxBioLength:
		return fmt.Errorf("%w: user %d bio too long", ErrInvalidRecord, u.ID)
	}
	return nil
}

func validateInventory(inv *model.Inventory) error {
	for item, q := range inv.Items {
		if q <= 0 {
			return fmt.Errorf("%w: inventory %d item %q quantity %d", ErrInvalidRecord, inv.ID, item, q)
		}
	}
	return nil
}

func validateMarriage(m *model.Marriage) error {
	if m.ID == "" || m.Proposer == m.Proposee {
		return fmt.Errorf("%w: marriage %q", ErrInvalidRecord, m.ID)
	}
	return nil
}
