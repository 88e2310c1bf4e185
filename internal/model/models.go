// Package model defines the persisted documents of the economy engine.
package model

import (
	"sort"
	"time"
)

// Action names a cooldown-bound user action. The name is the key under
// which the last execution time is stored in User.LastAction.
type Action string

const (
	ActionDaily    Action = "daily"
	ActionWeekly   Action = "weekly"
	ActionMonthly  Action = "monthly"
	ActionWork     Action = "work"
	ActionCrime    Action = "crime"
	ActionHunt     Action = "hunt"
	ActionFish     Action = "fish"
	ActionBeg      Action = "beg"
	ActionDig      Action = "dig"
	ActionExplore  Action = "explore"
	ActionSteal    Action = "steal"
	ActionRob      Action = "rob"
	ActionQuest    Action = "quest"
	ActionCoinflip Action = "coinflip"
)

// Actions lists every cooldown-bound action in display order.
var Actions = []Action{
	ActionDaily, ActionWeekly, ActionMonthly, ActionWork, ActionCrime,
	ActionHunt, ActionFish, ActionBeg, ActionDig, ActionExplore,
	ActionSteal, ActionRob, ActionQuest, ActionCoinflip,
}

// MaxBioLength is the longest bio a user may set, in runes.
const MaxBioLength = 200

// User is the per-user economy record (collection "users").
// Wealth rank is derived from Balance on read and is never stored.
type User struct {
	ID          int64                `json:"id"`
	Balance     int64                `json:"balance"`
	XP          int64                `json:"xp"`
	Level       int                  `json:"level"`
	LevelRank   string               `json:"level_rank"`
	CustomRank  string               `json:"custom_rank,omitempty"`
	DailyStreak int                  `json:"daily_streak"`
	Bio         string               `json:"bio,omitempty"`
	MarriedTo   *int64               `json:"married_to,omitempty"`
	BotBanned   bool                 `json:"bot_banned"`
	LastAction  map[Action]time.Time `json:"last_action,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	c := *u
	if u.MarriedTo != nil {
		v := *u.MarriedTo
		c.MarriedTo = &v
	}
	if u.LastAction != nil {
		c.LastAction = make(map[Action]time.Time, len(u.LastAction))
		for k, v := range u.LastAction {
			c.LastAction[k] = v
		}
	}
	return &c
}

// LastRun returns the last execution time of a and whether it was ever run.
func (u *User) LastRun(a Action) (time.Time, bool) {
	t, ok := u.LastAction[a]
	return t, ok && !t.IsZero()
}

// MarkRun records an execution of a at t. Earlier timestamps never replace
// later ones.
func (u *User) MarkRun(a Action, t time.Time) {
	if u.LastAction == nil {
		u.LastAction = make(map[Action]time.Time)
	}
	if prev, ok := u.LastAction[a]; ok && prev.After(t) {
		return
	}
	u.LastAction[a] = t
}

// IsMarried reports whether the user has a spouse.
func (u *User) IsMarried() bool {
	return u.MarriedTo != nil
}

// Inventory maps catalog item names to strictly positive quantities
// (collection "inventories").
type Inventory struct {
	ID        int64            `json:"id"`
	Items     map[string]int64 `json:"items"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// NewInventory returns an empty inventory for userID.
func NewInventory(userID int64) *Inventory {
	return &Inventory{ID: userID, Items: make(map[string]int64)}
}

// Clone returns a deep copy of inv.
func (inv *Inventory) Clone() *Inventory {
	c := *inv
	c.Items = make(map[string]int64, len(inv.Items))
	for k, v := range inv.Items {
		c.Items[k] = v
	}
	return &c
}

// Add increments item by n; n must be positive.
func (inv *Inventory) Add(item string, n int64) bool {
	if n <= 0 {
		return false
	}
	if inv.Items == nil {
		inv.Items = make(map[string]int64)
	}
	inv.Items[item] += n
	return true
}

// Remove decrements item by n, deleting the slot at zero. It reports false
// and leaves the inventory unchanged when fewer than n are held.
func (inv *Inventory) Remove(item string, n int64) bool {
	if n <= 0 || inv.Items[item] < n {
		return false
	}
	inv.Items[item] -= n
	if inv.Items[item] == 0 {
		delete(inv.Items, item)
	}
	return true
}

// Quantity returns how many of item are held.
func (inv *Inventory) Quantity(item string) int64 {
	return inv.Items[item]
}

// Total returns the number of units across all slots.
func (inv *Inventory) Total() int64 {
	var n int64
	for _, q := range inv.Items {
		n += q
	}
	return n
}

// Names returns the held item names in sorted order.
func (inv *Inventory) Names() []string {
	names := make([]string, 0, len(inv.Items))
	for k := range inv.Items {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Marriage is a proposal that may become a marriage (collection "marriages").
// States: proposed (Accepted=false), married (Accepted, DivorcedAt nil),
// divorced (DivorcedAt set).
type Marriage struct {
	ID         string     `json:"id"`
	Proposer   int64      `json:"proposer"`
	Proposee   int64      `json:"proposee"`
	Accepted   bool       `json:"accepted"`
	ProposedAt time.Time  `json:"proposed_at"`
	MarriedAt  *time.Time `json:"married_at,omitempty"`
	DivorcedAt *time.Time `json:"divorced_at,omitempty"`
}

// Pending reports whether m is an unanswered proposal.
func (m *Marriage) Pending() bool {
	return !m.Accepted
}

// Active reports whether m is a current marriage.
func (m *Marriage) Active() bool {
	return m.Accepted && m.DivorcedAt == nil
}

// Involves reports whether userID is either party.
func (m *Marriage) Involves(userID int64) bool {
	return m.Proposer == userID || m.Proposee == userID
}

// Partner returns the other party of m.
func (m *Marriage) Partner(userID int64) int64 {
	if m.Proposer == userID {
		return m.Proposee
	}
	return m.Proposer
}

// Clone returns a deep copy of m.
func (m *Marriage) Clone() *Marriage {
	c := *m
	if m.MarriedAt != nil {
		t := *m.MarriedAt
		c.MarriedAt = &t
	}
	if m.DivorcedAt != nil {
		t := *m.DivorcedAt
		c.DivorcedAt = &t
	}
	return &c
}
