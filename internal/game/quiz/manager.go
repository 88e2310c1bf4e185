package quiz

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/NotCool09/myowobot/internal/apperr"
	"github.com/NotCool09/myowobot/internal/clock"
	"github.com/NotCool09/myowobot/internal/economy"
)

// Timeouts for a pending question.
const (
	TriviaTimeout = 30 * time.Second
	RiddleTimeout = 60 * time.Second
)

// Streak lengths that earn the bonus.
const (
	TriviaStreakEvery = 5
	RiddleStreakEvery = 3
)

// Timeout returns how long a question of kind k stays open.
func Timeout(k Kind) time.Duration {
	if k == KindTrivia {
		return TriviaTimeout
	}
	return RiddleTimeout
}

func streakEvery(k Kind) int {
	if k == KindTrivia {
		return TriviaStreakEvery
	}
	return RiddleStreakEvery
}

// Session is a question waiting for the user's answer.
type Session struct {
	UserID   int64
	ChatID   int64
	Question Question
	Asked    time.Time
	Deadline time.Time

	timer clock.Timer
}

// Outcome is the result of answering a pending question.
type Outcome struct {
	Question Question
	Correct  bool
	Reward   int64 // base reward plus any streak bonus
	Bonus    int64
	XP       int64
	Streak   int
}

// TimeoutFunc is called after a question expires unanswered.
type TimeoutFunc func(s Session)

type askedKey struct {
	user int64
	kind Kind
}

// Manager owns the pending questions, the per-user asked sets and the
// answer streaks. Nothing it holds survives a restart.
type Manager struct {
	bank      *Bank
	clock     clock.Clock
	rng       economy.Rand
	onTimeout TimeoutFunc

	mu      sync.Mutex
	pending map[int64]*Session
	asked   map[askedKey]map[int]bool
	streaks map[askedKey]int
}

// NewManager creates a manager over bank.
func NewManager(bank *Bank, clk clock.Clock, rng economy.Rand) *Manager {
	return &Manager{
		bank:    bank,
		clock:   clk,
		rng:     rng,
		pending: make(map[int64]*Session),
		asked:   make(map[askedKey]map[int]bool),
		streaks: make(map[askedKey]int),
	}
}

// OnTimeout registers the expiry callback.
func (m *Manager) OnTimeout(f TimeoutFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onTimeout = f
}

// Ask opens a question of kind k for userID. A user has at most one open question.
func (m *Manager) Ask(userID, chatID int64, k Kind) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, busy := m.pending[userID]; busy {
		return Session{}, apperr.LimitReached("you already have a question open", time.Time{})
	}

	q := m.pick(userID, k)
	now := m.clock.Now()
	s := &Session{
		UserID:   userID,
		ChatID:   chatID,
		Question: q,
		Asked:    now,
		Deadline: now.Add(Timeout(k)),
	}
	s.timer = m.clock.AfterFunc(Timeout(k), func() { m.expire(s) })
	m.pending[userID] = s
	return *s, nil
}

// pick draws an unasked question, clearing the asked set once exhausted.
func (m *Manager) pick(userID int64, k Kind) Question {
	qs := m.bank.questions(k)
	key := askedKey{userID, k}
	seen := m.asked[key]
	if seen == nil || len(seen) >= len(qs) {
		seen = make(map[int]bool, len(qs))
		m.asked[key] = seen
	}
	free := make([]int, 0, len(qs)-len(seen))
	for i := range qs {
		if !seen[i] {
			free = append(free, i)
		}
	}
	idx := free[m.rng.Int63n(int64(len(free)))]
	seen[idx] = true
	return qs[idx]
}

// Pending returns the open question of userID.
func (m *Manager) Pending(userID int64) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.pending[userID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Answer consumes the open question of userID. ok is false when none is open.
func (m *Manager) Answer(userID int64, text string) (out Outcome, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, open := m.pending[userID]
	if !open {
		return Outcome{}, false
	}
	s.timer.Stop()
	delete(m.pending, userID)

	q := s.Question
	key := askedKey{userID, q.Kind}
	out.Question = q
	if !q.Matches(text) {
		m.streaks[key] = 0
		return out, true
	}

	m.streaks[key]++
	out.Correct = true
	out.Streak = m.streaks[key]
	out.XP = q.XP()
	if out.Streak%streakEvery(q.Kind) == 0 {
		out.Bonus = q.Reward / 2
	}
	out.Reward = q.Reward + out.Bonus
	return out, true
}

// Cancel drops the open question of userID without touching the streak.
func (m *Manager) Cancel(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.pending[userID]; ok {
		s.timer.Stop()
		delete(m.pending, userID)
	}
}

func (m *Manager) expire(s *Session) {
	m.mu.Lock()
	cur, ok := m.pending[s.UserID]
	if !ok || cur != s {
		m.mu.Unlock()
		return
	}
	delete(m.pending, s.UserID)
	m.streaks[askedKey{s.UserID, s.Question.Kind}] = 0
	cb := m.onTimeout
	m.mu.Unlock()

	log.Debug().
		Int64("user_id", s.UserID).
		Str("kind", string(s.Question.Kind)).
		Msg("Question timed out")
	if cb != nil {
		cb(*s)
	}
}

// Close drops every open question without firing timeout callbacks.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.pending {
		s.timer.Stop()
		delete(m.pending, id)
	}
}
