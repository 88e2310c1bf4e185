// Package economy holds the pure reward and progression rules.
// Every function is deterministic given its arguments; randomness is injected through Rand.
package economy

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/NotCool09/myowobot/internal/catalog"
	"github.com/NotCool09/myowobot/internal/model"
)

// Rand is the subset of *rand.Rand the rules need.
type Rand interface {
	Int63n(n int64) int64
	Float64() float64
}

// lockedRand makes a *rand.Rand safe for concurrent handlers.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand returns a goroutine-safe Rand seeded with seed.
func NewRand(seed int64) Rand {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Int63n(n int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Int63n(n)
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// Uniform returns an integer in [lo, hi].
func Uniform(r Rand, lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + r.Int63n(hi-lo+1)
}

// Chance reports true with probability p.
func Chance(r Rand, p float64) bool {
	return r.Float64() < p
}

// XPForLevel is the cumulative xp needed to reach level.
func XPForLevel(level int) int64 {
	if level < 1 {
		return 0
	}
	l := float64(level)
	// L*sqrt(L) keeps perfect squares exact where Pow(L, 1.5) may not.
	return int64(math.Floor(100 * l * math.Sqrt(l)))
}

// LevelForXP returns the largest L with XPForLevel(L) <= xp, never below 1.
func LevelForXP(xp int64) int {
	if xp < XPForLevel(2) {
		return 1
	}
	// Start from the analytic inverse and correct for float rounding.
	l := int(math.Pow(float64(xp)/100, 2.0/3.0))
	if l < 1 {
		l = 1
	}
	for l > 1 && XPForLevel(l) > xp {
		l--
	}
	for XPForLevel(l+1) <= xp {
		l++
	}
	return l
}

// LevelBonus is the tiered flat bonus added to daily, work, crime and quest rewards.
func LevelBonus(level int) int64 {
	l := int64(level)
	switch {
	case level >= 100:
		return 500 * l
	case level >= 75:
		return 300 * l
	case level >= 50:
		return 200 * l
	case level >= 25:
		return 100 * l
	default:
		return 50 * l
	}
}

// DailyReward is the pre-multiplier daily payout.
func DailyReward(level, streak int) int64 {
	return 500 + 100*int64(level) + LevelBonus(level) + 50*int64(streak)
}

// WeeklyReward is the weekly payout.
func WeeklyReward(level int) int64 {
	return 5000 + 500*int64(level)
}

// MonthlyReward is the monthly payout.
func MonthlyReward(level int) int64 {
	return 25000 + 2000*int64(level)
}

// WorkRange bounds the uniform part of a work reward.
func WorkRange(level int) (lo, hi int64) {
	l := int64(level)
	return 10 * (10 + l), 50 * (10 + l)
}

// CrimeRange bounds the base crime amount.
func CrimeRange(level int) (lo, hi int64) {
	l := int64(level)
	return 200 + 30*l, 800 + 120*l
}

// CrimeSuccessChance grows with level and is capped at 0.85.
func CrimeSuccessChance(level int) float64 {
	return math.Min(0.7+0.01*float64(level), 0.85)
}

// CrimePenalty is charged on a failed crime, before clamping to the balance.
func CrimePenalty(level int) int64 {
	return 300 + 50*int64(level)
}

// ScaledRange stretches [lo, hi] by 5% per level, flooring both ends.
func ScaledRange(lo, hi int64, level int) (int64, int64) {
	f := 1 + 0.05*float64(level)
	return int64(math.Floor(float64(lo) * f)), int64(math.Floor(float64(hi) * f))
}

// HuntMaxCatches is the upper bound on catches per expedition.
func HuntMaxCatches(level int) int {
	switch {
	case level < 15:
		return 2
	case level < 30:
		return 3
	case level < 50:
		return 4
	default:
		return 5
	}
}

// HuntXP is the xp awarded for an expedition before the hunt multiplier.
func HuntXP(count, rare, legendary int) int64 {
	return 25*int64(count) + 100*int64(legendary) + 50*int64(rare)
}

// HuntBonusChance is the per-expedition probability of the rare-weight boost.
const HuntBonusChance = 0.2

// WeightedDraw picks one item by weight. With bonus set, weights of rare and
// rarer hunt items are doubled for this draw.
func WeightedDraw(r Rand, items []catalog.Item, bonus bool) catalog.Item {
	weight := func(it catalog.Item) float64 {
		if bonus && it.Tier != "" && it.Tier.AtLeast(catalog.TierRare) {
			return it.Weight * 2
		}
		return it.Weight
	}
	var total float64
	for _, it := range items {
		total += weight(it)
	}
	x := r.Float64() * total
	for _, it := range items {
		x -= weight(it)
		if x < 0 {
			return it
		}
	}
	return items[len(items)-1]
}

// WealthRank resolves the wealth rank for balance.
func WealthRank(c *catalog.Catalog, balance int64) catalog.WealthRank {
	return c.WealthRank(balance)
}

// LevelRank resolves the level rank for level.
func LevelRank(c *catalog.Catalog, level int) catalog.LevelRank {
	return c.LevelRank(level)
}

// Multiplier returns the active shop multiplier for action.
// active reports whether an effect id is currently in force.
func Multiplier(action model.Action, active func(effect string) bool) float64 {
	switch action {
	case model.ActionDaily:
		if active(catalog.EffectDailyMultiplier) {
			return 1.5
		}
	case model.ActionWork:
		if active(catalog.EffectWorkMultiplier) {
			return 1.3
		}
	case model.ActionHunt:
		if active(catalog.EffectHuntMultiplier) {
			return 1.4
		}
	}
	return 1.0
}

// ApplyMultiplier scales amount by m and floors.
func ApplyMultiplier(amount int64, m float64) int64 {
	return int64(math.Floor(float64(amount) * m))
}

const day = 24 * time.Hour

// NextStreak computes the streak for a daily claim at now.
// ok is false when the previous claim is less than a day old.
func NextStreak(last time.Time, claimed bool, now time.Time, streak int) (next int, ok bool) {
	if !claimed {
		return 1, true
	}
	gap := now.Sub(last)
	switch {
	case gap < day:
		return streak, false
	case gap < 2*day:
		return streak + 1, true
	default:
		return 1, true
	}
}
