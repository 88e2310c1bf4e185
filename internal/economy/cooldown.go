package economy

import (
	"time"

	"github.com/NotCool09/myowobot/internal/catalog"
	"github.com/NotCool09/myowobot/internal/model"
)

var cooldowns = map[model.Action]time.Duration{
	model.ActionDaily:    24 * time.Hour,
	model.ActionWeekly:   7 * 24 * time.Hour,
	model.ActionMonthly:  30 * 24 * time.Hour,
	model.ActionWork:     time.Hour,
	model.ActionCrime:    30 * time.Minute,
	model.ActionHunt:     2 * time.Second,
	model.ActionFish:     5 * time.Minute,
	model.ActionBeg:      time.Minute,
	model.ActionDig:      2 * time.Minute,
	model.ActionExplore:  5 * time.Minute,
	model.ActionSteal:    10 * time.Minute,
	model.ActionRob:      10 * time.Minute,
	model.ActionQuest:    20 * time.Minute,
	model.ActionCoinflip: 7 * time.Second,
}

// Cooldown returns the cooldown of action given the caller's active effects.
// An active energy drink halves the work cooldown.
func Cooldown(action model.Action, active func(effect string) bool) time.Duration {
	cd := cooldowns[action]
	if action == model.ActionWork && active != nil && active(catalog.EffectEnergyDrink) {
		cd /= 2
	}
	return cd
}

// Remaining returns how long until action may run again, or zero when it is ready.
func Remaining(u *model.User, action model.Action, cd time.Duration, now time.Time) time.Duration {
	last, ok := u.LastRun(action)
	if !ok {
		return 0
	}
	if elapsed := now.Sub(last); elapsed < cd {
		return cd - elapsed
	}
	return 0
}
