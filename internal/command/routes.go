package command

func (f *Facade) routes() map[string]handlerFunc {
	return map[string]handlerFunc{
		"help": f.help,

		"balance":   f.balance,
		"profile":   f.profile,
		"level":     f.level,
		"daily":     f.daily,
		"weekly":    f.weekly,
		"monthly":   f.monthly,
		"bio":       f.bio,
		"top":       f.top,
		"cooldowns": f.cooldowns,

		"work":    f.work,
		"crime":   f.crime,
		"beg":     f.beg,
		"dig":     f.dig,
		"explore": f.explore,
		"quest":   f.quest,

		"hunt":      f.hunt,
		"fish":      f.fish,
		"sell":      f.sell,
		"inventory": f.inventory,
		"zoo":       f.zoo,
		"give":      f.give,
		"rob":       f.rob,
		"steal":     f.steal,
		"shop":      f.shop,
		"buy":       f.buy,
		"effects":   f.effects,

		"slots":     f.slots,
		"coinflip":  f.coinflip,
		"wheel":     f.wheel,
		"race":      f.race,
		"duel":      f.duel,
		"blackjack": f.blackjack,
		"hit":       f.hit,
		"stand":     f.stand,
		"trivia":    f.trivia,
		"riddle":    f.riddle,

		"propose":         f.propose,
		"acceptmarriage":  f.acceptMarriage,
		"declinemarriage": f.declineMarriage,
		"divorce":         f.divorce,

		"ban":        f.ban,
		"unban":      f.unban,
		"setrank":    f.setRank,
		"addmoney":   f.addMoney,
		"additem":    f.addItem,
		"removeitem": f.removeItem,
		"resetcd":    f.resetCooldown,
	}
}
