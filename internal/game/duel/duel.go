// Package duel settles a 50/50 duel between two players staking the same amount.
package duel

import (
	"github.com/NotCool09/myowobot/internal/economy"
)

// Result names the winner and loser of a duel.
type Result struct {
	Winner int64
	Loser  int64
	Stake  int64
}

// Fight picks the winner between challenger and opponent with equal odds.
// The winner takes the loser's stake.
func Fight(r economy.Rand, challenger, opponent, stake int64) Result {
	if r.Int63n(2) == 0 {
		return Result{Winner: challenger, Loser: opponent, Stake: stake}
	}
	return Result{Winner: opponent, Loser: challenger, Stake: stake}
}
