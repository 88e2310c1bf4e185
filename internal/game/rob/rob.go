// Package rob implements the rob and steal rules. It evaluates an attempt
// and reports the transfer; moving the money is left to the caller.
package rob

import (
	"math"
	"time"

	"github.com/NotCool09/myowobot/internal/apperr"
	"github.com/NotCool09/myowobot/internal/economy"
)

// Constants for rob game configuration
const (
	SuccessChance = 0.45 // fixed, not level-scaled

	MinFraction = 0.15 // share of the target's balance taken on success
	MaxFraction = 0.40
	MinAmount   = 100 // floor of a successful take

	MinTargetBalance = 100 // targets poorer than this cannot be robbed

	MinPenalty = 200 // failure penalty range, clamped to the actor's balance
	MaxPenalty = 800
)

// RobOutcome represents the outcome type of a robbery attempt
type RobOutcome int

const (
	OutcomeSuccess RobOutcome = iota // actor takes Amount from the target
	OutcomeCaught                    // actor pays Amount to the target
)

func (o RobOutcome) String() string {
	if o == OutcomeSuccess {
		return "success"
	}
	return "caught"
}

// RobResult contains the result of a robbery attempt
type RobResult struct {
	Outcome RobOutcome
	Amount  int64 // always >= 0; direction follows Outcome
}

// Success reports whether the actor got away with the money.
func (r RobResult) Success() bool { return r.Outcome == OutcomeSuccess }

// Validate checks the preconditions of an attempt. protectedUntil is the expiry
// of the target's crime protection, zero when none is active.
func Validate(actorID, targetID, targetBalance int64, protectedUntil time.Time) error {
	if actorID == targetID {
		return apperr.InvalidArgument("you can't rob yourself")
	}
	if !protectedUntil.IsZero() {
		return apperr.Protected(protectedUntil)
	}
	if targetBalance < MinTargetBalance {
		return apperr.InvalidArgument("target needs at least %d coins to be worth robbing", MinTargetBalance)
	}
	return nil
}

// StealAmount takes a fraction of the target's balance, floored, at least
// MinAmount and never more than the target has.
func StealAmount(targetBalance int64, fraction float64) int64 {
	amount := int64(math.Floor(float64(targetBalance) * fraction))
	if amount < MinAmount {
		amount = MinAmount
	}
	if amount > targetBalance {
		amount = targetBalance
	}
	return amount
}

// Penalty clamps a drawn penalty to what the actor can pay.
func Penalty(drawn, actorBalance int64) int64 {
	if actorBalance < 0 {
		return 0
	}
	if drawn > actorBalance {
		return actorBalance
	}
	return drawn
}

// Attempt rolls one robbery. Preconditions must already hold.
func Attempt(r economy.Rand, actorBalance, targetBalance int64) RobResult {
	if economy.Chance(r, SuccessChance) {
		fraction := MinFraction + r.Float64()*(MaxFraction-MinFraction)
		return RobResult{Outcome: OutcomeSuccess, Amount: StealAmount(targetBalance, fraction)}
	}
	drawn := economy.Uniform(r, MinPenalty, MaxPenalty)
	return RobResult{Outcome: OutcomeCaught, Amount: Penalty(drawn, actorBalance)}
}
