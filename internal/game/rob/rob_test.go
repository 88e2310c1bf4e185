package rob

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/NotCool09/myowobot/internal/apperr"
	"github.com/NotCool09/myowobot/internal/economy"
)

func TestValidate(t *testing.T) {
	until := time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC)

	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(Validate(1, 1, 5000, time.Time{})))
	assert.Equal(t, apperr.KindProtected, apperr.KindOf(Validate(1, 2, 5000, until)))
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(Validate(1, 2, 99, time.Time{})))
	assert.NoError(t, Validate(1, 2, 100, time.Time{}))
}

func TestStealAmount(t *testing.T) {
	assert.Equal(t, int64(100), StealAmount(100, 0.15), "minimum take")
	assert.Equal(t, int64(150), StealAmount(1000, 0.15))
	assert.Equal(t, int64(400), StealAmount(1000, 0.40))
	assert.Equal(t, int64(153), StealAmount(1021, 0.15), "floored")
}

func TestPenalty(t *testing.T) {
	assert.Equal(t, int64(500), Penalty(500, 1000))
	assert.Equal(t, int64(120), Penalty(500, 120))
	assert.Zero(t, Penalty(500, 0))
}

// Property: a success takes between the minimum and the whole target balance;
// a failure never costs more than the actor has.
func TestAttemptBoundsProperty(t *testing.T) {
	r := economy.NewRand(11)
	rapid.Check(t, func(t *rapid.T) {
		actor := rapid.Int64Range(0, 1_000_000).Draw(t, "actor")
		target := rapid.Int64Range(MinTargetBalance, 10_000_000).Draw(t, "target")

		res := Attempt(r, actor, target)
		switch res.Outcome {
		case OutcomeSuccess:
			if res.Amount < MinAmount || res.Amount > target {
				t.Fatalf("take %d outside [%d, %d]", res.Amount, MinAmount, target)
			}
			upper := int64(float64(target) * MaxFraction)
			if res.Amount > MinAmount && res.Amount > upper {
				t.Fatalf("take %d above %.0f%% of %d", res.Amount, MaxFraction*100, target)
			}
		case OutcomeCaught:
			if res.Amount < 0 || res.Amount > actor || res.Amount > MaxPenalty {
				t.Fatalf("penalty %d invalid for actor balance %d", res.Amount, actor)
			}
		}
	})
}

func TestSuccessRate(t *testing.T) {
	r := economy.NewRand(21)
	const n = 20_000
	wins := 0
	for i := 0; i < n; i++ {
		if Attempt(r, 1000, 1000).Success() {
			wins++
		}
	}
	assert.InDelta(t, SuccessChance, float64(wins)/n, 0.02)
}
