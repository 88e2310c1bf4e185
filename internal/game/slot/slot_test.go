package slot

import (
	"context"
	"testing"

	"pgregory.net/rapid"

	"github.com/NotCool09/myowobot/internal/economy"
	"github.com/NotCool09/myowobot/internal/game"
)

func TestCalculatePayout(t *testing.T) {
	tests := []struct {
		name  string
		reels [3]string
		bet   int64
		want  int64
	}{
		{"three sevens", [3]string{SymbolSeven, SymbolSeven, SymbolSeven}, 100, 1000},
		{"three money bags", [3]string{SymbolMoney, SymbolMoney, SymbolMoney}, 100, 500},
		{"three cherries", [3]string{SymbolCherry, SymbolCherry, SymbolCherry}, 100, 300},
		{"pair left", [3]string{SymbolBell, SymbolBell, SymbolGrape}, 100, 100},
		{"pair outer", [3]string{SymbolLemon, SymbolGrape, SymbolLemon}, 100, 100},
		{"two sevens is only a pair", [3]string{SymbolSeven, SymbolSeven, SymbolMoney}, 100, 100},
		{"no match", [3]string{SymbolSeven, SymbolMoney, SymbolCherry}, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculatePayout(tt.reels, tt.bet); got != tt.want {
				t.Errorf("CalculatePayout(%v, %d) = %d, want %d", tt.reels, tt.bet, got, tt.want)
			}
		})
	}
}

func TestValidateBet(t *testing.T) {
	g := New(economy.NewRand(1))
	if err := g.ValidateBet(0, nil); err != game.ErrInvalidBet {
		t.Errorf("ValidateBet(0) = %v, want ErrInvalidBet", err)
	}
	if err := g.ValidateBet(-5, nil); err != game.ErrInvalidBet {
		t.Errorf("ValidateBet(-5) = %v, want ErrInvalidBet", err)
	}
	if err := g.ValidateBet(1, nil); err != nil {
		t.Errorf("ValidateBet(1) = %v, want nil", err)
	}
}

// The net delta of any spin is one of the table's outcomes and never below -bet.
func TestPlayDeltaProperty(t *testing.T) {
	g := New(economy.NewRand(99))
	rapid.Check(t, func(t *rapid.T) {
		bet := rapid.Int64Range(1, 1_000_000).Draw(t, "bet")
		res, err := g.Play(context.Background(), 1, bet, nil)
		if err != nil {
			t.Fatalf("Play: %v", err)
		}
		allowed := map[int64]bool{
			-bet:                        true,
			0:                           true,
			bet * (TripleMultiplier - 1): true,
			bet * (MoneyMultiplier - 1):  true,
			bet * (SevensMultiplier - 1): true,
		}
		if !allowed[res.Delta] {
			t.Fatalf("unexpected delta %d for bet %d", res.Delta, bet)
		}
		if res.Delta != res.Payout-bet {
			t.Fatalf("delta %d != payout %d - bet %d", res.Delta, res.Payout, bet)
		}
	})
}

func TestGameMetadata(t *testing.T) {
	g := New(economy.NewRand(1))
	if g.Command() != "slots" {
		t.Errorf("Command() = %q", g.Command())
	}
	if g.Name() == "" || g.Description() == "" {
		t.Error("name and description must be set")
	}
}
