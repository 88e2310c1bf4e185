// Package blackjack implements a single-deck blackjack round against the dealer.
// A Table holds one round; Tables keeps at most one open round per user.
package blackjack

import (
	"fmt"
	"strings"
	"time"

	"github.com/NotCool09/myowobot/internal/economy"
)

// DealerStand is the total at which the dealer stops drawing.
const DealerStand = 17

var suits = [4]string{"♠", "♥", "♦", "♣"}

// Card is a playing card. Rank runs from 1 (ace) to 13 (king).
type Card struct {
	Rank int
	Suit string
}

func (c Card) String() string {
	var r string
	switch c.Rank {
	case 1:
		r = "A"
	case 11:
		r = "J"
	case 12:
		r = "Q"
	case 13:
		r = "K"
	default:
		r = fmt.Sprint(c.Rank)
	}
	return r + c.Suit
}

// points counts an ace as 11 and face cards as 10.
func (c Card) points() int {
	switch {
	case c.Rank == 1:
		return 11
	case c.Rank >= 10:
		return 10
	default:
		return c.Rank
	}
}

// Deck is a shuffled 52-card deck.
type Deck struct {
	cards []Card
}

// NewDeck shuffles a fresh deck with r.
func NewDeck(r economy.Rand) *Deck {
	cards := make([]Card, 0, 52)
	for _, s := range suits {
		for rank := 1; rank <= 13; rank++ {
			cards = append(cards, Card{Rank: rank, Suit: s})
		}
	}
	for i := len(cards) - 1; i > 0; i-- {
		j := r.Int63n(int64(i + 1))
		cards[i], cards[j] = cards[j], cards[i]
	}
	return &Deck{cards: cards}
}

// NewStackedDeck returns a deck that deals cards in the given order.
func NewStackedDeck(cards ...Card) *Deck {
	return &Deck{cards: append([]Card(nil), cards...)}
}

// Draw deals the top card. An exhausted deck is reshuffled from a fresh one.
func (d *Deck) Draw(r economy.Rand) Card {
	if len(d.cards) == 0 {
		d.cards = NewDeck(r).cards
	}
	c := d.cards[0]
	d.cards = d.cards[1:]
	return c
}

// Hand is a list of cards.
type Hand []Card

// Value returns the best total, demoting aces from 11 to 1 while busted.
func (h Hand) Value() int {
	total, aces := 0, 0
	for _, c := range h {
		total += c.points()
		if c.Rank == 1 {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

// Natural reports a two-card 21.
func (h Hand) Natural() bool { return len(h) == 2 && h.Value() == 21 }

// Bust reports a total over 21.
func (h Hand) Bust() bool { return h.Value() > 21 }

func (h Hand) String() string {
	parts := make([]string, len(h))
	for i, c := range h {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// Outcome is the settled result of a round.
type Outcome int

const (
	OutcomeOpen Outcome = iota
	OutcomeNatural
	OutcomeWin
	OutcomePush
	OutcomeLose
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNatural:
		return "blackjack"
	case OutcomeWin:
		return "win"
	case OutcomePush:
		return "push"
	case OutcomeLose:
		return "lose"
	default:
		return "open"
	}
}

// Payout returns the gross amount returned for an escrowed bet.
// A natural pays 3:2, other wins 1:1, a push returns the stake.
func Payout(o Outcome, bet int64) int64 {
	switch o {
	case OutcomeNatural:
		return bet + bet*3/2
	case OutcomeWin:
		return 2 * bet
	case OutcomePush:
		return bet
	default:
		return 0
	}
}

// Table is one round in progress. It is not safe for concurrent use; Tables
// serializes access per user.
type Table struct {
	Bet     int64
	Player  Hand
	Dealer  Hand
	Outcome Outcome
	Started time.Time

	// LastMove is when the player last dealt, hit or stood.
	LastMove time.Time

	deck *Deck
	rng  economy.Rand
}

// Deal opens a round: two cards each, settled at once on any natural.
func Deal(r economy.Rand, deck *Deck, bet int64, now time.Time) *Table {
	t := &Table{Bet: bet, Started: now, LastMove: now, deck: deck, rng: r}
	t.Player = Hand{deck.Draw(r), deck.Draw(r)}
	t.Dealer = Hand{deck.Draw(r), deck.Draw(r)}
	switch {
	case t.Player.Natural() && t.Dealer.Natural():
		t.Outcome = OutcomePush
	case t.Player.Natural():
		t.Outcome = OutcomeNatural
	case t.Dealer.Natural():
		t.Outcome = OutcomeLose
	}
	return t
}

// Done reports whether the round is settled.
func (t *Table) Done() bool { return t.Outcome != OutcomeOpen }

// Payout is the gross amount owed to the player once settled.
func (t *Table) Payout() int64 { return Payout(t.Outcome, t.Bet) }

// Owed is what the player gets back if the round ends now: the payout of a
// settled round, or the escrowed bet of an open one.
func (t *Table) Owed() int64 {
	if t.Done() {
		return t.Payout()
	}
	return t.Bet
}

// Idle reports whether an open round has seen no move since before cutoff.
func (t *Table) Idle(cutoff time.Time) bool {
	return !t.Done() && t.LastMove.Before(cutoff)
}

// Hit deals the player a card. Busting settles the round; reaching 21 stands.
func (t *Table) Hit() {
	if t.Done() {
		return
	}
	t.Player = append(t.Player, t.deck.Draw(t.rng))
	switch v := t.Player.Value(); {
	case v > 21:
		t.Outcome = OutcomeLose
	case v == 21:
		t.Stand()
	}
}

// Stand plays out the dealer and settles the round.
func (t *Table) Stand() {
	if t.Done() {
		return
	}
	for t.Dealer.Value() < DealerStand {
		t.Dealer = append(t.Dealer, t.deck.Draw(t.rng))
	}
	p, d := t.Player.Value(), t.Dealer.Value()
	switch {
	case d > 21 || p > d:
		t.Outcome = OutcomeWin
	case p == d:
		t.Outcome = OutcomePush
	default:
		t.Outcome = OutcomeLose
	}
}

// DealerShown is the dealer hand as the player may see it.
func (t *Table) DealerShown() string {
	if t.Done() || len(t.Dealer) == 0 {
		return fmt.Sprintf("%s (%d)", t.Dealer, t.Dealer.Value())
	}
	return t.Dealer[0].String() + " ??"
}
