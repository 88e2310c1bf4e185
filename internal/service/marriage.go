package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/NotCool09/myowobot/internal/apperr"
	"github.com/NotCool09/myowobot/internal/model"
	"github.com/NotCool09/myowobot/internal/store"
)

// MarriageResult is the outcome of a marriage operation.
type MarriageResult struct {
	Marriage *model.Marriage
	Married  bool // the two users are now married
}

func alreadyMarried(u *model.User, self bool) error {
	if !u.IsMarried() {
		return nil
	}
	if self {
		return apperr.LimitReached("you are already married", time.Time{})
	}
	return apperr.LimitReached("they are already married", time.Time{})
}

// wed marks m accepted and links both users.
func wed(m *model.Marriage, a, b *model.User, now time.Time) {
	m.Accepted = true
	m.MarriedAt = &now
	aID, bID := a.ID, b.ID
	a.MarriedTo = &bID
	b.MarriedTo = &aID
}

// Propose asks proposee to marry proposer. A reciprocal pending proposal is
// accepted on the spot.
func (e *Engine) Propose(ctx context.Context, proposerID, proposeeID int64) (*MarriageResult, error) {
	if proposerID == proposeeID {
		return nil, apperr.InvalidArgument("you can't marry yourself")
	}

	var res *MarriageResult
	err := e.pair(ctx, proposerID, proposeeID, func(tx store.Tx, a, b *model.User, now time.Time) error {
		if err := alreadyMarried(a, true); err != nil {
			return err
		}
		if err := alreadyMarried(b, false); err != nil {
			return err
		}

		m, err := tx.Proposal(proposeeID, proposerID)
		switch {
		case err == nil:
			wed(m, b, a, now)
			res = &MarriageResult{Marriage: m, Married: true}
			return tx.SaveMarriage(m)
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		if _, err := tx.Proposal(proposerID, proposeeID); err == nil {
			return apperr.LimitReached("you already proposed to them", time.Time{})
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		m = &model.Marriage{
			ID:         uuid.NewString(),
			Proposer:   proposerID,
			Proposee:   proposeeID,
			ProposedAt: now,
		}
		res = &MarriageResult{Marriage: m}
		return tx.SaveMarriage(m)
	})
	return res, err
}

// Accept promotes the pending proposal from proposer to proposee.
func (e *Engine) Accept(ctx context.Context, proposeeID, proposerID int64) (*MarriageResult, error) {
	if proposerID == proposeeID {
		return nil, apperr.InvalidArgument("you can't marry yourself")
	}

	var res *MarriageResult
	err := e.pair(ctx, proposeeID, proposerID, func(tx store.Tx, b, a *model.User, now time.Time) error {
		m, err := tx.Proposal(proposerID, proposeeID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("proposal")
		}
		if err != nil {
			return err
		}
		if err := alreadyMarried(b, true); err != nil {
			return err
		}
		if err := alreadyMarried(a, false); err != nil {
			return err
		}
		wed(m, a, b, now)
		res = &MarriageResult{Marriage: m, Married: true}
		return tx.SaveMarriage(m)
	})
	return res, err
}

// Decline deletes the pending proposal from proposer to proposee.
func (e *Engine) Decline(ctx context.Context, proposeeID, proposerID int64) (*MarriageResult, error) {
	var res *MarriageResult
	err := e.pair(ctx, proposeeID, proposerID, func(tx store.Tx, _, _ *model.User, _ time.Time) error {
		m, err := tx.Proposal(proposerID, proposeeID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("proposal")
		}
		if err != nil {
			return err
		}
		res = &MarriageResult{Marriage: m}
		return tx.DeleteMarriage(m.ID)
	})
	return res, err
}

// Divorce ends the user's marriage. Both users are cleared in the same unit
// of work and the record is kept with its divorce time.
func (e *Engine) Divorce(ctx context.Context, userID int64) (*MarriageResult, error) {
	u, err := e.User(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.IsMarried() {
		return nil, apperr.NotFound("marriage")
	}
	spouseID := *u.MarriedTo

	var res *MarriageResult
	err = e.pair(ctx, userID, spouseID, func(tx store.Tx, a, b *model.User, now time.Time) error {
		// The marriage may have changed since the read above.
		if a.MarriedTo == nil || *a.MarriedTo != spouseID {
			return apperr.NotFound("marriage")
		}
		m, err := tx.ActiveMarriage(userID)
		switch {
		case err == nil:
			m.DivorcedAt = &now
			if err := tx.SaveMarriage(m); err != nil {
				return err
			}
		case !errors.Is(err, store.ErrNotFound):
			return err
		}
		a.MarriedTo = nil
		if b.MarriedTo != nil && *b.MarriedTo == userID {
			b.MarriedTo = nil
		}
		res = &MarriageResult{Marriage: m}
		return nil
	})
	return res, err
}
