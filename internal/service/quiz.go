package service

import (
	"context"
	"time"

	"github.com/NotCool09/myowobot/internal/game/quiz"
	"github.com/NotCool09/myowobot/internal/model"
	"github.com/NotCool09/myowobot/internal/store"
)

// Trivia opens a trivia question for userID in chatID.
func (e *Engine) Trivia(ctx context.Context, userID, chatID int64) (quiz.Session, error) {
	if _, err := e.User(ctx, userID); err != nil {
		return quiz.Session{}, err
	}
	return e.quizzes.Ask(userID, chatID, quiz.KindTrivia)
}

// Riddle opens a riddle for userID in chatID.
func (e *Engine) Riddle(ctx context.Context, userID, chatID int64) (quiz.Session, error) {
	if _, err := e.User(ctx, userID); err != nil {
		return quiz.Session{}, err
	}
	return e.quizzes.Ask(userID, chatID, quiz.KindRiddle)
}

// AnswerResult is the outcome of an answer, with the reward applied.
type AnswerResult struct {
	quiz.Outcome
	Balance  int64
	Progress Progress
}

// Answer checks text against the user's open question. ok is false when the
// user has no open question. A correct answer pays the reward and xp.
func (e *Engine) Answer(ctx context.Context, userID int64, text string) (res *AnswerResult, ok bool, err error) {
	out, ok := e.quizzes.Answer(userID, text)
	if !ok {
		return nil, false, nil
	}
	res = &AnswerResult{Outcome: out}
	if !out.Correct {
		return res, true, nil
	}
	err = e.mutateUser(ctx, userID, func(_ store.Tx, u *model.User, _ time.Time) error {
		u.Balance += out.Reward
		res.Balance = u.Balance
		res.Progress = progressOf(u, out.XP, e.addXP(u, out.XP))
		return nil
	})
	if err != nil {
		return nil, true, err
	}
	return res, true, nil
}
