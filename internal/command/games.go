package command

import (
	"context"
	"fmt"
	"strconv"

	"github.com/NotCool09/myowobot/internal/apperr"
	"github.com/NotCool09/myowobot/internal/game/blackjack"
	"github.com/NotCool09/myowobot/internal/game/quiz"
	"github.com/NotCool09/myowobot/internal/service"
)

func gambleResult(title string, res *service.GambleResult) *Result {
	r := &Result{Title: title, Description: Escape(res.Result.Description), Color: ColorGamble}
	switch {
	case res.Result.Delta > 0:
		r.Color = ColorSuccess
	case res.Result.Delta < 0:
		r.Color = ColorError
	}
	r.AddField("Bet", Coins(res.Bet), true).AddField("Balance", Coins(res.Balance), true)
	return r
}

func (f *Facade) slots(ctx context.Context, req Request, args []string) (*Result, error) {
	if err := requireArgs(args, 1, "slots <amount|all>"); err != nil {
		return nil, err
	}
	bet, err := ParseBet(args[0])
	if err != nil {
		return nil, err
	}
	res, err := f.engine.Slots(ctx, req.UserID, bet)
	if err != nil {
		return nil, err
	}
	return gambleResult("🎰 Slots", res), nil
}

func (f *Facade) coinflip(ctx context.Context, req Request, args []string) (*Result, error) {
	if err := requireArgs(args, 1, "coinflip <amount|all> [heads|tails]"); err != nil {
		return nil, err
	}
	bet, err := ParseBet(args[0])
	if err != nil {
		return nil, err
	}
	side := ""
	if len(args) > 1 {
		side = args[1]
	}
	res, err := f.engine.Coinflip(ctx, req.UserID, bet, side)
	if err != nil {
		return nil, err
	}
	return gambleResult("🪙 Coinflip", res), nil
}

func (f *Facade) wheel(ctx context.Context, req Request, args []string) (*Result, error) {
	if err := requireArgs(args, 1, "wheel <amount|all>"); err != nil {
		return nil, err
	}
	bet, err := ParseBet(args[0])
	if err != nil {
		return nil, err
	}
	res, err := f.engine.Wheel(ctx, req.UserID, bet)
	if err != nil {
		return nil, err
	}
	return gambleResult("🎡 Wheel", res), nil
}

func (f *Facade) race(ctx context.Context, req Request, args []string) (*Result, error) {
	const usage = "race <amount|all> <lane 1-4>"
	if err := requireArgs(args, 2, usage); err != nil {
		return nil, err
	}
	bet, err := ParseBet(args[0])
	if err != nil {
		return nil, err
	}
	lane, err := strconv.Atoi(args[1])
	if err != nil {
		return nil, apperr.InvalidArgument("usage: %s", usage)
	}
	res, err := f.engine.Race(ctx, req.UserID, bet, lane)
	if err != nil {
		return nil, err
	}
	return gambleResult("🏇 Race", res), nil
}

func (f *Facade) duel(ctx context.Context, req Request, args []string) (*Result, error) {
	const usage = "duel <user> <amount|all>"
	if err := requireArgs(args, 2, usage); err != nil {
		return nil, err
	}
	opponent, err := requireUser(args, 0, usage)
	if err != nil {
		return nil, err
	}
	bet, err := ParseBet(args[1])
	if err != nil {
		return nil, err
	}
	res, err := f.engine.Duel(ctx, req.UserID, opponent, bet)
	if err != nil {
		return nil, err
	}
	return &Result{
		Title:       "⚔️ Duel",
		Description: fmt.Sprintf("%s defeated %s and won %s!", Mention(res.Winner), Mention(res.Loser), Coins(res.Stake)),
		Color:       ColorGamble,
	}, nil
}

func blackjackResult(v *service.BlackjackView) *Result {
	r := &Result{Title: "🃏 Blackjack", Color: ColorGamble}
	r.AddField("Your hand", fmt.Sprintf("%s (%d)", v.Player, v.PlayerValue), false).
		AddField("Dealer", v.Dealer, false)

	switch v.Outcome {
	case blackjack.OutcomeOpen:
		r.Description = "<code>owo hit</code> to draw or <code>owo stand</code> to hold."
	case blackjack.OutcomeNatural:
		r.Description = fmt.Sprintf("Blackjack! You won %s.", Coins(v.Payout-v.Bet))
		r.Color = ColorSuccess
	case blackjack.OutcomeWin:
		r.Description = fmt.Sprintf("You win %s!", Coins(v.Payout-v.Bet))
		r.Color = ColorSuccess
	case blackjack.OutcomePush:
		r.Description = "Push. Your bet is returned."
	case blackjack.OutcomeLose:
		r.Description = fmt.Sprintf("You lose %s.", Coins(v.Bet))
		r.Color = ColorError
	}
	r.AddField("Bet", Coins(v.Bet), true).AddField("Balance", Coins(v.Balance), true)
	return r
}

func (f *Facade) blackjack(ctx context.Context, req Request, args []string) (*Result, error) {
	if err := requireArgs(args, 1, "blackjack <amount|all>"); err != nil {
		return nil, err
	}
	bet, err := ParseBet(args[0])
	if err != nil {
		return nil, err
	}
	v, err := f.engine.BlackjackStart(ctx, req.UserID, bet)
	if err != nil {
		return nil, err
	}
	return blackjackResult(v), nil
}

func (f *Facade) hit(ctx context.Context, req Request, _ []string) (*Result, error) {
	v, err := f.engine.BlackjackHit(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return blackjackResult(v), nil
}

func (f *Facade) stand(ctx context.Context, req Request, _ []string) (*Result, error) {
	v, err := f.engine.BlackjackStand(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return blackjackResult(v), nil
}

func questionResult(s quiz.Session) *Result {
	q := s.Question
	title := "🧠 Trivia"
	if q.Kind == quiz.KindRiddle {
		title = "🧩 Riddle"
	}
	r := &Result{
		Title:       title,
		Description: Escape(q.Prompt),
		Color:       ColorInfo,
	}
	if q.Category != "" {
		r.AddField("Category", Escape(q.Category), true)
	}
	if q.Difficulty != "" {
		r.AddField("Difficulty", string(q.Difficulty), true)
	}
	r.AddField("Reward", Coins(q.Reward), true).
		AddField("Time", Duration(quiz.Timeout(q.Kind)), true)
	return r
}

func (f *Facade) trivia(ctx context.Context, req Request, _ []string) (*Result, error) {
	s, err := f.engine.Trivia(ctx, req.UserID, req.ChatID)
	if err != nil {
		return nil, err
	}
	return questionResult(s), nil
}

func (f *Facade) riddle(ctx context.Context, req Request, _ []string) (*Result, error) {
	s, err := f.engine.Riddle(ctx, req.UserID, req.ChatID)
	if err != nil {
		return nil, err
	}
	return questionResult(s), nil
}

func answerResult(userID int64, res *service.AnswerResult) *Result {
	if !res.Correct {
		return &Result{
			Title:       "❌ Wrong",
			Description: fmt.Sprintf("Sorry %s, the answer was <b>%s</b>.", Mention(userID), Escape(res.Question.Answer)),
			Color:       ColorError,
		}
	}
	desc := fmt.Sprintf("%s got it! You earned %s.", Mention(userID), Coins(res.Reward))
	if res.Bonus > 0 {
		desc += fmt.Sprintf("\n🔥 %d in a row: +%s bonus included.", res.Streak, Coins(res.Bonus))
	}
	r := &Result{
		Title:       "✅ Correct",
		Description: withProgress(desc, res.Progress),
		Color:       ColorSuccess,
	}
	r.AddField("Balance", Coins(res.Balance), true)
	return r
}

