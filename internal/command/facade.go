package command

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/NotCool09/myowobot/internal/apperr"
	"github.com/NotCool09/myowobot/internal/game/quiz"
	"github.com/NotCool09/myowobot/internal/service"
)

// Request is one inbound chat message.
type Request struct {
	UserID int64
	ChatID int64
	Text   string
}

type handlerFunc func(ctx context.Context, req Request, args []string) (*Result, error)

// Facade dispatches parsed commands to the engine.
type Facade struct {
	engine   *service.Engine
	handlers map[string]handlerFunc
}

// New creates a facade over engine.
func New(engine *service.Engine) *Facade {
	f := &Facade{engine: engine}
	f.handlers = f.routes()
	return f
}

// Commands lists the canonical command names in order.
func (f *Facade) Commands() []string {
	names := make([]string, 0, len(f.handlers))
	for name := range f.handlers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// OnQuizTimeout registers send to deliver the reply for questions that
// expire unanswered.
func (f *Facade) OnQuizTimeout(send func(chatID int64, r *Result)) {
	f.engine.Quizzes().OnTimeout(func(s quiz.Session) {
		send(s.ChatID, &Result{
			Title:       "⌛ Time's up!",
			Description: fmt.Sprintf("%s ran out of time. The answer was <b>%s</b>.", Mention(s.UserID), Escape(s.Question.Answer)),
			Color:       ColorWarning,
		})
	})
}

// Handle runs one message. A nil result means no reply: the text was not
// a command, the command is unknown, or the caller is banned.
func (f *Facade) Handle(ctx context.Context, req Request) *Result {
	inv, ok := Parse(req.Text)
	if !ok {
		return f.answer(ctx, req)
	}
	h, ok := f.handlers[inv.Name]
	if !ok {
		log.Debug().Int64("user_id", req.UserID).Str("command", inv.Name).Msg("Unknown command")
		return nil
	}

	if err := f.admit(ctx, req.UserID); err != nil {
		return f.fail(req, inv.Name, err)
	}

	res, err := h(ctx, req, inv.Args)
	if err != nil {
		return f.fail(req, inv.Name, err)
	}
	return res
}

// admit loads the caller, creating the record on first sight, and rejects
// banned callers other than the owner.
func (f *Facade) admit(ctx context.Context, userID int64) error {
	u, err := f.engine.User(ctx, userID)
	if err != nil {
		return err
	}
	if u.BotBanned && !f.engine.IsOwner(userID) {
		return apperr.ErrBanned
	}
	return nil
}

// answer routes free text to the caller's open question in the same chat.
func (f *Facade) answer(ctx context.Context, req Request) *Result {
	s, ok := f.engine.Quizzes().Pending(req.UserID)
	if !ok || s.ChatID != req.ChatID {
		return nil
	}
	if err := f.admit(ctx, req.UserID); err != nil {
		return f.fail(req, "answer", err)
	}
	res, ok, err := f.engine.Answer(ctx, req.UserID, req.Text)
	if err != nil {
		return f.fail(req, "answer", err)
	}
	if !ok {
		return nil
	}
	return answerResult(req.UserID, res)
}

// fail renders err. Banned callers get no reply; transient failures are
// logged and reported generically.
func (f *Facade) fail(req Request, command string, err error) *Result {
	e, ok := apperr.As(err)
	if !ok {
		e, _ = apperr.As(apperr.Map(err))
	}

	switch e.Kind {
	case apperr.KindBanned:
		log.Debug().Int64("user_id", req.UserID).Str("command", command).Msg("Ignoring banned user")
		return nil
	case apperr.KindTransient:
		log.Error().Err(err).Int64("user_id", req.UserID).Str("command", command).Msg("Command failed")
	default:
		log.Debug().Err(err).Int64("user_id", req.UserID).Str("command", command).Msg("Command rejected")
	}
	return errorResult(e, f.engine.Clock().Now())
}

// errorResult renders a domain error as an error embed.
func errorResult(e *apperr.Error, now time.Time) *Result {
	r := &Result{Color: ColorError}
	switch e.Kind {
	case apperr.KindOnCooldown:
		r.Title = "⏳ Slow down!"
		r.Description = "You can do that again in " + Duration(e.Remaining) + "."
		r.Color = ColorWarning
	case apperr.KindInsufficientFunds:
		r.Title = "💸 Not enough coins"
		r.Description = fmt.Sprintf("You need %s but only have %s.", Coins(e.Needed), Coins(e.Have))
	case apperr.KindInvalidArgument:
		r.Title = "❌ Invalid input"
		r.Description = Escape(e.Reason)
	case apperr.KindNotFound:
		r.Title = "🔍 Not found"
		r.Description = "Couldn't find " + Escape(e.What) + "."
	case apperr.KindLimitReached:
		r.Title = "🚫 Limit reached"
		r.Description = Escape(e.What)
		if !e.Reset.IsZero() {
			r.Description += ". Resets in " + Duration(e.Reset.Sub(now)) + "."
		}
	case apperr.KindProtected:
		r.Title = "🛡️ Protected"
		r.Description = "That user is protected for another " + Duration(e.Until.Sub(now)) + "."
	default:
		r.Title = "⚠️ Something went wrong"
		r.Description = "Please try again in a moment."
	}
	return r
}
