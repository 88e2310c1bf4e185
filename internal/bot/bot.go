// Package bot connects the command facade to Telegram.
package bot

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/NotCool09/myowobot/internal/command"
	"github.com/NotCool09/myowobot/internal/config"
	"github.com/NotCool09/myowobot/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot    *tele.Bot
	cfg    *config.Config
	facade *command.Facade
	engine *service.Engine
}

// Dependencies holds what the bot handlers need.
type Dependencies struct {
	Config *config.Config
	Engine *service.Engine
	Facade *command.Facade
}

// New connects to Telegram and registers the handlers.
func New(ctx context.Context, deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, errors.New("bot token is required")
	}

	pref := tele.Settings{
		Token:     deps.Config.Bot.Token,
		Poller:    &tele.LongPoller{Timeout: deps.Config.Bot.PollTimeout},
		ParseMode: tele.ModeHTML,
		OnError: func(err error, c tele.Context) {
			log.Error().Err(err).Str("text", c.Text()).Msg("Handler failed")
		},
	}

	teleBot, err := Connect(ctx, func() (*tele.Bot, error) {
		return tele.NewBot(pref)
	}, deps.Config.Bot.RetryInitial, deps.Config.Bot.RetryMax)
	if err != nil {
		return nil, err
	}
	return wire(teleBot, deps), nil
}

func wire(teleBot *tele.Bot, deps *Dependencies) *Bot {
	b := &Bot{
		bot:    teleBot,
		cfg:    deps.Config,
		facade: deps.Facade,
		engine: deps.Engine,
	}
	b.registerMiddleware()
	b.registerHandlers()
	b.facade.OnQuizTimeout(b.sendTo)
	return b
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(WhitelistMiddleware(b.cfg))
	b.bot.Use(LoggingMiddleware())
}

// registerHandlers registers the text and callback handlers. Every command
// is plain text parsed by the facade.
func (b *Bot) registerHandlers() {
	b.bot.Handle(tele.OnText, b.handleText)
	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

func (b *Bot) handleText(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Sender == nil || msg.Sender.IsBot {
		return nil
	}
	req := requestFrom(msg)
	res := b.facade.Handle(context.Background(), req)
	if res == nil {
		return nil
	}

	var opts []any
	if inv, ok := command.Parse(req.Text); ok && inv.Name == "shop" && len(inv.Args) == 0 {
		opts = append(opts, shopKeyboard(b.engine.Catalog().Shop))
	}
	return c.Send(command.Render(res), opts...)
}

// handleCallback routes inline button presses.
func (b *Bot) handleCallback(c tele.Context) error {
	cb := c.Callback()
	if cb == nil || cb.Sender == nil {
		return nil
	}
	// telebot prefixes unique callback data with \f
	data := strings.TrimPrefix(cb.Data, "\f")
	log.Debug().Int64("user_id", cb.Sender.ID).Str("data", data).Msg("Callback received")

	item, ok := strings.CutPrefix(data, CallbackShopBuy)
	if !ok {
		return c.Respond()
	}
	var chatID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	res := b.facade.Handle(context.Background(), command.Request{
		UserID: cb.Sender.ID,
		ChatID: chatID,
		Text:   command.Prefix + " buy " + item,
	})
	if err := c.Respond(); err != nil {
		log.Debug().Err(err).Msg("Failed to answer callback")
	}
	if res == nil {
		return nil
	}
	return c.Send(command.Render(res))
}

// sendTo delivers an unsolicited result to a chat.
func (b *Bot) sendTo(chatID int64, r *command.Result) {
	if _, err := b.bot.Send(tele.ChatID(chatID), command.Render(r)); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

// Start starts long polling. It blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Str("username", b.bot.Me.Username).Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops polling.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}
