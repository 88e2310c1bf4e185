package bot

import (
	"sync"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/NotCool09/myowobot/internal/config"
)

// chatGate decides which chats the bot answers. Group chats must be
// whitelisted; private chats are open to users seen in an allowed group,
// or to everyone when no whitelist is configured.
type chatGate struct {
	cfg  *config.Config
	mu   sync.RWMutex
	seen map[int64]bool
}

func newChatGate(cfg *config.Config) *chatGate {
	return &chatGate{cfg: cfg, seen: make(map[int64]bool)}
}

func (g *chatGate) allow(chatType tele.ChatType, chatID, userID int64) bool {
	if chatType == tele.ChatPrivate {
		if len(g.cfg.Whitelist.Chats) == 0 {
			return true
		}
		g.mu.RLock()
		defer g.mu.RUnlock()
		return g.seen[userID]
	}

	if !g.cfg.IsChatAllowed(chatID) {
		return false
	}
	g.mu.Lock()
	g.seen[userID] = true
	g.mu.Unlock()
	return true
}

// WhitelistMiddleware drops updates from chats the bot does not serve.
func WhitelistMiddleware(cfg *config.Config) tele.MiddlewareFunc {
	gate := newChatGate(cfg)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			sender := c.Sender()
			if chat == nil || sender == nil {
				return nil
			}
			if !gate.allow(chat.Type, chat.ID, sender.ID) {
				log.Debug().
					Int64("chat_id", chat.ID).
					Int64("user_id", sender.ID).
					Msg("Ignoring update from non-whitelisted chat")
				return nil
			}
			return next(c)
		}
	}
}

// LoggingMiddleware creates a middleware that logs all incoming messages.
func LoggingMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			chat := c.Chat()

			logEvent := log.Debug()
			if sender != nil {
				logEvent = logEvent.
					Int64("user_id", sender.ID).
					Str("username", sender.Username)
			}
			if chat != nil {
				logEvent = logEvent.
					Int64("chat_id", chat.ID).
					Str("chat_type", string(chat.Type))
			}
			logEvent.
				Str("text", c.Text()).
				Msg("Received message")

			return next(c)
		}
	}
}

// RecoveryMiddleware creates a middleware that recovers from panics.
func RecoveryMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Interface("panic", r).
						Str("text", c.Text()).
						Msg("Recovered from panic in handler")
					err = c.Send("⚠️ Something went wrong. Please try again in a moment.")
				}
			}()
			return next(c)
		}
	}
}
