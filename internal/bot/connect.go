package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"
)

// Connect calls dial until it succeeds. Rate limit errors are retried with
// exponential backoff starting at initial and doubling, for at most attempts
// calls; any other error fails at once.
func Connect(ctx context.Context, dial func() (*tele.Bot, error), initial time.Duration, attempts int) (*tele.Bot, error) {
	if attempts < 1 {
		attempts = 1
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = initial << attempts
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)

	op := func() (*tele.Bot, error) {
		bot, err := dial()
		if err == nil {
			return bot, nil
		}
		if !isFlood(err) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Dur("retry_in", wait).Msg("Telegram rate limited the connection")
	}

	bot, err := backoff.RetryNotifyWithData(op, policy, notify)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	return bot, nil
}

func isFlood(err error) bool {
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return true
	}
	var apiErr *tele.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests
}
