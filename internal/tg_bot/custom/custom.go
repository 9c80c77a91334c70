// Package custom extends the Telegram bot API client with a context-aware update channel.
package custom

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// retryDelay is the pause after a failed getUpdates call.
const retryDelay = 3 * time.Second

// UpdatesGetter fetches one batch of updates.
type UpdatesGetter interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

// BotAPICustom embeds the original bot API.
type BotAPICustom struct {
	*tgbotapi.BotAPI
}

// GetUpdatesChan long-polls Telegram until ctx is done and then closes the channel.
func (cb *BotAPICustom) GetUpdatesChan(ctx context.Context, config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return PollUpdates(ctx, cb.BotAPI, config, cb.Buffer)
}

// PollUpdates feeds the updates returned by getter into a channel of size buffer,
// advancing the offset past every delivered update. Errors are logged and retried.
func PollUpdates(ctx context.Context, getter UpdatesGetter, config tgbotapi.UpdateConfig, buffer int) tgbotapi.UpdatesChannel {
	ch := make(chan tgbotapi.Update, buffer)

	go func() {
		defer close(ch)
		for {
			if ctx.Err() != nil {
				return
			}
			updates, err := getter.GetUpdates(config)
			if err != nil {
				logrus.WithError(err).Warnf("Failed to get updates, retrying in %v...", retryDelay)
				select {
				case <-ctx.Done():
					return
				case <-time.After(retryDelay):
				}
				continue
			}

			for _, update := range updates {
				if update.UpdateID < config.Offset {
					continue
				}
				config.Offset = update.UpdateID + 1
				select {
				case ch <- update:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch
}
