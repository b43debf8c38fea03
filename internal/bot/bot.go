package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"printbot/internal/event"
)

// Bot runs the long-polling loop, translates Telegram updates into internal
// events and feeds them through the per-user dispatcher.
type Bot struct {
	tg         *Telegram
	dispatcher *dispatcher
	logger     *zap.Logger
}

func New(tg *Telegram, handler *Handler, logger *zap.Logger) *Bot {
	return &Bot{
		tg:         tg,
		dispatcher: newDispatcher(handler.HandleEvent),
		logger:     logger,
	}
}

func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting bot")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.tg.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Shutting down bot")
			b.tg.api.StopReceivingUpdates()
			b.dispatcher.Wait()
			return nil

		case update := <-updates:
			if ev := b.toEvent(update); ev != nil {
				b.dispatcher.Dispatch(ctx, ev)
			}
		}
	}
}

// toEvent converts an update into a narrow event value, or nil for update
// kinds the bot does not handle.
func (b *Bot) toEvent(update tgbotapi.Update) event.Event {
	if cb := update.CallbackQuery; cb != nil {
		if cb.Message == nil {
			return nil
		}
		// Acknowledge the button press so the client stops its spinner.
		if _, err := b.tg.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			b.logger.Debug("Failed to answer callback query", zap.Error(err))
		}
		return event.CallbackAction{
			UserID:          cb.From.ID,
			ChatID:          cb.Message.Chat.ID,
			OriginMessageID: cb.Message.MessageID,
			Payload:         cb.Data,
		}
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return nil
	}

	if doc := msg.Document; doc != nil {
		return event.DocumentMessage{
			UserID:    msg.From.ID,
			ChatID:    msg.Chat.ID,
			Username:  msg.From.UserName,
			MimeType:  doc.MimeType,
			SizeBytes: int64(doc.FileSize),
			FileID:    doc.FileID,
			FileName:  doc.FileName,
		}
	}

	if msg.Text != "" {
		return event.TextMessage{
			UserID:   msg.From.ID,
			ChatID:   msg.Chat.ID,
			Username: msg.From.UserName,
			Text:     msg.Text,
		}
	}

	return nil
}
