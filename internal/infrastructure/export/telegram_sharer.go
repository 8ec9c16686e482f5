package export

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/pavel13595/Baranchik-Inventory/internal/domain/entity"
	"github.com/pavel13595/Baranchik-Inventory/internal/domain/repository"
)

// documentSender is the part of *tgbotapi.BotAPI the sharer uses.
type documentSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSharer sends documents to a fixed chat through the bot.
type TelegramSharer struct {
	bot    documentSender
	chatID int64
}

// NewTelegramSharer returns a sharer for chatID. A nil bot or zero chat id
// yields a sharer that always reports ErrShareUnsupported.
func NewTelegramSharer(bot documentSender, chatID int64) *TelegramSharer {
	return &TelegramSharer{bot: bot, chatID: chatID}
}

func (s *TelegramSharer) Share(ctx context.Context, doc entity.Document) error {
	if s == nil || s.bot == nil || s.chatID == 0 {
		return repository.ErrShareUnsupported
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewDocument(s.chatID, tgbotapi.FileBytes{Name: doc.FileName, Bytes: doc.Data})
	msg.Caption = fmt.Sprintf("Інвентаризація: %s", doc.DepartmentName)
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("send document: %w", err)
	}
	return nil
}
