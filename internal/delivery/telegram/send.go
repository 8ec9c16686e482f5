package telegram

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/pavel13595/Baranchik-Inventory/internal/domain/constants"
)

var errFileTooLarge = fmt.Errorf("file is larger than %d bytes", constants.MaxFileUploadSize)

func (h *BotHandler) sendAndLog(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	if h.bot == nil {
		return tgbotapi.Message{}, fmt.Errorf("telegram bot is nil")
	}
	sent, err := h.bot.Send(msg)
	if err != nil {
		log.Printf("[bot] send failed: %v", err)
	}
	return sent, err
}

func (h *BotHandler) sendMessage(chatID int64, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	_, _ = h.sendAndLog(tgbotapi.NewMessage(chatID, text))
}

func (h *BotHandler) sendWithKeyboard(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	_, _ = h.sendAndLog(msg)
}

// botFileFetcher downloads attachments through the Bot API file endpoint.
func botFileFetcher(bot *tgbotapi.BotAPI) fileFetcher {
	client := &http.Client{Timeout: time.Minute}
	return func(ctx context.Context, fileID string) ([]byte, error) {
		file, err := bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
		if err != nil {
			return nil, fmt.Errorf("get file: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(bot.Token), nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("download file: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, constants.MaxFileUploadSize+1))
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		if len(data) > constants.MaxFileUploadSize {
			return nil, errFileTooLarge
		}
		return data, nil
	}
}
