package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/pavel13595/Baranchik-Inventory/internal/domain/constants"
	"github.com/pavel13595/Baranchik-Inventory/internal/infrastructure/xlsx"
)

// Start polls for updates until ctx is done.
func (h *BotHandler) Start(ctx context.Context) error {
	go h.cleanupSessions(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			h.bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go h.handleUpdate(ctx, update)
		}
	}
}

func (h *BotHandler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		h.handleMessage(ctx, update.Message)
	}
}

func (h *BotHandler) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.Chat == nil {
		return
	}
	chatID := message.Chat.ID

	if message.Document != nil {
		h.handleDocument(ctx, message)
		return
	}
	if message.IsCommand() && message.Command() == "start" {
		h.updateSession(chatID, func(s *session) { *s = session{Step: stepCity} })
		h.sendWithKeyboard(chatID, "Выберите город для переучета:", cityKeyboard())
		return
	}
	h.sendMessage(chatID, "Нажмите /start, чтобы начать переучет.")
}

func (h *BotHandler) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		log.Printf("[bot] answer callback failed: %v", err)
	}
	if cq.Message == nil || cq.Message.Chat == nil {
		return
	}
	chatID := cq.Message.Chat.ID
	data := cq.Data

	switch {
	case strings.HasPrefix(data, "city_"):
		city, ok := findOption(cityOptions, strings.TrimPrefix(data, "city_"))
		if !ok {
			return
		}
		h.updateSession(chatID, func(s *session) {
			s.City = city.Code
			s.Type = ""
			s.Step = stepClear
		})
		h.sendWithKeyboard(chatID, fmt.Sprintf("Очистить старый бланк переучета для города %s?", city.Label), clearKeyboard())

	case data == "clear_yes" || data == "clear_no":
		s := h.updateSession(chatID, nil)
		if s.City == "" {
			h.sendWithKeyboard(chatID, "Выберите город для переучета:", cityKeyboard())
			return
		}
		if data == "clear_yes" {
			h.clearCity(ctx, s.City)
			h.sendMessage(chatID, "Старые бланки переучета очищены.")
		}
		h.updateSession(chatID, func(s *session) { s.Step = stepType })
		h.sendWithKeyboard(chatID, "Выберите тип переучета:", typeKeyboard(false))

	case strings.HasPrefix(data, "type_"):
		kind, ok := findOption(typeOptions, strings.TrimPrefix(data, "type_"))
		if !ok {
			return
		}
		s := h.updateSession(chatID, nil)
		if s.City == "" {
			h.sendWithKeyboard(chatID, "Выберите город для переучета:", cityKeyboard())
			return
		}
		h.updateSession(chatID, func(s *session) {
			s.Type = kind.Code
			s.Step = stepUpload
		})
		h.sendMessage(chatID, "Загрузите Excel-файл для типа: "+kind.Label)

	case data == "next_type":
		h.updateSession(chatID, func(s *session) { s.Step = stepType })
		h.sendWithKeyboard(chatID, "Выберите следующий тип переучета:", typeKeyboard(true))

	case data == "finish":
		h.endSession(chatID)
		h.sendMessage(chatID, "Загрузка завершена! Все данные обновлены.")
	}
}

// clearCity empties every type sheet of a city. Failures are logged only.
func (h *BotHandler) clearCity(ctx context.Context, city string) {
	for _, kind := range typeOptions {
		name := sheetFor(city, kind.Code)
		if err := h.sheets.ClearSheet(ctx, name); err != nil {
			log.Printf("[bot] clear %s failed: %v", name, err)
		}
	}
}

func (h *BotHandler) handleDocument(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	s, ok := h.getSession(chatID)
	if !ok || s.Step != stepUpload || s.City == "" || s.Type == "" {
		h.metrics.Upload("rejected")
		h.sendMessage(chatID, "Сначала выберите город и тип переучета.")
		return
	}

	doc := message.Document
	if !strings.EqualFold(filepath.Ext(doc.FileName), ".xlsx") {
		h.metrics.Upload("rejected")
		h.sendMessage(chatID, "Поддерживаются только файлы Excel (.xlsx).")
		return
	}
	if doc.FileSize > constants.MaxFileUploadSize {
		h.metrics.Upload("rejected")
		h.sendMessage(chatID, "Файл слишком большой. Максимальный размер: 5 МБ.")
		return
	}

	uploadID := uuid.NewString()
	sheet := sheetFor(s.City, s.Type)
	log.Printf("[bot] upload %s: chat=%d file=%q sheet=%s", uploadID, chatID, doc.FileName, sheet)

	if err := h.importFile(ctx, doc.FileID, sheet); err != nil {
		log.Printf("[bot] upload %s failed: %v", uploadID, err)
		h.metrics.Upload("error")
		h.sendMessage(chatID, "Ошибка при обработке файла: "+err.Error())
		return
	}

	h.metrics.Upload("success")
	h.updateSession(chatID, func(s *session) { s.Step = stepWaitNext })
	kind, _ := findOption(typeOptions, s.Type)
	h.sendWithKeyboard(chatID, fmt.Sprintf("Данные для типа %s успешно загружены!", kind.Label), nextKeyboard())
}

// importFile replaces the sheet with the rows of the uploaded workbook.
func (h *BotHandler) importFile(ctx context.Context, fileID, sheet string) error {
	data, err := h.fetch(ctx, fileID)
	if err != nil {
		if errors.Is(err, errFileTooLarge) {
			return errors.New("файл слишком большой")
		}
		return err
	}
	rows, err := xlsx.ReadRows(data)
	if err != nil {
		return err
	}
	if err := h.sheets.ClearSheet(ctx, sheet); err != nil {
		return fmt.Errorf("clear %s: %w", sheet, err)
	}
	if err := h.sheets.ReplaceSheet(ctx, sheet, rows); err != nil {
		return fmt.Errorf("write %s: %w", sheet, err)
	}
	log.Printf("[bot] %s: %d rows written", sheet, len(rows))
	return nil
}
