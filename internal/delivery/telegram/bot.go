package telegram

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/pavel13595/Baranchik-Inventory/internal/domain/repository"
	"github.com/pavel13595/Baranchik-Inventory/internal/infrastructure/metrics"
)

// botAPI is the part of *tgbotapi.BotAPI the intake flow uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// fileFetcher downloads a chat attachment by file id.
type fileFetcher func(ctx context.Context, fileID string) ([]byte, error)

// BotHandler runs the spreadsheet intake dialog: city, optional cleanup,
// inventory type, then one or more uploaded workbooks.
type BotHandler struct {
	bot     botAPI
	fetch   fileFetcher
	sheets  repository.SheetStore
	metrics *metrics.Metrics
	now     func() time.Time

	sessionMu sync.Mutex
	sessions  map[int64]*session
}

// NewBotHandler wires the intake flow to a live bot. m may be nil.
func NewBotHandler(bot *tgbotapi.BotAPI, sheets repository.SheetStore, m *metrics.Metrics) *BotHandler {
	return newBotHandler(bot, botFileFetcher(bot), sheets, m)
}

func newBotHandler(bot botAPI, fetch fileFetcher, sheets repository.SheetStore, m *metrics.Metrics) *BotHandler {
	return &BotHandler{
		bot:      bot,
		fetch:    fetch,
		sheets:   sheets,
		metrics:  m,
		now:      time.Now,
		sessions: make(map[int64]*session),
	}
}
