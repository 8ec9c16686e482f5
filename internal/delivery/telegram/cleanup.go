package telegram

import (
	"context"
	"log"
	"time"

	"github.com/pavel13595/Baranchik-Inventory/internal/domain/constants"
)

// Dialog steps.
const (
	stepCity     = "city"
	stepClear    = "clear"
	stepType     = "type"
	stepUpload   = "upload"
	stepWaitNext = "wait_next"
)

// session is the dialog state of one chat.
type session struct {
	Step       string
	City       string
	Type       string
	LastUpdate time.Time
}

// updateSession applies fn to the chat's session, creating it at the city
// step when missing, and returns a copy of the result.
func (h *BotHandler) updateSession(chatID int64, fn func(s *session)) session {
	h.sessionMu.Lock()
	defer h.sessionMu.Unlock()

	s, ok := h.sessions[chatID]
	if !ok {
		s = &session{Step: stepCity}
		h.sessions[chatID] = s
	}
	if fn != nil {
		fn(s)
	}
	s.LastUpdate = h.now()
	return *s
}

func (h *BotHandler) getSession(chatID int64) (session, bool) {
	h.sessionMu.Lock()
	defer h.sessionMu.Unlock()
	s, ok := h.sessions[chatID]
	if !ok {
		return session{}, false
	}
	return *s, true
}

func (h *BotHandler) endSession(chatID int64) {
	h.sessionMu.Lock()
	delete(h.sessions, chatID)
	h.sessionMu.Unlock()
}

// cleanupSessions drops idle sessions until ctx is done.
func (h *BotHandler) cleanupSessions(ctx context.Context) {
	ticker := time.NewTicker(constants.SessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := h.sweepSessions(h.now()); n > 0 {
				log.Printf("[bot] dropped %d idle sessions", n)
			}
		}
	}
}

func (h *BotHandler) sweepSessions(now time.Time) int {
	h.sessionMu.Lock()
	defer h.sessionMu.Unlock()

	dropped := 0
	for chatID, s := range h.sessions {
		if now.Sub(s.LastUpdate) > constants.SessionTimeout {
			delete(h.sessions, chatID)
			dropped++
		}
	}
	return dropped
}
