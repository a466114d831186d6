package pubsub

import (
	"context"

	"github.com/rs/zerolog"
)

// Waker is told that new mail may be waiting.
type Waker interface {
	Wake()
}

type Handler struct {
	waker  Waker
	logger zerolog.Logger
}

func NewHandler(waker Waker, logger zerolog.Logger) *Handler {
	return &Handler{
		waker:  waker,
		logger: logger.With().Str("component", "push").Logger(),
	}
}

// HandleNotification wakes the poll loop. The history id only identifies
// the notification; the loop lists unread mail itself.
func (h *Handler) HandleNotification(_ context.Context, historyID uint64) {
	h.logger.Info().Uint64("history_id", historyID).Msg("Mailbox changed")
	h.waker.Wake()
}
