package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/wastedesk/admingate/internal/gateway/store"
)

// Housekeeper periodically removes expired session rows so the store only
// holds credentials that could still be honoured.
type Housekeeper struct {
	sessions store.Sessions
	interval time.Duration
	log      *slog.Logger
}

// NewHousekeeper builds a housekeeper sweeping at the given interval.
func NewHousekeeper(sessions store.Sessions, interval time.Duration, log *slog.Logger) *Housekeeper {
	return &Housekeeper{sessions: sessions, interval: interval, log: log}
}

// Run sweeps until ctx is cancelled. It sweeps once immediately so restarts
// do not leave stale rows waiting a full interval.
func (h *Housekeeper) Run(ctx context.Context) {
	h.sweep(ctx)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.sweep(ctx)
		}
	}
}

func (h *Housekeeper) sweep(ctx context.Context) {
	removed, err := h.sessions.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		h.log.Warn("expired session sweep failed", slog.Any("error", err))
		return
	}
	if removed > 0 {
		h.log.Debug("removed expired sessions", slog.Int64("count", removed))
	}
}
