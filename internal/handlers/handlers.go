package handlers

import (
	"github.com/memehub/memehub/internal/badges"
	"github.com/memehub/memehub/internal/leaderboard"
	"github.com/memehub/memehub/internal/storage"
	"github.com/memehub/memehub/internal/votes"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	ledger    *votes.Ledger
	evaluator *badges.Evaluator
	boards    *leaderboard.Aggregator
	uploader  storage.Uploader
}

// NewHandlers creates a new handlers instance
func NewHandlers(ledger *votes.Ledger, evaluator *badges.Evaluator, boards *leaderboard.Aggregator, uploader storage.Uploader) *Handlers {
	return &Handlers{
		ledger:    ledger,
		evaluator: evaluator,
		boards:    boards,
		uploader:  uploader,
	}
}
