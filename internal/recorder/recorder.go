package recorder

import (
	"context"
	"time"

	"SignalFusion/internal/model"
)

// StoredSignal is a persisted signal with its row metadata.
type StoredSignal struct {
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	Signal    model.Signal `json:"signal"`
}

// Recorder persists generated signals for later review.
type Recorder interface {
	RecordSignal(ctx context.Context, sig *model.Signal) (string, error)
	// Recent returns up to limit signals for symbol, newest first.
	Recent(ctx context.Context, symbol string, limit int) ([]StoredSignal, error)
	Close() error
}
