package recorder

import (
	"context"

	"SignalFusion/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSignal(context.Context, *model.Signal) (string, error) { return "", nil }
func (n *NoopRecorder) Recent(context.Context, string, int) ([]StoredSignal, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }
