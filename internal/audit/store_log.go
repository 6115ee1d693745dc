package audit

import (
	"context"
	"log/slog"
)

// LogStore writes events to the structured log.
type LogStore struct {
	logger *slog.Logger
}

func NewLogStore(logger *slog.Logger) *LogStore {
	return &LogStore{logger: logger}
}

func (s *LogStore) Append(ctx context.Context, event Event) error {
	s.logger.InfoContext(ctx, "audit",
		"action", event.Action,
		"owner", event.Owner,
		"resource_id", event.ResourceID,
		"request_id", event.RequestID,
		"device", event.Device,
		"source", event.Source,
	)
	return nil
}
