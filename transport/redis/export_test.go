package redis

import "log/slog"

// NewWithClient builds a ListTransport around a fake client.
func NewWithClient(client listClient, key string, maxLen int64, logger *slog.Logger) *ListTransport {
	return newList(client, key, maxLen, logger)
}
