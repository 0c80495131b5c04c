// Package tokenstore persists the session token and user between runs.
//
// Every backend follows the same contract: values are stored as JSON, a
// missing or corrupt entry reads as absent, and Remove/Clear never fail.
// Backend write failures are logged rather than returned so that callers on
// the request path never crash because persistence is unavailable.
package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

const (
	KeyToken = "auth-token"
	KeyUser  = "user"
)

type Store interface {
	Set(ctx context.Context, key string, value any) error
	Get(ctx context.Context, key string, dst any) bool
	Remove(ctx context.Context, key string)
	Clear(ctx context.Context)
}

func encode(key string, value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode %q: %w", key, err)
	}
	return data, nil
}

func decode(data []byte, dst any) bool {
	if len(data) == 0 || dst == nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func logWriteFailure(logger *slog.Logger, backend string, op string, key string, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("token store write failed", "backend", backend, "op", op, "key", key, "error", err)
}
