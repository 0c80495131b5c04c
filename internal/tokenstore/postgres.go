package tokenstore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of *pgxpool.Pool the store needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore shares sessions between machines through the client_kv table.
// Namespace separates independent sessions using the same database.
type PostgresStore struct {
	db        Querier
	namespace string
	logger    *slog.Logger
}

func NewPostgresStore(db Querier, namespace string, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	if namespace == "" {
		namespace = "default"
	}
	return &PostgresStore{db: db, namespace: namespace, logger: logger}
}

func (s *PostgresStore) Set(ctx context.Context, key string, value any) error {
	data, err := encode(key, value)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO client_kv (namespace, key, value, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (namespace, key)
		 DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		s.namespace, key, data, time.Now().UTC())
	if err != nil {
		logWriteFailure(s.logger, "postgres", "set", key, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string, dst any) bool {
	var data []byte
	err := s.db.QueryRow(ctx,
		`SELECT value FROM client_kv WHERE namespace = $1 AND key = $2`,
		s.namespace, key).Scan(&data)

	if errors.Is(err, pgx.ErrNoRows) {
		return false
	}
	if err != nil {
		s.logger.Warn("token store read failed", "backend", "postgres", "key", key, "error", err)
		return false
	}
	return decode(data, dst)
}

func (s *PostgresStore) Remove(ctx context.Context, key string) {
	_, err := s.db.Exec(ctx, `DELETE FROM client_kv WHERE namespace = $1 AND key = $2`, s.namespace, key)
	if err != nil {
		logWriteFailure(s.logger, "postgres", "remove", key, err)
	}
}

func (s *PostgresStore) Clear(ctx context.Context) {
	_, err := s.db.Exec(ctx, `DELETE FROM client_kv WHERE namespace = $1`, s.namespace)
	if err != nil {
		logWriteFailure(s.logger, "postgres", "clear", "*", err)
	}
}
