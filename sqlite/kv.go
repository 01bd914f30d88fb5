package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Thiht/transactor"
	txStdLib "github.com/Thiht/transactor/stdlib"

	"github.com/benjamonnguyen/dynsched"
)

const (
	selectValue = "SELECT value FROM kv WHERE key=?"
	upsertValue = `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`
)

type scannable interface {
	Scan(...any) error
}

// kvStore
type kvStore struct {
	transactor transactor.Transactor
	dbGetter   txStdLib.DBGetter
	l          dynsched.Logger
}

var _ dynsched.KeyValueStore = (*kvStore)(nil)

func NewKeyValueStore(db *sql.DB, logger dynsched.Logger) dynsched.KeyValueStore {
	tx, dbGetter := txStdLib.NewTransactor(db, txStdLib.NestedTransactionsSavepoints)
	return &kvStore{
		transactor: tx,
		dbGetter:   dbGetter,
		l:          logger,
	}
}

func (s *kvStore) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, fmt.Errorf("provide key")
	}

	row := s.dbGetter(ctx).QueryRowContext(ctx, selectValue, key)
	value, err := extractValue(row)
	if err != nil {
		if errors.Is(err, dynsched.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

func (s *kvStore) SetMany(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}

	now := time.Now().Unix()
	return s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		db := s.dbGetter(ctx)
		for k, v := range entries {
			if k == "" {
				return fmt.Errorf("provide key")
			}
			s.l.Debug("setting value", "key", k, "size", len(v))
			if _, err := db.ExecContext(ctx, upsertValue, k, v, now); err != nil {
				return fmt.Errorf("set %q: %w", k, err)
			}
		}
		return nil
	})
}

func (s *kvStore) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	args := make([]any, 0, len(keys))
	for _, k := range keys {
		args = append(args, k)
	}
	query := "DELETE FROM kv WHERE key IN " + placeholders(len(keys))
	s.l.Debug("removing values", "query", query, "keys", keys)
	return s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.dbGetter(ctx).ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("remove %v: %w", keys, err)
		}
		return nil
	})
}

func extractValue(s scannable) (string, error) {
	var value string
	if err := s.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", dynsched.ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// placeholders returns "(?,?,...)" with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return "()"
	}
	return "(" + strings.TrimSuffix(strings.Repeat("?,", n), ",") + ")"
}
