package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/smartgallery/internal/errors"
)

// sizeExpr is the byte footprint of one row: key plus value, measured as UTF-8 bytes.
const sizeExpr = "length(CAST(key AS BLOB)) + length(CAST(value AS BLOB))"

// GetValue returns the value stored under key. ok is false when the key is absent.
func GetValue(ctx context.Context, db *sql.DB, key string) (value string, ok bool, err error) {
	err = db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.NewStorageUnavailable(err)
	}
	return value, true, nil
}

// SetValue upserts key without any quota check.
func SetValue(ctx context.Context, db *sql.DB, key, value string) error {
	if err := upsert(ctx, db, key, value); err != nil {
		return errors.NewStorageUnavailable(err)
	}
	return nil
}

// SetValueWithQuota upserts key only if the resulting total footprint stays within quota.
// The usage check and the write run in one transaction.
// A quota <= 0 disables the check.
func SetValueWithQuota(ctx context.Context, db *sql.DB, key, value string, quota int64) error {
	if quota <= 0 {
		return SetValue(ctx, db, key, value)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageUnavailable(err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	used, err := usedBytes(ctx, tx, key)
	if err != nil {
		return errors.NewStorageUnavailable(err)
	}
	required := used + int64(len(key)) + int64(len(value))
	if required > quota {
		return errors.NewQuotaExceeded(quota, required)
	}

	if err := upsert(ctx, tx, key, value); err != nil {
		return errors.NewStorageUnavailable(err)
	}
	if err := tx.Commit(); err != nil {
		return errors.NewStorageUnavailable(err)
	}
	return nil
}

// DeleteValue removes key. Removing an absent key is not an error.
func DeleteValue(ctx context.Context, db *sql.DB, key string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return errors.NewStorageUnavailable(err)
	}
	return nil
}

// UsedBytes returns the total footprint of all rows except excludeKey.
// Pass "" to count every row.
func UsedBytes(ctx context.Context, db *sql.DB, excludeKey string) (int64, error) {
	used, err := usedBytes(ctx, db, excludeKey)
	if err != nil {
		return 0, errors.NewStorageUnavailable(err)
	}
	return used, nil
}

// Keys returns all stored keys in ascending order.
func Keys(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, errors.NewStorageUnavailable(err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, errors.NewStorageUnavailable(err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageUnavailable(err)
	}
	return keys, nil
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func upsert(ctx context.Context, q querier, key, value string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().Unix())
	return err
}

func usedBytes(ctx context.Context, q querier, excludeKey string) (int64, error) {
	var used int64
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(`+sizeExpr+`), 0) FROM kv WHERE key != ?`, excludeKey,
	).Scan(&used)
	return used, err
}
