// Package mysql stores documents as JSON rows of a single MySQL table.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"

	"github.com/vsinha/printcenter/pkg/domain/repositories"
	"github.com/vsinha/printcenter/pkg/infrastructure/repositories/document"
)

const schema = `CREATE TABLE IF NOT EXISTS documents (
	bucket VARCHAR(64) NOT NULL,
	id VARCHAR(191) NOT NULL,
	body JSON NOT NULL,
	updated_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6),
	PRIMARY KEY (bucket, id)
)`

// MySQL server error numbers that mean the transaction can simply be run again
const (
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

const retryMaxElapsed = 30 * time.Second

// Backend is a MySQL-backed document backend
type Backend struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open connects with dsn and creates the documents table
func Open(ctx context.Context, dsn string, logger zerolog.Logger) (*Backend, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	cfg.ParseTime = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	b := &Backend{db: db, logger: logger.With().Str("component", "mysql_store").Logger()}
	err = b.withRetry(ctx, func() error {
		_, err := db.ExecContext(ctx, schema)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialise schema: %w", err)
	}
	b.logger.Info().Str("addr", cfg.Addr).Str("database", cfg.DBName).Msg("mysql store opened")
	return b, nil
}

// NewStore opens a document store on dsn
func NewStore(ctx context.Context, dsn string, logger zerolog.Logger) (*document.Store, error) {
	backend, err := Open(ctx, dsn, logger)
	if err != nil {
		return nil, err
	}
	return document.NewStore(backend), nil
}

// Verify interface compliance
var _ document.Backend = (*Backend)(nil)

func (b *Backend) View(ctx context.Context, fn func(document.BucketTx) error) error {
	return b.run(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

func (b *Backend) Update(ctx context.Context, fn func(document.BucketTx) error) error {
	return b.run(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, fn)
}

func (b *Backend) Close() error {
	return b.db.Close()
}

func (b *Backend) run(ctx context.Context, opts *sql.TxOptions, fn func(document.BucketTx) error) error {
	attempt := 0
	return b.withRetry(ctx, func() error {
		attempt++
		if attempt > 1 {
			b.logger.Warn().Int("attempt", attempt).Msg("retrying transaction")
		}
		return b.runOnce(ctx, opts, fn)
	})
}

func (b *Backend) runOnce(ctx context.Context, opts *sql.TxOptions, fn func(document.BucketTx) error) error {
	sqlTx, err := b.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			_ = sqlTx.Rollback()
			panic(r)
		}
	}()

	if err := fn(&mysqlTx{ctx: ctx, tx: sqlTx}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	return sqlTx.Commit()
}

// withRetry re-runs op on transient failures until retryMaxElapsed
func (b *Backend) withRetry(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = retryMaxElapsed
	return backoff.Retry(func() error {
		err := op()
		if err != nil && isRetryableError(err) {
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}, backoff.WithContext(bo, ctx))
}

// isRetryableError reports deadlocks, lock timeouts and dropped connections
func isRetryableError(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == errDeadlock || myErr.Number == errLockWaitTimeout
	}
	if errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, transient := range []string{
		"driver: bad connection",
		"invalid connection",
		"broken pipe",
		"connection reset",
		"connection refused",
		"lost connection",
		"gone away",
		"i/o timeout",
	} {
		if strings.Contains(msg, transient) {
			return true
		}
	}
	return false
}

type mysqlTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *mysqlTx) Get(bucket, key string) ([]byte, error) {
	var body []byte
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT body FROM documents WHERE bucket = ? AND id = ?`, bucket, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", bucket, key, err)
	}
	return body, nil
}

func (t *mysqlTx) Put(bucket, key string, value []byte) error {
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO documents (bucket, id, body) VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE body = VALUES(body)`, bucket, key, value)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (t *mysqlTx) Delete(bucket, key string) error {
	res, err := t.tx.ExecContext(t.ctx, `DELETE FROM documents WHERE bucket = ? AND id = ?`, bucket, key)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", bucket, key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (t *mysqlTx) ForEach(bucket string, fn func(key string, value []byte) error) error {
	rows, err := t.tx.QueryContext(t.ctx,
		`SELECT id, body FROM documents WHERE bucket = ? ORDER BY id`, bucket)
	if err != nil {
		return fmt.Errorf("list %s: %w", bucket, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key  string
			body []byte
		)
		if err := rows.Scan(&key, &body); err != nil {
			return fmt.Errorf("scan %s: %w", bucket, err)
		}
		if err := fn(key, body); err != nil {
			return err
		}
	}
	return rows.Err()
}
