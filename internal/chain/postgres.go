package chain

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const createBlocksTable = `
CREATE TABLE IF NOT EXISTS chain_blocks (
	height        BIGINT PRIMARY KEY,
	time          BIGINT NOT NULL,
	previous_hash TEXT   NOT NULL DEFAULT '',
	body          TEXT   NOT NULL,
	hash          TEXT   NOT NULL UNIQUE
)`

// PostgresStore persists the chain to a PostgreSQL table. The primary key on
// height rejects a second block at an already-used height.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore creates a PostgresStore backed by the given connection pool.
// The store takes ownership of the pool and closes it on Close.
func NewPostgresStore(pool *pgxpool.Pool, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, logger: logger}
}

// EnsureSchema creates the chain_blocks table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createBlocksTable); err != nil {
		return fmt.Errorf("create chain_blocks: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *PostgresStore) Load(ctx context.Context) ([]*Block, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT height, time, previous_hash, body, hash
		 FROM chain_blocks ORDER BY height ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query chain: %w", err)
	}
	defer rows.Close()

	var blocks []*Block
	for rows.Next() {
		b := &Block{}
		if err := rows.Scan(&b.Height, &b.Time, &b.PreviousHash, &b.Body, &b.Hash); err != nil {
			return nil, fmt.Errorf("scan block row: %w", err)
		}
		blocks = append(blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read chain rows: %w", err)
	}
	return blocks, nil
}

// Save implements Store.
func (s *PostgresStore) Save(ctx context.Context, b *Block) error {
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO chain_blocks (height, time, previous_hash, body, hash)
		 VALUES ($1, $2, $3, $4, $5)`,
		b.Height, b.Time, b.PreviousHash, b.Body, b.Hash,
	); err != nil {
		return fmt.Errorf("insert block %d: %w", b.Height, err)
	}

	s.logger.Debug("block persisted",
		zap.Int64("height", b.Height),
		zap.String("hash", b.Hash),
	)
	return nil
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
