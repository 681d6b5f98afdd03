package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresGateway keeps one JSONB row per collection.
type PostgresGateway struct {
	pool *pgxpool.Pool
}

func NewPostgresGateway(pool *pgxpool.Pool) *PostgresGateway {
	return &PostgresGateway{pool: pool}
}

func (g *PostgresGateway) Load(ctx context.Context, name string) ([]byte, error) {
	const query = `SELECT data FROM collections WHERE name = $1`
	var doc []byte
	if err := g.pool.QueryRow(ctx, query, name).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return doc, nil
}

func (g *PostgresGateway) Save(ctx context.Context, name string, doc []byte) error {
	const query = `
INSERT INTO collections (name, data, updated_at)
VALUES ($1, $2::jsonb, now())
ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`
	_, err := g.pool.Exec(ctx, query, name, string(doc))
	return err
}
