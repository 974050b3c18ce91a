package mfa

import (
	"context"
	"embed"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/stepupkit/pkg/pg"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies the security schema (profiles and tenant policies) to the
// database behind the pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg pg.Config, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	return pg.Migrate(ctx, pool, migrationsFS, "migrations", cfg, log)
}
