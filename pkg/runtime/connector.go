package runtime

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/TechXTT/biopull/internal/core"
	"github.com/TechXTT/biopull/pkg/config"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Connect opens the single database connection described by cfg.
func Connect(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	db, err := core.Connect(ctx, cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s@%s/%s: %w", cfg.User, cfg.Host, cfg.Database, err)
	}
	return db, nil
}
