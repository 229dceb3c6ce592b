package catalog

import (
	"context"
	"database/sql"
	"encoding/json"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/leporo/sqlf"
	"github.com/pkg/errors"

	"github.com/pavilion-hpc/pavilion/corectx"
	"github.com/pavilion-hpc/pavilion/result"
)

// RegisterPostgres installs the "postgres" result-sink plugin into reg.
// config carries "dsn" and "table" keys (spec §4.8 Series Catalog mirror).
func RegisterPostgres(reg *corectx.Registry) {
	Register(reg, "postgres", 0, func(config map[string]string) (Sink, error) {
		return NewPostgresSink(context.Background(), config["dsn"], config["table"])
	})
}

// PostgresSink mirrors finished results into a local Postgres table for
// ad-hoc querying, grounded on tools/postgres_migrator's BigQuery-to-
// Postgres transfer (same pgx/v4 stdlib driver, same target shape: one row
// per result with its heterogeneous sub-values carried as JSON). Unlike
// that tool's fmt.Sprintf-built INSERT string, writes go through
// leporo/sqlf's query builder so result values are bound as parameters
// rather than interpolated into SQL text.
type PostgresSink struct {
	db    *sql.DB
	table string
}

// NewPostgresSink opens dsn (a libpq connection string) and ensures table
// exists.
func NewPostgresSink(ctx context.Context, dsn, table string) (*PostgresSink, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening PostgreSQL connection")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "pinging PostgreSQL")
	}

	ddl := `CREATE TABLE IF NOT EXISTS ` + table + ` (
		series TEXT,
		name TEXT,
		id TEXT,
		result TEXT,
		return_value INTEGER,
		duration DOUBLE PRECISION,
		created TIMESTAMPTZ,
		finished TIMESTAMPTZ,
		extra_json JSONB
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "creating PostgreSQL table %s", table)
	}

	return &PostgresSink{db: db, table: table}, nil
}

func (p *PostgresSink) Write(ctx context.Context, seriesLabel string, r *result.Result) error {
	extraJSON, err := json.Marshal(r.Extra)
	if err != nil {
		return errors.Wrap(err, "marshaling result extras for PostgreSQL export")
	}

	_, err = sqlf.InsertInto(p.table).
		Set("series", seriesLabel).
		Set("name", r.Name).
		Set("id", r.ID).
		Set("result", r.Result).
		Set("return_value", r.ReturnValue).
		Set("duration", r.DurationSec).
		Set("created", r.Created).
		Set("finished", r.Finished).
		Set("extra_json", string(extraJSON)).
		ExecAndClose(ctx, p.db)
	if err != nil {
		return errors.Wrapf(err, "inserting result %s into PostgreSQL table %s", r.ID, p.table)
	}
	return nil
}

func (p *PostgresSink) Close() error {
	return p.db.Close()
}
