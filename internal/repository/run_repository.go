package repository

import (
	"context"
	"encoding/json"

	"github.com/AbdallahIsmaili/DeepBTC/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

const createFeatureRunsTable = `
CREATE TABLE IF NOT EXISTS feature_runs (
    id            BIGSERIAL   PRIMARY KEY,
    run_at        TIMESTAMPTZ NOT NULL,
    initial_rows  INTEGER     NOT NULL,
    final_rows    INTEGER     NOT NULL,
    retention_pct NUMERIC     NOT NULL,
    report        JSONB       NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_feature_runs_run_at
    ON feature_runs (run_at DESC);
`

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// RunRepository records one row per pipeline run so retention can be tracked
// across refreshes of the source tables.
type RunRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewRunRepository(pool PgxPool, tracer trace.Tracer) *RunRepository {
	return &RunRepository{pool: pool, tracer: tracer}
}

func (r *RunRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "run-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createFeatureRunsTable)
	return err
}

func (r *RunRepository) InsertRun(ctx context.Context, report *domain.RetentionReport) error {
	_, span := r.tracer.Start(ctx, "run-repo.insert-run")
	defer span.End()

	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
INSERT INTO feature_runs (run_at, initial_rows, final_rows, retention_pct, report)
VALUES ($1, $2, $3, $4, $5)`,
		report.RunAt, report.InitialRows, report.FinalRows, report.RetentionPct, payload)
	return err
}
