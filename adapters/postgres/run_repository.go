// Package postgres persists completed run summaries. Persistence is
// optional and happens once per run, after TERMINATED; nothing touches the
// database mid-chain.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"goebm/domain/core"
	"goebm/domain/ebm"
	"goebm/internal/errors"
	"goebm/ports"
)

// RunRepositoryImpl implements ports.RunRepository for PostgreSQL
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a new PostgreSQL run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

// Schema is the table this repository expects; callers run it at startup.
const Schema = `
CREATE TABLE IF NOT EXISTS ebm_runs (
	id                    TEXT PRIMARY KEY,
	algorithm             TEXT NOT NULL,
	n_iter                INTEGER NOT NULL,
	n_shuffle             INTEGER NOT NULL,
	burn_in               INTEGER NOT NULL,
	thinning              INTEGER NOT NULL,
	seed                  BIGINT NOT NULL,
	most_likely_order     JSONB NOT NULL,
	highest_ll_order      JSONB NOT NULL,
	kendalls_tau          DOUBLE PRECISION,
	p_value               DOUBLE PRECISION,
	kendalls_tau2         DOUBLE PRECISION,
	p_value2              DOUBLE PRECISION,
	acceptance_rate       DOUBLE PRECISION NOT NULL,
	final_log_likelihood  DOUBLE PRECISION NOT NULL,
	degenerate_fallbacks  INTEGER NOT NULL,
	instability_count     INTEGER NOT NULL,
	created_at            TIMESTAMPTZ NOT NULL
)`

type runRow struct {
	ID                  string          `db:"id"`
	Algorithm           string          `db:"algorithm"`
	NIter               int             `db:"n_iter"`
	NShuffle            int             `db:"n_shuffle"`
	BurnIn              int             `db:"burn_in"`
	Thinning            int             `db:"thinning"`
	Seed                int64           `db:"seed"`
	MostLikelyOrder     json.RawMessage `db:"most_likely_order"`
	HighestLLOrder      json.RawMessage `db:"highest_ll_order"`
	KendallsTau         sql.NullFloat64 `db:"kendalls_tau"`
	PValue              sql.NullFloat64 `db:"p_value"`
	KendallsTau2        sql.NullFloat64 `db:"kendalls_tau2"`
	PValue2             sql.NullFloat64 `db:"p_value2"`
	AcceptanceRate      float64         `db:"acceptance_rate"`
	FinalLogLikelihood  float64         `db:"final_log_likelihood"`
	DegenerateFallbacks int             `db:"degenerate_fallbacks"`
	InstabilityCount    int             `db:"instability_count"`
	CreatedAt           time.Time       `db:"created_at"`
}

// SaveRun inserts a completed run summary.
func (r *RunRepositoryImpl) SaveRun(ctx context.Context, result *ebm.RunResult) error {
	mostLikely, err := json.Marshal(result.MostLikelyOrder)
	if err != nil {
		return errors.Wrap(err, "encoding most likely order")
	}
	highestLL, err := json.Marshal(result.MaxLikelihoodOrder)
	if err != nil {
		return errors.Wrap(err, "encoding highest-ll order")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO ebm_runs (id, algorithm, n_iter, n_shuffle, burn_in, thinning, seed,
			most_likely_order, highest_ll_order, kendalls_tau, p_value, kendalls_tau2, p_value2,
			acceptance_rate, final_log_likelihood, degenerate_fallbacks, instability_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`, result.ID.String(), result.Algorithm, result.NIter, result.NShuffle, result.BurnIn,
		result.Thinning, result.Seed, mostLikely, highestLL,
		nullTau(result.MostLikelyTau), nullP(result.MostLikelyTau),
		nullTau(result.MaxLikelihoodTau), nullP(result.MaxLikelihoodTau),
		result.AcceptanceRate, result.FinalLogLikelihood,
		result.DegenerateFallbacks, result.InstabilityCount, result.CreatedAt.Time())

	if err != nil {
		return errors.Wrap(errors.DatabaseError(err.Error()), "saving run")
	}
	return nil
}

// GetRun retrieves a run summary by ID.
func (r *RunRepositoryImpl) GetRun(ctx context.Context, id core.RunID) (*ebm.RunResult, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, algorithm, n_iter, n_shuffle, burn_in, thinning, seed,
			most_likely_order, highest_ll_order, kendalls_tau, p_value, kendalls_tau2, p_value2,
			acceptance_rate, final_log_likelihood, degenerate_fallbacks, instability_count, created_at
		FROM ebm_runs WHERE id = $1
	`, id.String())
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("run " + id.String())
	}
	if err != nil {
		return nil, errors.Wrap(errors.DatabaseError(err.Error()), "loading run")
	}
	return row.toResult()
}

// ListRuns returns the most recent run summaries.
func (r *RunRepositoryImpl) ListRuns(ctx context.Context, limit int) ([]*ebm.RunResult, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []runRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, algorithm, n_iter, n_shuffle, burn_in, thinning, seed,
			most_likely_order, highest_ll_order, kendalls_tau, p_value, kendalls_tau2, p_value2,
			acceptance_rate, final_log_likelihood, degenerate_fallbacks, instability_count, created_at
		FROM ebm_runs ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, errors.Wrap(errors.DatabaseError(err.Error()), "listing runs")
	}

	results := make([]*ebm.RunResult, 0, len(rows))
	for _, row := range rows {
		result, err := row.toResult()
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (row runRow) toResult() (*ebm.RunResult, error) {
	result := &ebm.RunResult{
		ID:                  core.RunID(row.ID),
		Algorithm:           row.Algorithm,
		NIter:               row.NIter,
		NShuffle:            row.NShuffle,
		BurnIn:              row.BurnIn,
		Thinning:            row.Thinning,
		Seed:                row.Seed,
		AcceptanceRate:      row.AcceptanceRate,
		FinalLogLikelihood:  row.FinalLogLikelihood,
		DegenerateFallbacks: row.DegenerateFallbacks,
		InstabilityCount:    row.InstabilityCount,
		CreatedAt:           core.NewTimestamp(row.CreatedAt),
	}
	if err := json.Unmarshal(row.MostLikelyOrder, &result.MostLikelyOrder); err != nil {
		return nil, errors.Wrap(err, "decoding most likely order")
	}
	if err := json.Unmarshal(row.HighestLLOrder, &result.MaxLikelihoodOrder); err != nil {
		return nil, errors.Wrap(err, "decoding highest-ll order")
	}
	if row.KendallsTau.Valid {
		result.MostLikelyTau = &ebm.TauResult{Tau: row.KendallsTau.Float64, PValue: row.PValue.Float64}
	}
	if row.KendallsTau2.Valid {
		result.MaxLikelihoodTau = &ebm.TauResult{Tau: row.KendallsTau2.Float64, PValue: row.PValue2.Float64}
	}
	return result, nil
}

func nullTau(t *ebm.TauResult) sql.NullFloat64 {
	if t == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: t.Tau, Valid: true}
}

func nullP(t *ebm.TauResult) sql.NullFloat64 {
	if t == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: t.PValue, Valid: true}
}
