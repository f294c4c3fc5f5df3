package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"provincie-quiz-service/internal/domain"
)

// ResultWriter appends finished map phase results to the phase_results audit
// table. Insert-only; rows are kept for later inspection, never read by the
// quiz itself.
type ResultWriter struct {
	pool *pgxpool.Pool
}

func NewResultWriter(pool *pgxpool.Pool) *ResultWriter {
	return &ResultWriter{pool: pool}
}

func (w *ResultWriter) WritePhaseResult(ctx context.Context, sessionID string, res domain.PhaseResult) error {
	results, err := json.Marshal(res.Results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	_, err = w.pool.Exec(ctx,
		`INSERT INTO phase_results (session_id, phase, earned, possible, results) VALUES ($1, $2, $3, $4, $5)`,
		sessionID, string(res.Phase), res.Earned, res.Possible, results)
	if err != nil {
		return fmt.Errorf("insert phase result: %w", err)
	}
	return nil
}
