package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"provincie-quiz-service/internal/domain"
)

// ResultWriter keeps the last finished map phase per session under a fixed
// key, overwritten on every phase completion. It is a write-only audit trail
// for manual inspection; the quiz never reads it back.
type ResultWriter struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResultWriter(client *redis.Client, ttl time.Duration) *ResultWriter {
	return &ResultWriter{client: client, ttl: ttl}
}

func (w *ResultWriter) WritePhaseResult(ctx context.Context, sessionID string, res domain.PhaseResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return w.client.Set(ctx, w.key(sessionID), data, w.ttl).Err()
}

func (w *ResultWriter) key(sessionID string) string {
	return "quiz:lastphase:" + sessionID
}
