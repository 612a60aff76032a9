package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/dealhaus/deal-server-go/internal/game"
)

// MatchResult is the persisted outcome of a finished game.
type MatchResult struct {
	GameID    string
	WinnerID  string
	TurnCount int
	StartedAt time.Time
}

// MatchRepository stores finished matches, their logs, and their replays.
type MatchRepository struct {
	db *DB
}

func NewMatchRepository(db *DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// SaveResult records a finished match and its chronological log.
func (r *MatchRepository) SaveResult(ctx context.Context, result MatchResult, log []game.LogEntry) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
INSERT INTO matches (game_id, winner_id, turn_count, started_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (game_id) DO NOTHING`,
		result.GameID, result.WinnerID, result.TurnCount, result.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}

	for i, entry := range log {
		_, err = tx.Exec(ctx, `
INSERT INTO match_logs (game_id, seq, logged_at, entry)
VALUES ($1, $2, $3, $4)
ON CONFLICT (game_id, seq) DO NOTHING`,
			result.GameID, i, entry.Timestamp, entry.Text)
		if err != nil {
			return fmt.Errorf("failed to insert log entry %d: %w", i, err)
		}
	}

	return tx.Commit(ctx)
}

// SaveReplay stores the serialized replay blob for a finished match.
func (r *MatchRepository) SaveReplay(ctx context.Context, gameID string, data []byte) error {
	_, err := r.db.pool.Exec(ctx, `
INSERT INTO match_replays (game_id, data)
VALUES ($1, $2)
ON CONFLICT (game_id) DO UPDATE SET data = EXCLUDED.data, saved_at = now()`,
		gameID, data)
	if err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}
	return nil
}

// LoadReplay fetches a stored replay blob.
func (r *MatchRepository) LoadReplay(ctx context.Context, gameID string) ([]byte, error) {
	var data []byte
	err := r.db.pool.QueryRow(ctx,
		`SELECT data FROM match_replays WHERE game_id = $1`, gameID).Scan(&data)
	if err != nil {
		return nil, fmt.Errorf("failed to load replay for %s: %w", gameID, err)
	}
	return data, nil
}
