package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mapstreak/geoquiz/internal/engine"
	"github.com/mapstreak/geoquiz/internal/session"
)

// SessionRepository persists session checkpoints so a run outlives the
// Redis TTL. It satisfies session.SnapshotStore.
type SessionRepository struct {
	db DB
}

var _ session.SnapshotStore = (*SessionRepository)(nil)

// NewSessionRepository creates a session snapshot repository.
func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// SaveSnapshot upserts the checkpoint row for one session.
func (r *SessionRepository) SaveSnapshot(ctx context.Context, snap session.Snapshot) error {
	stateJSON, err := json.Marshal(snap.State)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO session_snapshots
			(session_id, user_id, display_name, guest, mode, state, answered, correct, started_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (session_id) DO UPDATE SET
			state = EXCLUDED.state,
			answered = EXCLUDED.answered,
			correct = EXCLUDED.correct,
			updated_at = EXCLUDED.updated_at`,
		snap.SessionID, snap.UserID, snap.DisplayName, snap.Guest, string(snap.Mode),
		stateJSON, snap.Answered, snap.Correct, snap.StartedAt, snap.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save session snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the player's most recently updated checkpoint,
// or nil when they have none.
func (r *SessionRepository) LatestSnapshot(ctx context.Context, userID uuid.UUID) (*session.Snapshot, error) {
	row := r.db.QueryRow(ctx, `
		SELECT session_id, user_id, display_name, guest, mode, state, answered, correct, started_at, updated_at
		FROM session_snapshots
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT 1`, userID)

	var (
		snap      session.Snapshot
		mode      string
		stateJSON []byte
	)
	err := row.Scan(&snap.SessionID, &snap.UserID, &snap.DisplayName, &snap.Guest, &mode,
		&stateJSON, &snap.Answered, &snap.Correct, &snap.StartedAt, &snap.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session snapshot: %w", err)
	}

	snap.Mode = engine.ScoreMode(mode)
	snap.State = &engine.State{}
	if err := json.Unmarshal(stateJSON, snap.State); err != nil {
		return nil, fmt.Errorf("decode session state: %w", err)
	}
	return &snap, nil
}
