package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mapstreak/geoquiz/internal/leaderboard"
)

// LeaderboardRepository stores frozen top-N lists for cold-start
// fallback. It satisfies leaderboard.SnapshotStore.
type LeaderboardRepository struct {
	db DB
}

var _ leaderboard.SnapshotStore = (*LeaderboardRepository)(nil)

// NewLeaderboardRepository creates a leaderboard snapshot repository.
func NewLeaderboardRepository(db DB) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

// InsertSnapshot appends one frozen board. Identical consecutive boards
// share a source hash and are skipped to keep the table small.
func (r *LeaderboardRepository) InsertSnapshot(ctx context.Context, snap leaderboard.Snapshot) error {
	prev, err := r.LatestSnapshot(ctx, snap.Window)
	if err == nil && prev != nil && prev.SourceHash == snap.SourceHash {
		return nil
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO leaderboard_snapshots (window_name, generated_at, entries, source_hash)
		VALUES ($1, $2, $3, $4)`,
		snap.Window, snap.GeneratedAt, snap.Entries, snap.SourceHash)
	if err != nil {
		return fmt.Errorf("insert leaderboard snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the newest frozen board for a window, or nil
// when none has been taken yet.
func (r *LeaderboardRepository) LatestSnapshot(ctx context.Context, window string) (*leaderboard.Snapshot, error) {
	row := r.db.QueryRow(ctx, `
		SELECT window_name, generated_at, entries, source_hash
		FROM leaderboard_snapshots
		WHERE window_name = $1
		ORDER BY generated_at DESC
		LIMIT 1`, window)

	var snap leaderboard.Snapshot
	err := row.Scan(&snap.Window, &snap.GeneratedAt, &snap.Entries, &snap.SourceHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan leaderboard snapshot: %w", err)
	}
	return &snap, nil
}
