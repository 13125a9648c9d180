package repository

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapstreak/geoquiz/internal/engine"
	"github.com/mapstreak/geoquiz/internal/leaderboard"
	"github.com/mapstreak/geoquiz/internal/session"
)

// fakeDB records executed statements and replays canned rows, so the
// repositories can be exercised without a live Postgres.
type fakeDB struct {
	execSQL  []string
	execArgs [][]any
	row      pgx.Row
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = append(f.execSQL, sql)
	f.execArgs = append(f.execArgs, args)
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return f.row
}

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i := range dest {
		dv := reflect.ValueOf(dest[i]).Elem()
		if r.vals[i] == nil {
			dv.Set(reflect.Zero(dv.Type()))
			continue
		}
		dv.Set(reflect.ValueOf(r.vals[i]))
	}
	return nil
}

func TestUserRepositoryCreateUserDefaults(t *testing.T) {
	now := time.Now().UTC()
	email := "ace@example.com"
	db := &fakeDB{row: fakeRow{vals: []any{
		uuid.New(), &email, nil, "Ace", "registered", []byte(`{}`), now, nil,
	}}}
	repo := NewUserRepository(db)

	u, err := repo.CreateUser(context.Background(), CreateUserParams{
		Email:       &email,
		DisplayName: "Ace",
		UserType:    "registered",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ace", u.DisplayName)
	require.NotNil(t, u.Email)
	assert.Equal(t, email, *u.Email)
	assert.Nil(t, u.PasswordHash)
}

func TestUserRepositoryNotFound(t *testing.T) {
	db := &fakeDB{row: fakeRow{err: pgx.ErrNoRows}}
	repo := NewUserRepository(db)

	_, err := repo.GetByEmail(context.Background(), "missing@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionRepositoryStateRoundTrip(t *testing.T) {
	st := engine.NewState()
	st.Score = 420
	st.Level = 3
	st.Mastery["FR"] = 2

	snap := session.Snapshot{
		SessionID:   uuid.New(),
		UserID:      uuid.New(),
		DisplayName: "Ace",
		Mode:        engine.ModeClassic,
		State:       st,
		Answered:    12,
		Correct:     9,
		StartedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	db := &fakeDB{}
	repo := NewSessionRepository(db)
	require.NoError(t, repo.SaveSnapshot(context.Background(), snap))
	require.Len(t, db.execArgs, 1)

	// The state argument must decode back into the same progression
	// values the session layer wrote.
	stateJSON, ok := db.execArgs[0][5].([]byte)
	require.True(t, ok)
	var decoded engine.State
	require.NoError(t, json.Unmarshal(stateJSON, &decoded))
	assert.Equal(t, 420, decoded.Score)
	assert.Equal(t, 3, decoded.Level)
	assert.Equal(t, 2, decoded.Mastery["FR"])

	// Replaying the stored row through LatestSnapshot restores it.
	db.row = fakeRow{vals: []any{
		snap.SessionID, snap.UserID, snap.DisplayName, snap.Guest, string(snap.Mode),
		stateJSON, snap.Answered, snap.Correct, snap.StartedAt, snap.UpdatedAt,
	}}
	got, err := repo.LatestSnapshot(context.Background(), snap.UserID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, snap.SessionID, got.SessionID)
	assert.Equal(t, 420, got.State.Score)
	assert.Equal(t, engine.ModeClassic, got.Mode)
}

func TestSessionRepositoryLatestSnapshotNone(t *testing.T) {
	db := &fakeDB{row: fakeRow{err: pgx.ErrNoRows}}
	repo := NewSessionRepository(db)

	got, err := repo.LatestSnapshot(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLeaderboardRepositorySkipsUnchangedSnapshot(t *testing.T) {
	prev := leaderboard.Snapshot{
		Window:      leaderboard.WindowDaily,
		GeneratedAt: time.Now().UTC().Add(-time.Hour),
		Entries:     []byte(`[]`),
		SourceHash:  "abc",
	}
	db := &fakeDB{row: fakeRow{vals: []any{prev.Window, prev.GeneratedAt, prev.Entries, prev.SourceHash}}}
	repo := NewLeaderboardRepository(db)

	next := prev
	next.GeneratedAt = time.Now().UTC()
	require.NoError(t, repo.InsertSnapshot(context.Background(), next))
	assert.Empty(t, db.execSQL, "identical board must not be inserted again")

	next.SourceHash = "def"
	require.NoError(t, repo.InsertSnapshot(context.Background(), next))
	assert.Len(t, db.execSQL, 1)
}
