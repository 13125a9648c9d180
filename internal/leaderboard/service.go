package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	ws "github.com/mapstreak/geoquiz/pkg/http/ws"
)

// Supported leaderboard windows.
const (
	WindowDaily   = "daily"
	WindowWeekly  = "weekly"
	WindowMonthly = "monthly"
	WindowAllTime = "all_time"
)

var defaultWindows = []string{WindowDaily, WindowWeekly, WindowMonthly, WindowAllTime}

// Entry represents a leaderboard record sent to clients. Score is the
// player's best finished run inside the window.
type Entry struct {
	UserID        uuid.UUID `json:"user_id"`
	DisplayName   string    `json:"display_name"`
	Score         int       `json:"score"`
	Games         int       `json:"games"`
	BestStreak    int       `json:"best_streak"`
	Accuracy      float64   `json:"accuracy"`
	CorrectTotal  int       `json:"-"`
	QuestionTotal int       `json:"-"`
}

// RecordRequest captures one finished run for the leaderboard aggregates.
type RecordRequest struct {
	UserID        uuid.UUID
	DisplayName   string
	Score         int
	BestStreak    int
	Level         int
	CorrectCount  int
	QuestionCount int
	SessionID     uuid.UUID
	Windows       []string
	Eligible      bool
}

// ServiceOptions configures leaderboard service behavior.
type ServiceOptions struct {
	TopN           int
	PubSubChannel  string
	Windows        []string
	RedisKeyPrefix string
}

// Service manages leaderboard state in Redis and emits updates over Pub/Sub.
type Service struct {
	redis         *redis.Client
	logger        zerolog.Logger
	topN          int
	pubsubChannel string
	windows       []string
	prefix        string
}

// NewService constructs a leaderboard service instance.
func NewService(redis *redis.Client, logger zerolog.Logger, opts ServiceOptions) *Service {
	topN := opts.TopN
	if topN <= 0 {
		topN = 50
	}
	channel := opts.PubSubChannel
	if channel == "" {
		channel = "lb:updates"
	}
	windows := opts.Windows
	if len(windows) == 0 {
		windows = defaultWindows
	}
	prefix := opts.RedisKeyPrefix
	if prefix == "" {
		prefix = "lb"
	}

	return &Service{
		redis:         redis,
		logger:        logger.With().Str("component", "leaderboard").Logger(),
		topN:          topN,
		pubsubChannel: channel,
		windows:       windows,
		prefix:        prefix,
	}
}

// Windows lists the windows this service maintains.
func (s *Service) Windows() []string {
	return s.windows
}

// RecordResult folds one finished run into every applicable window. The
// ranking keeps the best run per player (ZADD GT), while the meta hash
// accumulates games and accuracy totals.
func (s *Service) RecordResult(ctx context.Context, req RecordRequest) error {
	if !req.Eligible {
		return nil
	}

	windows := req.Windows
	if len(windows) == 0 {
		windows = s.windows
	}

	now := time.Now().UTC()
	for _, window := range windows {
		if err := s.updateWindow(ctx, window, now, req); err != nil {
			return err
		}
	}

	// Publish aggregate update for WebSocket consumers.
	go s.publishUpdate(context.Background(), windows)
	return nil
}

// Top retrieves the top N entries for a given window.
func (s *Service) Top(ctx context.Context, window string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > s.topN {
		limit = s.topN
	}

	now := time.Now().UTC()
	zKey := s.rankKey(window, now)
	results, err := s.redis.ZRevRangeWithScores(ctx, zKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(results))
	for _, z := range results {
		meta, err := s.readMeta(ctx, window, now, z.Member.(string))
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to read leaderboard metadata")
			continue
		}
		meta.Score = int(z.Score)
		entries = append(entries, *meta)
	}
	return entries, nil
}

func (s *Service) updateWindow(ctx context.Context, window string, now time.Time, req RecordRequest) error {
	zKey := s.rankKey(window, now)
	metaKey := s.metaKey(window, now, req.UserID)

	// Best-streak keeps its maximum across runs; a plain HSET would
	// clobber it, so read first. Finalize runs under the session lock,
	// so concurrent writes for one player do not happen in practice.
	prevStreak := 0
	if raw, err := s.redis.HGet(ctx, metaKey, "best_streak").Result(); err == nil {
		prevStreak = parseInt(raw)
	}

	fields := map[string]interface{}{
		"display_name": req.DisplayName,
	}
	if req.BestStreak > prevStreak {
		fields["best_streak"] = req.BestStreak
	}

	pipe := s.redis.TxPipeline()
	pipe.ZAddGT(ctx, zKey, redis.Z{Score: float64(req.Score), Member: req.UserID.String()})
	pipe.HIncrBy(ctx, metaKey, "games", 1)
	pipe.HIncrBy(ctx, metaKey, "correct", int64(req.CorrectCount))
	pipe.HIncrBy(ctx, metaKey, "questions", int64(req.QuestionCount))
	pipe.HSet(ctx, metaKey, fields)
	if ttl := retention(window); ttl > 0 {
		pipe.Expire(ctx, zKey, ttl)
		pipe.Expire(ctx, metaKey, ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update leaderboard window %s: %w", window, err)
	}
	return nil
}

func (s *Service) publishUpdate(ctx context.Context, windows []string) {
	for _, window := range windows {
		entries, err := s.Top(ctx, window, 10)
		if err != nil {
			s.logger.Warn().Err(err).Str("window", window).Msg("failed to collect leaderboard update")
			continue
		}
		if len(entries) == 0 {
			continue
		}

		payload := ws.LeaderboardUpdatePayload{
			Window:    window,
			Top:       toWSEntries(entries),
			UpdatedAt: time.Now().UTC().Format(time.RFC3339),
		}
		data, err := json.Marshal(payload)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to marshal leaderboard update")
			continue
		}
		if err := s.redis.Publish(ctx, s.pubsubChannel, data).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish leaderboard update")
		}
	}
}

func (s *Service) readMeta(ctx context.Context, window string, now time.Time, userIDStr string) (*Entry, error) {
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("parse member id: %w", err)
	}

	metaKey := s.metaKey(window, now, userID)
	data, err := s.redis.HGetAll(ctx, metaKey).Result()
	if err != nil {
		return nil, err
	}

	entry := &Entry{UserID: userID}
	if len(data) == 0 {
		// No metadata yet; fallback minimal entry.
		return entry, nil
	}

	entry.DisplayName = data["display_name"]
	entry.Games = parseInt(data["games"])
	entry.BestStreak = parseInt(data["best_streak"])
	entry.CorrectTotal = parseInt(data["correct"])
	entry.QuestionTotal = parseInt(data["questions"])
	if entry.QuestionTotal > 0 {
		entry.Accuracy = float64(entry.CorrectTotal) / float64(entry.QuestionTotal)
	}
	return entry, nil
}

func (s *Service) rankKey(window string, now time.Time) string {
	if bucket := windowBucket(window, now); bucket != "" {
		return fmt.Sprintf("%s:%s:%s", s.prefix, window, bucket)
	}
	return fmt.Sprintf("%s:%s", s.prefix, window)
}

func (s *Service) metaKey(window string, now time.Time, userID uuid.UUID) string {
	return fmt.Sprintf("%s:meta:%s", s.rankKey(window, now), userID.String())
}

// windowBucket names the current period of a rolling window, so daily
// boards restart at midnight UTC instead of decaying in place.
func windowBucket(window string, now time.Time) string {
	switch window {
	case WindowDaily:
		return now.Format("2006-01-02")
	case WindowWeekly:
		year, week := now.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case WindowMonthly:
		return now.Format("2006-01")
	default:
		return ""
	}
}

// retention keeps expired buckets around long enough for snapshots and
// "yesterday" views before Redis reclaims them.
func retention(window string) time.Duration {
	switch window {
	case WindowDaily:
		return 48 * time.Hour
	case WindowWeekly:
		return 14 * 24 * time.Hour
	case WindowMonthly:
		return 62 * 24 * time.Hour
	default:
		return 0
	}
}

func parseInt(val string) int {
	if val == "" {
		return 0
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return i
}
