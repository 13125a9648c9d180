package session

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mapstreak/geoquiz/internal/engine"
	"github.com/mapstreak/geoquiz/internal/geo"
	"github.com/mapstreak/geoquiz/internal/leaderboard"
)

// SnapshotStore persists session checkpoints to durable storage.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap Snapshot) error
	LatestSnapshot(ctx context.Context, userID uuid.UUID) (*Snapshot, error)
}

// ScoreRecorder receives the final score of a finished run.
// *leaderboard.Service satisfies it.
type ScoreRecorder interface {
	RecordResult(ctx context.Context, req leaderboard.RecordRequest) error
}

// Service orchestrates live play: question issue, answer evaluation,
// progression, and persistence of the resulting state.
type Service struct {
	engine    *engine.Engine
	store     Store
	snapshots SnapshotStore
	scores    ScoreRecorder
	hmacKey   []byte
	logger    zerolog.Logger
}

// ServiceOptions configures the session service.
type ServiceOptions struct {
	HMACSecret []byte
}

// NewService creates a session service. Snapshots and scores may be nil;
// the service then runs on Redis state alone.
func NewService(eng *engine.Engine, store Store, snapshots SnapshotStore, scores ScoreRecorder, opts ServiceOptions, logger zerolog.Logger) *Service {
	return &Service{
		engine:    eng,
		store:     store,
		snapshots: snapshots,
		scores:    scores,
		hmacKey:   opts.HMACSecret,
		logger:    logger.With().Str("component", "session").Logger(),
	}
}

// Start opens a fresh run for the player and issues its first question.
func (s *Service) Start(ctx context.Context, player Identity) (*View, error) {
	now := time.Now().UTC()
	sess := &Session{
		ID:          uuid.New(),
		UserID:      player.UserID,
		DisplayName: player.DisplayName,
		Guest:       player.Guest,
		Mode:        s.engine.Mode(),
		State:       engine.NewState(),
		Selector:    engine.NewSelectorState(),
		StartedAt:   now,
		UpdatedAt:   now,
	}

	s.issueQuestion(sess, now)

	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.saveSnapshot(ctx, sess)

	s.logger.Info().
		Str("session_id", sess.ID.String()).
		Str("user_id", player.UserID.String()).
		Bool("guest", player.Guest).
		Msg("session started")

	return s.toView(sess), nil
}

// Resume returns the player's current session, falling back to the last
// Postgres checkpoint when the Redis copy has expired.
func (s *Service) Resume(ctx context.Context, player Identity) (*View, error) {
	id, ok, err := s.store.Current(ctx, player.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolve current session: %w", err)
	}
	if ok {
		sess, err := s.store.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load session: %w", err)
		}
		if sess != nil && sess.UserID == player.UserID {
			return s.toView(sess), nil
		}
	}
	return s.resumeFromSnapshot(ctx, player)
}

func (s *Service) resumeFromSnapshot(ctx context.Context, player Identity) (*View, error) {
	if s.snapshots == nil {
		return nil, ErrNotFound
	}
	snap, err := s.snapshots.LatestSnapshot(ctx, player.UserID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if snap == nil {
		return nil, ErrNotFound
	}

	now := time.Now().UTC()
	sess := &Session{
		ID:          snap.SessionID,
		UserID:      snap.UserID,
		DisplayName: snap.DisplayName,
		Guest:       snap.Guest,
		Mode:        snap.Mode,
		State:       snap.State,
		Selector:    engine.NewSelectorState(),
		Answered:    snap.Answered,
		Correct:     snap.Correct,
		StartedAt:   snap.StartedAt,
		UpdatedAt:   now,
	}
	if sess.State == nil {
		sess.State = engine.NewState()
	}
	if !sess.State.GameOver {
		s.issueQuestion(sess, now)
	}

	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.logger.Info().
		Str("session_id", sess.ID.String()).
		Str("user_id", player.UserID.String()).
		Msg("session resumed from snapshot")

	return s.toView(sess), nil
}

// ViewByID returns the current view of one session.
func (s *Service) ViewByID(ctx context.Context, userID, sessionID uuid.UUID) (*View, error) {
	sess, err := s.loadOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	return s.toView(sess), nil
}

// Next serves the outstanding question, or generates a new one once the
// previous has been answered. An unanswered question is re-served as
// is, never re-rolled.
func (s *Service) Next(ctx context.Context, userID, sessionID uuid.UUID) (*QuestionView, error) {
	unlock, err := s.store.Lock(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	defer unlock()

	sess, err := s.loadOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.State.GameOver {
		return nil, ErrSessionOver
	}

	if sess.Pending != nil && !sess.Pending.Answered {
		return questionView(sess.Pending), nil
	}

	now := time.Now().UTC()
	s.issueQuestion(sess, now)
	sess.UpdatedAt = now

	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return questionView(sess.Pending), nil
}

// Submit evaluates one answer against the outstanding question, applies
// the outcome and persists the mutated state. Game over finalizes the
// run: a last checkpoint plus a leaderboard record.
func (s *Service) Submit(ctx context.Context, userID, sessionID uuid.UUID, req SubmitRequest) (*SubmitResult, error) {
	unlock, err := s.store.Lock(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	defer unlock()

	sess, err := s.loadOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.State.GameOver {
		return nil, ErrSessionOver
	}

	p := sess.Pending
	if p == nil || p.Question == nil || p.Question.ID != req.QuestionID {
		return nil, ErrQuestionExpired
	}
	if p.Answered {
		return nil, ErrAlreadyAnswered
	}

	q := p.restore()
	if !verifyQuestionToken(s.hmacKey, q.ID, answerRef(q), req.Token) {
		return nil, ErrBadToken
	}

	out := s.engine.EvaluateAnswer(q, toEngineAnswer(req))
	tr := s.engine.ApplyOutcome(sess.State, out, q.Type)

	now := time.Now().UTC()
	p.Answered = true
	sess.UpdatedAt = now
	if q.Type != engine.TypeNoData {
		sess.Answered++
		if out.Correct {
			sess.Correct++
		}
	}

	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.logger.Info().
		Str("session_id", sess.ID.String()).
		Str("question_type", string(q.Type)).
		Bool("correct", out.Correct).
		Int("points", tr.Points).
		Bool("game_over", tr.GameOver).
		Msg("answer submitted")

	if tr.LeveledUp || tr.GameOver {
		s.saveSnapshot(ctx, sess)
	}
	if tr.GameOver {
		s.recordFinalScore(ctx, sess)
	}

	return &SubmitResult{
		QuestionID:   q.ID,
		Correct:      out.Correct,
		CorrectIndex: out.CorrectIndex,
		CorrectValue: out.CorrectValue,
		SubjectCode:  out.SubjectCode,
		Transition:   tr,
		State:        sess.State,
	}, nil
}

// Restart revives a finished run at the start of its current level and
// issues a fresh question.
func (s *Service) Restart(ctx context.Context, userID, sessionID uuid.UUID) (*View, error) {
	unlock, err := s.store.Lock(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	defer unlock()

	sess, err := s.loadOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.State.GameOver {
		return nil, ErrNotOver
	}

	engine.Restart(sess.State)

	now := time.Now().UTC()
	s.issueQuestion(sess, now)
	sess.UpdatedAt = now

	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.saveSnapshot(ctx, sess)

	s.logger.Info().Str("session_id", sess.ID.String()).Msg("session restarted")
	return s.toView(sess), nil
}

// Reset starts the run over from level one. High score, best streak and
// mastery survive; everything else returns to its starting value.
func (s *Service) Reset(ctx context.Context, userID, sessionID uuid.UUID) (*View, error) {
	unlock, err := s.store.Lock(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	defer unlock()

	sess, err := s.loadOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	engine.Reset(sess.State)
	sess.Selector = engine.NewSelectorState()
	sess.Answered = 0
	sess.Correct = 0

	now := time.Now().UTC()
	s.issueQuestion(sess, now)
	sess.UpdatedAt = now

	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.saveSnapshot(ctx, sess)

	s.logger.Info().Str("session_id", sess.ID.String()).Msg("session reset")
	return s.toView(sess), nil
}

// Summary aggregates the session's mastery counters by region.
func (s *Service) Summary(ctx context.Context, userID, sessionID uuid.UUID) (*Summary, error) {
	sess, err := s.loadOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	byRegion := s.engine.Dataset().Catalog.CodesByRegion()
	regions := make([]string, 0, len(byRegion))
	for region := range byRegion {
		regions = append(regions, region)
	}
	sort.Strings(regions)

	out := &Summary{
		SessionID:  sess.ID.String(),
		HighScore:  sess.State.HighScore,
		BestStreak: sess.State.BestStreak,
		Level:      sess.State.Level,
	}
	for _, region := range regions {
		codes := byRegion[region]
		rm := RegionMastery{Region: region, Countries: len(codes)}
		for _, code := range codes {
			if n := sess.State.Mastery[code]; n > 0 {
				rm.Mastered++
				rm.Correct += n
			}
		}
		out.Regions = append(out.Regions, rm)
	}
	return out, nil
}

func (s *Service) loadOwned(ctx context.Context, userID, sessionID uuid.UUID) (*Session, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		return nil, ErrNotFound
	}
	if sess.UserID != userID {
		return nil, ErrForbidden
	}
	return sess, nil
}

func (s *Service) issueQuestion(sess *Session, now time.Time) {
	q := s.engine.NextQuestion(sess.State, sess.Selector)
	token := signQuestionToken(s.hmacKey, q.ID, answerRef(q))
	sess.Pending = newPendingQuestion(q, token, now)
}

// saveSnapshot checkpoints the session to durable storage. Best effort:
// the run continues on the Redis copy alone if the write fails.
func (s *Service) saveSnapshot(ctx context.Context, sess *Session) {
	if s.snapshots == nil {
		return
	}
	snap := Snapshot{
		SessionID:   sess.ID,
		UserID:      sess.UserID,
		DisplayName: sess.DisplayName,
		Guest:       sess.Guest,
		Mode:        sess.Mode,
		State:       sess.State,
		Answered:    sess.Answered,
		Correct:     sess.Correct,
		StartedAt:   sess.StartedAt,
		UpdatedAt:   sess.UpdatedAt,
	}
	if err := s.snapshots.SaveSnapshot(ctx, snap); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sess.ID.String()).Msg("failed to persist session snapshot")
	}
}

// recordFinalScore feeds the finished run into the leaderboard. Guest
// runs stay off the boards.
func (s *Service) recordFinalScore(ctx context.Context, sess *Session) {
	if s.scores == nil || sess.Guest {
		return
	}
	req := leaderboard.RecordRequest{
		UserID:        sess.UserID,
		DisplayName:   sess.DisplayName,
		Score:         sess.State.Score,
		BestStreak:    sess.State.BestStreak,
		Level:         sess.State.Level,
		CorrectCount:  sess.Correct,
		QuestionCount: sess.Answered,
		SessionID:     sess.ID,
		Eligible:      true,
	}
	if err := s.scores.RecordResult(ctx, req); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sess.ID.String()).Msg("failed to record leaderboard result")
	}
}

func (s *Service) toView(sess *Session) *View {
	v := &View{
		SessionID: sess.ID.String(),
		Mode:      sess.Mode,
		State:     sess.State,
		StartedAt: sess.StartedAt,
	}
	if sess.Pending != nil && !sess.Pending.Answered && !sess.State.GameOver {
		v.Question = questionView(sess.Pending)
	}
	return v
}

func questionView(p *PendingQuestion) *QuestionView {
	return &QuestionView{Question: p.Question, Token: p.Token}
}

func toEngineAnswer(req SubmitRequest) engine.Answer {
	ans := engine.Answer{OptionIndex: -1}
	if req.OptionIndex != nil {
		ans.OptionIndex = *req.OptionIndex
	}
	if req.Tap != nil {
		ans.Tap = &geo.Tap{
			Lng:           req.Tap.Lng,
			Lat:           req.Tap.Lat,
			RenderedCodes: req.Tap.RenderedCodes,
			Screen:        req.Tap.Screen,
		}
	}
	return ans
}
