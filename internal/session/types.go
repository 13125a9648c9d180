package session

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mapstreak/geoquiz/internal/engine"
	"github.com/mapstreak/geoquiz/internal/geo"
)

// Sentinel errors the transport layers translate into response codes.
var (
	ErrNotFound        = errors.New("session not found")
	ErrForbidden       = errors.New("session belongs to another player")
	ErrSessionOver     = errors.New("session is over")
	ErrNotOver         = errors.New("session is not over")
	ErrQuestionExpired = errors.New("question expired")
	ErrAlreadyAnswered = errors.New("question already answered")
	ErrBadToken        = errors.New("question token mismatch")
)

// Identity is the player behind a session, extracted from JWT claims.
type Identity struct {
	UserID      uuid.UUID
	DisplayName string
	Guest       bool
}

// Session is one player's live run. It lives in Redis between requests
// and is checkpointed to Postgres at level boundaries.
type Session struct {
	ID          uuid.UUID        `json:"id"`
	UserID      uuid.UUID        `json:"user_id"`
	DisplayName string           `json:"display_name"`
	Guest       bool             `json:"guest"`
	Mode        engine.ScoreMode `json:"mode"`

	State    *engine.State         `json:"state"`
	Selector *engine.SelectorState `json:"selector"`
	Pending  *PendingQuestion      `json:"pending,omitempty"`

	// Answered and Correct count scored questions across the whole
	// session; they feed leaderboard accuracy.
	Answered int `json:"answered"`
	Correct  int `json:"correct"`

	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PendingQuestion holds the outstanding question together with the
// server-side answer fields the wire form of Question deliberately
// drops. Storing them here keeps answers verifiable after a restart of
// the process that generated the question.
type PendingQuestion struct {
	Question     *engine.Question `json:"question"`
	CorrectIndex int              `json:"correct_index"`
	AnswerValue  string           `json:"answer_value"`
	SubjectCode  string           `json:"subject_code"`
	Token        string           `json:"token"`
	IssuedAt     time.Time        `json:"issued_at"`
	Answered     bool             `json:"answered"`
}

func newPendingQuestion(q *engine.Question, token string, now time.Time) *PendingQuestion {
	return &PendingQuestion{
		Question:     q,
		CorrectIndex: q.CorrectIndex,
		AnswerValue:  q.AnswerValue,
		SubjectCode:  q.SubjectCode,
		Token:        token,
		IssuedAt:     now,
	}
}

// restore rebuilds the full question, reattaching the answer fields a
// JSON round trip through Redis strips.
func (p *PendingQuestion) restore() *engine.Question {
	q := *p.Question
	q.CorrectIndex = p.CorrectIndex
	q.AnswerValue = p.AnswerValue
	q.SubjectCode = p.SubjectCode
	return &q
}

// QuestionView is the client-facing question plus its submission token.
type QuestionView struct {
	*engine.Question
	Token string `json:"token"`
}

// View is the session as presented to the client.
type View struct {
	SessionID string           `json:"session_id"`
	Mode      engine.ScoreMode `json:"mode"`
	State     *engine.State    `json:"state"`
	Question  *QuestionView    `json:"question,omitempty"`
	StartedAt time.Time        `json:"started_at"`
}

// SubmitRequest is one answer submission. Exactly one of OptionIndex
// and Tap should be set, matching the question type.
type SubmitRequest struct {
	QuestionID  string      `json:"question_id"`
	Token       string      `json:"token"`
	OptionIndex *int        `json:"option_index,omitempty"`
	Tap         *TapRequest `json:"tap,omitempty"`
}

// TapRequest is the map click for map-tap questions.
type TapRequest struct {
	Lng           float64            `json:"lng"`
	Lat           float64            `json:"lat"`
	RenderedCodes []string           `json:"rendered_codes,omitempty"`
	Screen        *geo.ScreenContext `json:"screen,omitempty"`
}

// SubmitResult reports the evaluated answer, the progression delta and
// the state after applying it.
type SubmitResult struct {
	QuestionID   string            `json:"question_id"`
	Correct      bool              `json:"correct"`
	CorrectIndex int               `json:"correct_index"`
	CorrectValue string            `json:"correct_value,omitempty"`
	SubjectCode  string            `json:"subject_code,omitempty"`
	Transition   engine.Transition `json:"transition"`
	State        *engine.State     `json:"state"`
}

// RegionMastery summarizes long-term progress over one region.
type RegionMastery struct {
	Region    string `json:"region"`
	Countries int    `json:"countries"`
	Mastered  int    `json:"mastered"`
	Correct   int    `json:"correct"`
}

// Summary is the mastery-by-region progress view.
type Summary struct {
	SessionID  string          `json:"session_id"`
	HighScore  int             `json:"high_score"`
	BestStreak int             `json:"best_streak"`
	Level      int             `json:"level"`
	Regions    []RegionMastery `json:"regions"`
}

// Snapshot is the Postgres form of a session, written at level
// boundaries and on game over so a run survives the Redis TTL.
type Snapshot struct {
	SessionID   uuid.UUID
	UserID      uuid.UUID
	DisplayName string
	Guest       bool
	Mode        engine.ScoreMode
	State       *engine.State
	Answered    int
	Correct     int
	StartedAt   time.Time
	UpdatedAt   time.Time
}
