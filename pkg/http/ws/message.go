package ws

import "encoding/json"

// MessageType constants for the live play WebSocket protocol.
const (
	// Client -> Server
	TypeJoinSession    = "join_session"
	TypeNextQuestion   = "next_question"
	TypeSubmitAnswer   = "submit_answer"
	TypeRestartSession = "restart_session"
	TypeResetSession   = "reset_session"
	TypeLeaveSession   = "leave_session"

	// Server -> Client
	TypeSessionState      = "session_state"
	TypeQuestion          = "question"
	TypeAnswerResult      = "answer_result"
	TypeLeaderboardUpdate = "leaderboard_update"
	TypeError             = "error"
	TypePing              = "ping"
	TypePong              = "pong"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	RequestID string          `json:"request_id,omitempty"`
}

// Client Messages (incoming)

type JoinSessionPayload struct {
	SessionID string `json:"session_id"`
}

type NextQuestionPayload struct {
	SessionID string `json:"session_id"`
}

type SubmitAnswerPayload struct {
	SessionID   string      `json:"session_id"`
	QuestionID  string      `json:"question_id"`
	Token       string      `json:"token"`
	OptionIndex *int        `json:"option_index,omitempty"`
	Tap         *TapPayload `json:"tap,omitempty"`
}

// TapPayload carries a map click for map-tap questions. RenderedCodes
// and Screen come from the client renderer and feed the hit test's
// fallback rules.
type TapPayload struct {
	Lng           float64        `json:"lng"`
	Lat           float64        `json:"lat"`
	RenderedCodes []string       `json:"rendered_codes,omitempty"`
	Screen        *ScreenPayload `json:"screen,omitempty"`
}

// ScreenPayload is the target bbox and click position projected into
// screen pixels by the client camera.
type ScreenPayload struct {
	TargetMinX float64 `json:"target_min_x"`
	TargetMinY float64 `json:"target_min_y"`
	TargetMaxX float64 `json:"target_max_x"`
	TargetMaxY float64 `json:"target_max_y"`
	ClickX     float64 `json:"click_x"`
	ClickY     float64 `json:"click_y"`
}

type RestartSessionPayload struct {
	SessionID string `json:"session_id"`
}

type ResetSessionPayload struct {
	SessionID string `json:"session_id"`
}

type LeaveSessionPayload struct {
	SessionID string `json:"session_id"`
}

// Server Messages (outgoing)

// SessionStatePayload mirrors the scoreboard after any mutation. Every
// device joined to the session receives it.
type SessionStatePayload struct {
	SessionID      string `json:"session_id"`
	Score          int    `json:"score"`
	HighScore      int    `json:"high_score"`
	Streak         int    `json:"streak"`
	BestStreak     int    `json:"best_streak"`
	Hearts         int    `json:"hearts"`
	Level          int    `json:"level"`
	CorrectInLevel int    `json:"correct_in_level"`
	GameOver       bool   `json:"game_over"`
}

// QuestionPayload is the client-facing half of a question. The correct
// answer never travels; the token must be echoed on submit.
type QuestionPayload struct {
	SessionID   string    `json:"session_id"`
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Prompt      string    `json:"prompt"`
	Options     []string  `json:"options,omitempty"`
	OptionCodes []string  `json:"option_codes,omitempty"`
	TargetCode  string    `json:"target_code,omitempty"`
	TargetBBox  []float64 `json:"target_bbox,omitempty"` // west, south, east, north
	Highlight   []string  `json:"highlight,omitempty"`
	Asset       string    `json:"asset,omitempty"`
	Token       string    `json:"token"`
}

type AnswerResultPayload struct {
	SessionID    string `json:"session_id"`
	QuestionID   string `json:"question_id"`
	Correct      bool   `json:"correct"`
	CorrectIndex int    `json:"correct_index"`
	CorrectValue string `json:"correct_value,omitempty"`
	Points       int    `json:"points"`
	LeveledUp    bool   `json:"leveled_up"`
	HeartGained  bool   `json:"heart_gained"`
	HeartLost    bool   `json:"heart_lost"`
	GameOver     bool   `json:"game_over"`
	NewHighScore bool   `json:"new_high_score"`
}

type LeaderboardUpdatePayload struct {
	Window    string             `json:"window"`
	Top       []LeaderboardEntry `json:"top"`
	UpdatedAt string             `json:"updated_at"`
}

type LeaderboardEntry struct {
	Rank        int     `json:"rank"`
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	Score       int     `json:"score"`
	Games       int     `json:"games"`
	BestStreak  int     `json:"best_streak"`
	Accuracy    float64 `json:"accuracy"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
