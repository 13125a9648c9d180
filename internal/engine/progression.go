package engine

import "math"

// ScoreMode selects how aggressively streaks amplify points.
type ScoreMode string

const (
	// ModeClassic grows the streak multiplier by 10% per consecutive
	// correct answer.
	ModeClassic ScoreMode = "classic"
	// ModeArcade doubles the streak growth for faster, riskier runs.
	ModeArcade ScoreMode = "arcade"
)

func (m ScoreMode) streakStep() float64 {
	if m == ModeArcade {
		return 0.2
	}
	return 0.1
}

const (
	// MaxHearts is the heart cap for a run.
	MaxHearts = 3

	correctPerLevel     = 5
	streakHeartEvery    = 5
	levelMultiplierStep = 0.2
)

// State is the mutable progress of one play session. All fields are
// exported and JSON-tagged so the session layer can persist the whole
// thing as a single blob.
type State struct {
	Score          int             `json:"score"`
	HighScore      int             `json:"high_score"`
	Streak         int             `json:"streak"`
	BestStreak     int             `json:"best_streak"`
	Hearts         int             `json:"hearts"`
	Level          int             `json:"level"`
	CorrectInLevel int             `json:"correct_in_level"`

	// LevelStartScore is the score held when the current level began.
	// Restart rolls the score back to it.
	LevelStartScore int `json:"level_start_score"`
	Mastery        map[string]int  `json:"mastery"`
	Completed      map[string]bool `json:"completed"`
	GameOver       bool            `json:"game_over"`
}

// NewState returns the starting state for a fresh run.
func NewState() *State {
	return &State{
		Hearts:    MaxHearts,
		Level:     1,
		Mastery:   make(map[string]int),
		Completed: make(map[string]bool),
	}
}

// Transition reports what changed when an answer was applied.
type Transition struct {
	Points       int  `json:"points"`
	LeveledUp    bool `json:"leveled_up"`
	HeartGained  bool `json:"heart_gained"`
	HeartLost    bool `json:"heart_lost"`
	GameOver     bool `json:"game_over"`
	NewHighScore bool `json:"new_high_score"`
}

// CompletedKey identifies a (type, subject) combination a player has
// already answered correctly, so the selector can avoid repeats.
func CompletedKey(t QuestionType, code string) string {
	return string(t) + "-" + code
}

// Apply mutates st with the result of one answer and returns the
// transition. Once a run is over further answers are ignored.
//
// Points use the streak count from before this answer, so the first
// correct answer of a run is worth exactly the base value.
func Apply(st *State, correct bool, qt QuestionType, subjectCode string, mode ScoreMode) Transition {
	var tr Transition
	if st.GameOver {
		tr.GameOver = true
		return tr
	}

	if st.Mastery == nil {
		st.Mastery = make(map[string]int)
	}
	if st.Completed == nil {
		st.Completed = make(map[string]bool)
	}

	if correct {
		streakMult := 1 + float64(st.Streak)*mode.streakStep()
		levelMult := 1 + float64(st.Level-1)*levelMultiplierStep
		tr.Points = int(math.Round(float64(BasePoints(qt)) * streakMult * levelMult))

		st.Score += tr.Points
		if st.Score > st.HighScore {
			st.HighScore = st.Score
			tr.NewHighScore = true
		}

		st.Streak++
		if st.Streak > st.BestStreak {
			st.BestStreak = st.Streak
		}
		if st.Streak%streakHeartEvery == 0 && st.Hearts < MaxHearts {
			st.Hearts++
			tr.HeartGained = true
		}

		st.CorrectInLevel++
		if st.CorrectInLevel >= correctPerLevel {
			st.Level++
			st.CorrectInLevel = 0
			st.LevelStartScore = st.Score
			tr.LeveledUp = true
			if st.Hearts < MaxHearts {
				st.Hearts++
				tr.HeartGained = true
			}
		}

		if subjectCode != "" {
			st.Mastery[subjectCode]++
		}
	} else {
		st.Streak = 0
		st.CorrectInLevel = 0
		if st.Hearts > 0 {
			st.Hearts--
			tr.HeartLost = true
		}
		if st.Hearts == 0 {
			st.GameOver = true
			tr.GameOver = true
		}
	}

	if subjectCode != "" {
		st.Completed[CompletedKey(qt, subjectCode)] = true
	}
	return tr
}

// Restart revives a finished run at the start of its current level.
// Hearts refill, the streak and in-level progress reset, and the score
// rolls back to its level-start value. Level, mastery and the
// completed set survive.
func Restart(st *State) {
	st.Hearts = MaxHearts
	st.GameOver = false
	st.Streak = 0
	st.CorrectInLevel = 0
	st.Score = st.LevelStartScore
}

// Reset begins an entirely new run. High score, best streak and
// mastery counters are lifetime values and carry over.
func Reset(st *State) {
	st.Score = 0
	st.Streak = 0
	st.Hearts = MaxHearts
	st.Level = 1
	st.CorrectInLevel = 0
	st.LevelStartScore = 0
	st.Completed = make(map[string]bool)
	st.GameOver = false
}
