package engine

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mapstreak/geoquiz/internal/geo"
)

// Engine generates and scores questions against the current dataset
// snapshot. It is shared across sessions: the snapshot swaps atomically
// on refresh and per-session state travels in State and SelectorState,
// so the engine itself holds nothing session-specific.
type Engine struct {
	mu   sync.RWMutex
	data *Dataset

	rngMu sync.Mutex
	rng   *rand.Rand

	mode ScoreMode
}

// Config tunes a new engine. Rand is injectable for deterministic
// tests; Mode defaults to classic scoring.
type Config struct {
	Mode ScoreMode
	Rand *rand.Rand
}

// New builds an engine over the given dataset snapshot.
func New(data *Dataset, cfg Config) *Engine {
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	mode := cfg.Mode
	if mode != ModeArcade {
		mode = ModeClassic
	}
	return &Engine{data: data, rng: rng, mode: mode}
}

// Dataset returns the current snapshot.
func (e *Engine) Dataset() *Dataset {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.data
}

// Swap replaces the dataset snapshot. In-flight sessions pick it up on
// their next question; stale per-type queues rebuild via the version
// carried in the snapshot.
func (e *Engine) Swap(data *Dataset) {
	e.mu.Lock()
	e.data = data
	e.mu.Unlock()
}

// Mode reports the configured scoring mode.
func (e *Engine) Mode() ScoreMode {
	return e.mode
}

// NextQuestion produces the next question for a session and assigns it
// a fresh id. It always returns a renderable question; when no unlocked
// type can build one, the placeholder comes back.
func (e *Engine) NextQuestion(st *State, sel *SelectorState) *Question {
	data := e.Dataset()

	e.rngMu.Lock()
	q := nextQuestion(e.rng, data, st, sel)
	e.rngMu.Unlock()

	q.ID = uuid.NewString()
	return q
}

// EvaluateAnswer checks an answer against its question. Map taps run
// the geometric hit test; everything else compares the chosen index.
// The placeholder question is never correct.
func (e *Engine) EvaluateAnswer(q *Question, ans Answer) Outcome {
	out := Outcome{
		CorrectIndex: q.CorrectIndex,
		CorrectValue: q.AnswerValue,
		SubjectCode:  q.SubjectCode,
	}

	switch q.Type {
	case TypeNoData:
	case TypeMapTap:
		if ans.Tap == nil {
			return out
		}
		data := e.Dataset()
		if data.Borders == nil {
			return out
		}
		shape, ok := data.Borders.Shape(q.TargetCode)
		if !ok {
			return out
		}
		out.Correct = geo.IsHit(*ans.Tap, shape)
	default:
		out.Correct = ans.OptionIndex >= 0 &&
			ans.OptionIndex < len(q.Options) &&
			ans.OptionIndex == q.CorrectIndex
	}
	return out
}

// ApplyOutcome feeds an evaluated answer through the progression state
// machine. Placeholder questions leave the state untouched.
func (e *Engine) ApplyOutcome(st *State, out Outcome, qt QuestionType) Transition {
	if qt == TypeNoData {
		return Transition{GameOver: st.GameOver}
	}
	return Apply(st, out.Correct, qt, out.SubjectCode, e.mode)
}
