package engine

import (
	"math/rand"
	"strconv"

	"github.com/mapstreak/geoquiz/internal/catalog"
)

// SelectorState is the per-session question rotation memory: a cursor
// over the unlocked type list plus one shuffled country queue per type.
// It serializes to JSON so the session layer can persist it next to the
// progression state.
type SelectorState struct {
	Cursor     int                       `json:"cursor"`
	Queues     map[QuestionType][]string `json:"queues"`
	WindowKeys map[QuestionType]string   `json:"window_keys"`
}

// NewSelectorState returns an empty rotation state.
func NewSelectorState() *SelectorState {
	return &SelectorState{
		Queues:     make(map[QuestionType][]string),
		WindowKeys: make(map[QuestionType]string),
	}
}

func (sel *SelectorState) ensure() {
	if sel.Queues == nil {
		sel.Queues = make(map[QuestionType][]string)
	}
	if sel.WindowKeys == nil {
		sel.WindowKeys = make(map[QuestionType]string)
	}
}

// nextQuestion advances the rotation cursor and tries each unlocked
// type at most once, returning the first question that builds. When a
// full cycle yields nothing the placeholder is returned so the caller
// always gets something renderable.
func nextQuestion(rng *rand.Rand, data *Dataset, st *State, sel *SelectorState) *Question {
	sel.ensure()
	unlocked := typesForLevel(st.Level)
	if len(unlocked) == 0 {
		return noDataQuestion()
	}

	for attempt := 0; attempt < len(unlocked); attempt++ {
		sel.Cursor = (sel.Cursor + 1) % len(unlocked)
		t := unlocked[sel.Cursor]

		pool := data.Pools.Pool(t)
		if len(pool) == 0 {
			continue
		}
		window := windowForLevel(pool, st.Level)

		bc := buildContext{rng: rng, data: data, window: window}
		if !pairSampled(t) {
			subject := nextSubject(rng, data, t, st, sel, window)
			if subject == nil {
				continue
			}
			bc.subject = subject
		}
		if q, ok := buildQuestion(t, bc); ok {
			return q
		}
	}
	return noDataQuestion()
}

// windowKey fingerprints the difficulty window a queue was drawn from.
// A queue whose key no longer matches would mix countries from two
// different windows and is rebuilt instead.
func windowKey(data *Dataset, level int) string {
	return strconv.Itoa(bandIndexForLevel(level)) + ":" + strconv.FormatInt(data.Version, 10)
}

// nextSubject pops the next country for a type, refilling the queue
// with a fresh shuffle whenever it runs dry or its window went stale.
func nextSubject(rng *rand.Rand, data *Dataset, t QuestionType, st *State, sel *SelectorState, window []*catalog.Country) *catalog.Country {
	key := windowKey(data, st.Level)
	if sel.WindowKeys[t] != key {
		delete(sel.Queues, t)
		sel.WindowKeys[t] = key
	}
	if len(sel.Queues[t]) == 0 {
		sel.Queues[t] = refillQueue(rng, t, st, window)
	}

	queue := sel.Queues[t]
	if len(queue) == 0 {
		return nil
	}
	code := queue[0]
	sel.Queues[t] = queue[1:]

	c, ok := data.Catalog.Get(code)
	if !ok {
		return nil
	}
	return c
}

// refillQueue shuffles the window codes the player has not completed
// for this type. Once every pair is completed the filter resets and the
// whole window comes back into play.
func refillQueue(rng *rand.Rand, t QuestionType, st *State, window []*catalog.Country) []string {
	fresh := make([]string, 0, len(window))
	for _, c := range window {
		if !st.Completed[CompletedKey(t, c.Code)] {
			fresh = append(fresh, c.Code)
		}
	}
	if len(fresh) == 0 {
		for _, c := range window {
			fresh = append(fresh, c.Code)
		}
	}
	rng.Shuffle(len(fresh), func(i, j int) {
		fresh[i], fresh[j] = fresh[j], fresh[i]
	})
	return fresh
}
