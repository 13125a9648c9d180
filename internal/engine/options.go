package engine

import (
	"math/rand"

	"github.com/mapstreak/geoquiz/internal/catalog"
)

// optionCount is the fixed size of a multiple-choice option set.
const optionCount = 4

// OptionSet is a shuffled set of answer options with the position of
// the correct one.
type OptionSet struct {
	Options      []string
	Codes        []string
	CorrectIndex int
}

// buildOptionSet assembles a four-option set around a known correct
// value. Distractors are drawn from countries in the anchor's region
// first so the wrong answers feel plausible; if the region cannot give
// three distinct values the whole pool is used. Returns false when
// even the global pool cannot fill the set.
func buildOptionSet(rng *rand.Rand, correct string, anchor *catalog.Country, pool []*catalog.Country, values func(*catalog.Country) []string) (OptionSet, bool) {
	if correct == "" {
		return OptionSet{}, false
	}

	collect := func(regional bool) []string {
		seen := map[string]bool{correct: true}
		var out []string
		for _, c := range pool {
			if regional && (anchor == nil || c.Region == "" || c.Region != anchor.Region) {
				continue
			}
			if anchor != nil && c.Code == anchor.Code {
				continue
			}
			for _, v := range values(c) {
				if v == "" || seen[v] {
					continue
				}
				seen[v] = true
				out = append(out, v)
			}
		}
		return out
	}

	candidates := collect(true)
	if len(candidates) < optionCount-1 {
		candidates = collect(false)
	}
	if len(candidates) < optionCount-1 {
		return OptionSet{}, false
	}

	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	options := append([]string{correct}, candidates[:optionCount-1]...)
	rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	set := OptionSet{Options: options, CorrectIndex: -1}
	for i, opt := range options {
		if opt == correct {
			set.CorrectIndex = i
			break
		}
	}
	if set.CorrectIndex < 0 {
		return OptionSet{}, false
	}
	return set, true
}

// buildOptionSetForCountries assembles a four-country option set where
// every option is a country name and Codes carries the matching ISO
// codes. Distractors prefer the correct country's subregion, then its
// region, then anywhere. exclude can veto individual candidates.
func buildOptionSetForCountries(rng *rand.Rand, correct *catalog.Country, pool []*catalog.Country, exclude func(*catalog.Country) bool) (OptionSet, bool) {
	if correct == nil || correct.Name == "" {
		return OptionSet{}, false
	}

	collect := func(tier int) []*catalog.Country {
		seen := map[string]bool{correct.Name: true}
		var out []*catalog.Country
		for _, c := range pool {
			if c.Code == correct.Code || c.Name == "" || seen[c.Name] {
				continue
			}
			if exclude != nil && exclude(c) {
				continue
			}
			switch tier {
			case 0:
				if correct.Subregion == "" || c.Subregion != correct.Subregion {
					continue
				}
			case 1:
				if correct.Region == "" || c.Region != correct.Region {
					continue
				}
			}
			seen[c.Name] = true
			out = append(out, c)
		}
		return out
	}

	var candidates []*catalog.Country
	for tier := 0; tier < 3; tier++ {
		candidates = collect(tier)
		if len(candidates) >= optionCount-1 {
			break
		}
	}
	if len(candidates) < optionCount-1 {
		return OptionSet{}, false
	}

	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	picked := append([]*catalog.Country{correct}, candidates[:optionCount-1]...)
	rng.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})

	set := OptionSet{CorrectIndex: -1}
	for i, c := range picked {
		set.Options = append(set.Options, c.Name)
		set.Codes = append(set.Codes, c.Code)
		if c.Code == correct.Code {
			set.CorrectIndex = i
		}
	}
	if set.CorrectIndex < 0 {
		return OptionSet{}, false
	}
	return set, true
}

const (
	pairAttempts = 50
	pairMinRatio = 1.05
	pairMaxRatio = 5.0
)

// pickMetricPair samples two countries from the window whose metric
// values differ enough to make a fair comparison question. It tries
// random pairs whose larger/smaller ratio falls inside the sweet spot,
// then settles for any unequal pair, and gives up only when every
// candidate is equal.
func pickMetricPair(rng *rand.Rand, window []*catalog.Country, metric func(*catalog.Country) float64) (*catalog.Country, *catalog.Country, bool) {
	if len(window) < 2 {
		return nil, nil, false
	}

	for attempt := 0; attempt < pairAttempts; attempt++ {
		i := rng.Intn(len(window))
		j := rng.Intn(len(window))
		if i == j {
			continue
		}
		a, b := window[i], window[j]
		va, vb := metric(a), metric(b)
		if va <= 0 || vb <= 0 {
			continue
		}
		ratio := va / vb
		if ratio < 1 {
			ratio = 1 / ratio
		}
		if ratio > pairMinRatio && ratio < pairMaxRatio {
			return a, b, true
		}
	}

	// No pair in the sweet spot; any measurable difference will do.
	for i := 0; i < len(window); i++ {
		for j := i + 1; j < len(window); j++ {
			va, vb := metric(window[i]), metric(window[j])
			if va > 0 && vb > 0 && va != vb {
				return window[i], window[j], true
			}
		}
	}
	return nil, nil, false
}
