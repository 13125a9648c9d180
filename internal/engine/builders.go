package engine

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/mapstreak/geoquiz/internal/catalog"
)

// buildContext carries everything a builder needs for one attempt.
// subject is nil for pair-sampled types, which draw both countries from
// the difficulty window instead.
type buildContext struct {
	rng     *rand.Rand
	data    *Dataset
	subject *catalog.Country
	window  []*catalog.Country
}

// pairSampled reports whether a type picks two subjects from the window
// rather than one from its rotation queue.
func pairSampled(t QuestionType) bool {
	switch t {
	case TypePopulationPair, TypeAreaPair, TypePopulationMore:
		return true
	}
	return false
}

// buildQuestion dispatches to the builder for t. Returning false means
// the subject lacks a required field and the selector should try the
// next type in rotation.
func buildQuestion(t QuestionType, bc buildContext) (*Question, bool) {
	switch t {
	case TypeMapTap:
		return buildMapTap(bc)
	case TypeFlagMatch:
		return buildFlagMatch(bc)
	case TypeCapitalMCQ:
		return buildAttributeMCQ(bc, t, "What is the capital of %s?", func(c *catalog.Country) []string {
			return c.Capitals
		})
	case TypeCurrencyMCQ:
		return buildAttributeMCQ(bc, t, "Which currency is used in %s?", func(c *catalog.Country) []string {
			codes := make([]string, 0, len(c.Currencies))
			for _, cur := range c.Currencies {
				codes = append(codes, cur.Code)
			}
			return codes
		})
	case TypeCityMCQ:
		return buildAttributeMCQ(bc, t, "Which of these cities is in %s?", func(c *catalog.Country) []string {
			return c.Cities
		})
	case TypeRiverMCQ:
		return buildRiverMCQ(bc)
	case TypeLanguageMCQ:
		return buildAttributeMCQ(bc, t, "Which language is widely spoken in %s?", func(c *catalog.Country) []string {
			return c.Languages
		})
	case TypePeakMCQ:
		return buildAttributeMCQ(bc, t, "What is the highest peak of %s?", func(c *catalog.Country) []string {
			if c.Peak == nil {
				return nil
			}
			return []string{c.Peak.Name}
		})
	case TypeRangeMCQ:
		return buildAttributeMCQ(bc, t, "Which mountain range runs through %s?", func(c *catalog.Country) []string {
			return c.Ranges
		})
	case TypeRegionMCQ:
		return buildAttributeMCQ(bc, t, "Which of these regions lies in %s?", func(c *catalog.Country) []string {
			return c.PhysicalRegions
		})
	case TypeNeighborMCQ:
		return buildNeighborMCQ(bc)
	case TypeNeighborCountMCQ:
		return buildNeighborCount(bc)
	case TypeLandlockedMCQ:
		return buildLandlocked(bc)
	case TypeFlagColorsMCQ:
		return buildFlagColors(bc)
	case TypePopulationMore:
		return buildPopulationMore(bc)
	case TypePopulationPair:
		return buildMetricPair(bc, t, "Which country has the larger population?", func(c *catalog.Country) float64 {
			return float64(c.Population)
		})
	case TypeAreaPair:
		return buildMetricPair(bc, t, "Which country covers the larger area?", func(c *catalog.Country) float64 {
			return c.AreaKm2
		})
	case TypeSubregionOutlier:
		return buildSubregionOutlier(bc)
	case TypePopulationRank:
		return buildPopulationRank(bc)
	case TypePopulationTier:
		return buildPopulationTier(bc)
	case TypeGDPTier:
		return buildGDPTier(bc)
	case TypeExportsMCQ:
		return buildAttributeMCQ(bc, t, "Which of these is a top export of %s?", func(c *catalog.Country) []string {
			return c.Exports
		})
	case TypeUNESCOMCQ:
		return buildAttributeMCQ(bc, t, "Which UNESCO World Heritage Site is in %s?", func(c *catalog.Country) []string {
			return c.UNESCOSites
		})
	case TypeSilhouetteMCQ:
		return buildOutlineMCQ(bc, t, "Which country has this outline?", bc.data.Catalog.All())
	case TypeCoastlineMCQ:
		return buildOutlineMCQ(bc, t, "Whose coastline is shown?", bc.data.Pools.Pool(TypeCoastlineMCQ))
	case TypeLandmarkPhotoMCQ:
		return buildLandmarkPhoto(bc)
	default:
		return nil, false
	}
}

// noDataQuestion is the placeholder surfaced when every unlocked type
// failed in one rotation cycle. It renders but never scores.
func noDataQuestion() *Question {
	return &Question{
		Type:         TypeNoData,
		Prompt:       "No data available",
		CorrectIndex: -1,
	}
}

func buildMapTap(bc buildContext) (*Question, bool) {
	if bc.data.Borders == nil {
		return nil, false
	}
	shape, ok := bc.data.Borders.Shape(bc.subject.Code)
	if !ok {
		return nil, false
	}
	box := shape.BBox
	return &Question{
		Type:         TypeMapTap,
		Prompt:       bc.subject.Name,
		TargetCode:   bc.subject.Code,
		TargetBBox:   &box,
		CorrectIndex: -1,
		AnswerValue:  bc.subject.Name,
		SubjectCode:  bc.subject.Code,
	}, true
}

func buildFlagMatch(bc buildContext) (*Question, bool) {
	if bc.subject.FlagAsset == "" {
		return nil, false
	}
	set, ok := buildOptionSetForCountries(bc.rng, bc.subject, bc.data.Catalog.All(), nil)
	if !ok {
		return nil, false
	}
	return &Question{
		Type:         TypeFlagMatch,
		Prompt:       "Which country does this flag belong to?",
		Options:      set.Options,
		OptionCodes:  set.Codes,
		Asset:        bc.subject.FlagAsset,
		CorrectIndex: set.CorrectIndex,
		AnswerValue:  bc.subject.Name,
		SubjectCode:  bc.subject.Code,
	}, true
}

// buildAttributeMCQ covers every "first list entry" question: the
// correct answer is the subject's first value for the attribute and
// distractors come from other countries holding the same attribute.
func buildAttributeMCQ(bc buildContext, t QuestionType, promptFmt string, values func(*catalog.Country) []string) (*Question, bool) {
	vals := values(bc.subject)
	if len(vals) == 0 || vals[0] == "" {
		return nil, false
	}
	correct := vals[0]
	set, ok := buildOptionSet(bc.rng, correct, bc.subject, bc.data.Pools.Pool(t), values)
	if !ok {
		return nil, false
	}
	return &Question{
		Type:         t,
		Prompt:       fmt.Sprintf(promptFmt, bc.subject.Name),
		Options:      set.Options,
		CorrectIndex: set.CorrectIndex,
		AnswerValue:  correct,
		SubjectCode:  bc.subject.Code,
	}, true
}

func buildRiverMCQ(bc buildContext) (*Question, bool) {
	q, ok := buildAttributeMCQ(bc, TypeRiverMCQ, "Which river flows through %s?", func(c *catalog.Country) []string {
		return c.Rivers
	})
	if !ok {
		return nil, false
	}
	// Frame the camera on the river when its envelope is indexed.
	if bc.data.Rivers != nil {
		if box, found := bc.data.Rivers.BBox(q.AnswerValue); found {
			q.TargetBBox = &box
		}
	}
	return q, true
}

func buildNeighborMCQ(bc buildContext) (*Question, bool) {
	neighbors := bc.data.Catalog.Neighbors(bc.subject)
	if len(neighbors) == 0 {
		return nil, false
	}
	correct := neighbors[bc.rng.Intn(len(neighbors))]

	// A distractor that also borders the subject would be a second
	// right answer, so the whole border list is off limits.
	offLimits := map[string]bool{bc.subject.Code: true}
	for _, n := range neighbors {
		offLimits[n.Code] = true
	}
	set, ok := buildOptionSetForCountries(bc.rng, correct, bc.data.Catalog.All(), func(c *catalog.Country) bool {
		return offLimits[c.Code]
	})
	if !ok {
		return nil, false
	}
	return &Question{
		Type:         TypeNeighborMCQ,
		Prompt:       fmt.Sprintf("Which country borders %s?", bc.subject.Name),
		Options:      set.Options,
		OptionCodes:  set.Codes,
		CorrectIndex: set.CorrectIndex,
		AnswerValue:  correct.Name,
		SubjectCode:  bc.subject.Code,
	}, true
}

func buildNeighborCount(bc buildContext) (*Question, bool) {
	count := len(bc.subject.Borders)
	candidates := []int{count, count - 1, count + 1, count + 2}
	var opts []string
	for _, v := range candidates {
		if v >= 0 {
			opts = append(opts, strconv.Itoa(v))
		}
	}
	bc.rng.Shuffle(len(opts), func(i, j int) {
		opts[i], opts[j] = opts[j], opts[i]
	})

	correct := strconv.Itoa(count)
	idx := -1
	for i, o := range opts {
		if o == correct {
			idx = i
			break
		}
	}
	return &Question{
		Type:         TypeNeighborCountMCQ,
		Prompt:       fmt.Sprintf("How many countries share a land border with %s?", bc.subject.Name),
		Options:      opts,
		CorrectIndex: idx,
		AnswerValue:  correct,
		SubjectCode:  bc.subject.Code,
	}, true
}

func buildLandlocked(bc buildContext) (*Question, bool) {
	idx := 1
	if bc.subject.Landlocked {
		idx = 0
	}
	return &Question{
		Type:         TypeLandlockedMCQ,
		Prompt:       fmt.Sprintf("Is %s landlocked?", bc.subject.Name),
		Options:      []string{"Yes", "No"},
		CorrectIndex: idx,
		AnswerValue:  []string{"Yes", "No"}[idx],
		SubjectCode:  bc.subject.Code,
	}, true
}

func buildFlagColors(bc buildContext) (*Question, bool) {
	if bc.subject.FlagAsset == "" {
		return nil, false
	}
	idx := 1
	if multiColorFlags[bc.subject.Code3] {
		idx = 0
	}
	return &Question{
		Type:         TypeFlagColorsMCQ,
		Prompt:       fmt.Sprintf("Does the flag of %s have three or more colors?", bc.subject.Name),
		Options:      []string{"Yes", "No"},
		CorrectIndex: idx,
		AnswerValue:  []string{"Yes", "No"}[idx],
		SubjectCode:  bc.subject.Code,
	}, true
}

func buildPopulationMore(bc buildContext) (*Question, bool) {
	a, b, ok := pickMetricPair(bc.rng, bc.window, func(c *catalog.Country) float64 {
		return float64(c.Population)
	})
	if !ok {
		return nil, false
	}
	idx := 1
	if a.Population > b.Population {
		idx = 0
	}
	return &Question{
		Type:         TypePopulationMore,
		Prompt:       fmt.Sprintf("Does %s have a larger population than %s?", a.Name, b.Name),
		Options:      []string{"Yes", "No"},
		Highlight:    []string{a.Code, b.Code},
		CorrectIndex: idx,
		AnswerValue:  []string{"Yes", "No"}[idx],
		SubjectCode:  a.Code,
	}, true
}

func buildMetricPair(bc buildContext, t QuestionType, prompt string, metric func(*catalog.Country) float64) (*Question, bool) {
	a, b, ok := pickMetricPair(bc.rng, bc.window, metric)
	if !ok {
		return nil, false
	}
	larger := 0
	if metric(b) > metric(a) {
		larger = 1
	}
	pair := []*catalog.Country{a, b}
	return &Question{
		Type:         t,
		Prompt:       prompt,
		Options:      []string{a.Name, b.Name},
		OptionCodes:  []string{a.Code, b.Code},
		Highlight:    []string{a.Code, b.Code},
		CorrectIndex: larger,
		AnswerValue:  pair[larger].Name,
		SubjectCode:  pair[larger].Code,
	}, true
}

func buildSubregionOutlier(bc buildContext) (*Question, bool) {
	subject := bc.subject
	if subject.Region == "" || subject.Subregion == "" {
		return nil, false
	}

	seen := map[string]bool{subject.Name: true}
	var same, cross []*catalog.Country
	for _, c := range bc.data.Catalog.All() {
		if c.Code == subject.Code || c.Name == "" || seen[c.Name] {
			continue
		}
		if c.Region != subject.Region {
			continue
		}
		seen[c.Name] = true
		if c.Subregion == subject.Subregion {
			same = append(same, c)
		} else if c.Subregion != "" {
			cross = append(cross, c)
		}
	}
	if len(same) < 2 || len(cross) == 0 {
		return nil, false
	}

	bc.rng.Shuffle(len(same), func(i, j int) { same[i], same[j] = same[j], same[i] })
	outlier := cross[bc.rng.Intn(len(cross))]

	picked := []*catalog.Country{subject, same[0], same[1], outlier}
	bc.rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })

	q := &Question{
		Type:         TypeSubregionOutlier,
		Prompt:       fmt.Sprintf("Which of these countries is not in %s?", subject.Subregion),
		CorrectIndex: -1,
		AnswerValue:  outlier.Name,
		SubjectCode:  subject.Code,
	}
	for i, c := range picked {
		q.Options = append(q.Options, c.Name)
		q.OptionCodes = append(q.OptionCodes, c.Code)
		q.Highlight = append(q.Highlight, c.Code)
		if c.Code == outlier.Code {
			q.CorrectIndex = i
		}
	}
	if q.CorrectIndex < 0 {
		return nil, false
	}
	return q, true
}

func buildPopulationRank(bc buildContext) (*Question, bool) {
	subject := bc.subject
	if subject.Population <= 0 || subject.Region == "" {
		return nil, false
	}

	trio := []*catalog.Country{subject}
	var cands []*catalog.Country
	for _, c := range bc.data.Catalog.All() {
		if c.Code == subject.Code || c.Name == "" || c.Population <= 0 || c.Region != subject.Region {
			continue
		}
		cands = append(cands, c)
	}
	bc.rng.Shuffle(len(cands), func(i, j int) { cands[i], cands[j] = cands[j], cands[i] })

	// Equal populations would make the ordering ambiguous, so the trio
	// must be pairwise distinct on the metric.
	for _, c := range cands {
		if len(trio) == 3 {
			break
		}
		distinct := true
		for _, t := range trio {
			if c.Population == t.Population || c.Name == t.Name {
				distinct = false
				break
			}
		}
		if distinct {
			trio = append(trio, c)
		}
	}
	if len(trio) < 3 {
		return nil, false
	}

	ordered := append([]*catalog.Country(nil), trio...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Population > ordered[j].Population })
	correct := joinNames(ordered)

	wrong := correct
	for attempt := 0; attempt < 10 && wrong == correct; attempt++ {
		perm := append([]*catalog.Country(nil), trio...)
		bc.rng.Shuffle(len(perm), func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })
		wrong = joinNames(perm)
	}
	if wrong == correct {
		return nil, false
	}

	options := []string{correct, wrong}
	idx := bc.rng.Intn(2)
	if idx == 1 {
		options[0], options[1] = options[1], options[0]
	}

	q := &Question{
		Type:         TypePopulationRank,
		Prompt:       "Which lists these countries from most to least populous?",
		Options:      options,
		CorrectIndex: idx,
		AnswerValue:  correct,
		SubjectCode:  subject.Code,
	}
	for _, c := range trio {
		q.Highlight = append(q.Highlight, c.Code)
	}
	return q, true
}

func joinNames(countries []*catalog.Country) string {
	names := make([]string, len(countries))
	for i, c := range countries {
		names[i] = c.Name
	}
	return strings.Join(names, " > ")
}

// tierLabels stays in rank order and is never shuffled; the tiers only
// make sense read top to bottom.
var tierLabels = []string{"Top 10", "Top 25", "Top 50", "Outside Top 50"}

func tierIndex(rank int) int {
	switch {
	case rank <= 10:
		return 0
	case rank <= 25:
		return 1
	case rank <= 50:
		return 2
	default:
		return 3
	}
}

func buildPopulationTier(bc buildContext) (*Question, bool) {
	rank, ok := bc.data.Catalog.PopulationRank(bc.subject.Code)
	if !ok {
		return nil, false
	}
	idx := tierIndex(rank)
	return &Question{
		Type:         TypePopulationTier,
		Prompt:       fmt.Sprintf("Where does %s rank in world population?", bc.subject.Name),
		Options:      append([]string(nil), tierLabels...),
		CorrectIndex: idx,
		AnswerValue:  tierLabels[idx],
		SubjectCode:  bc.subject.Code,
	}, true
}

func buildGDPTier(bc buildContext) (*Question, bool) {
	rank, ok := bc.data.Catalog.GDPRank(bc.subject.Code)
	if !ok {
		return nil, false
	}
	idx := tierIndex(rank)
	return &Question{
		Type:         TypeGDPTier,
		Prompt:       fmt.Sprintf("Where does %s rank in world GDP?", bc.subject.Name),
		Options:      append([]string(nil), tierLabels...),
		CorrectIndex: idx,
		AnswerValue:  tierLabels[idx],
		SubjectCode:  bc.subject.Code,
	}, true
}

// buildOutlineMCQ handles the geometry recognition rounds. The client
// draws the target's outline from TargetCode; options are names only.
func buildOutlineMCQ(bc buildContext, t QuestionType, prompt string, distractors []*catalog.Country) (*Question, bool) {
	if bc.data.Borders == nil {
		return nil, false
	}
	shape, ok := bc.data.Borders.Shape(bc.subject.Code)
	if !ok {
		return nil, false
	}
	set, ok := buildOptionSetForCountries(bc.rng, bc.subject, distractors, nil)
	if !ok {
		return nil, false
	}
	box := shape.BBox
	return &Question{
		Type:         t,
		Prompt:       prompt,
		Options:      set.Options,
		OptionCodes:  set.Codes,
		TargetCode:   bc.subject.Code,
		TargetBBox:   &box,
		CorrectIndex: set.CorrectIndex,
		AnswerValue:  bc.subject.Name,
		SubjectCode:  bc.subject.Code,
	}, true
}

func buildLandmarkPhoto(bc buildContext) (*Question, bool) {
	if len(bc.subject.Landmarks) == 0 {
		return nil, false
	}
	asset := bc.subject.Landmarks[bc.rng.Intn(len(bc.subject.Landmarks))]
	if asset == "" {
		return nil, false
	}
	set, ok := buildOptionSetForCountries(bc.rng, bc.subject, bc.data.Catalog.All(), nil)
	if !ok {
		return nil, false
	}
	return &Question{
		Type:         TypeLandmarkPhotoMCQ,
		Prompt:       "In which country is this landmark?",
		Options:      set.Options,
		OptionCodes:  set.Codes,
		Asset:        asset,
		CorrectIndex: set.CorrectIndex,
		AnswerValue:  bc.subject.Name,
		SubjectCode:  bc.subject.Code,
	}, true
}
