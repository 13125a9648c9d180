package engine

import (
	"github.com/mapstreak/geoquiz/internal/geo"
)

// QuestionType tags every question the engine can produce. The set is
// closed: builder dispatch, base points, pool filters, and the unlock
// schedule all switch over it exhaustively.
type QuestionType string

const (
	TypeMapTap           QuestionType = "map_tap"
	TypeFlagMatch        QuestionType = "flag_match"
	TypeCapitalMCQ       QuestionType = "capital_mcq"
	TypeCurrencyMCQ      QuestionType = "currency_mcq"
	TypeCityMCQ          QuestionType = "city_mcq"
	TypeRiverMCQ         QuestionType = "river_mcq"
	TypeLanguageMCQ      QuestionType = "language_mcq"
	TypePeakMCQ          QuestionType = "peak_mcq"
	TypeRangeMCQ         QuestionType = "range_mcq"
	TypeRegionMCQ        QuestionType = "region_mcq"
	TypeNeighborMCQ      QuestionType = "neighbor_mcq"
	TypeNeighborCountMCQ QuestionType = "neighbor_count_mcq"
	TypeLandlockedMCQ    QuestionType = "landlocked_mcq"
	TypeFlagColorsMCQ    QuestionType = "flag_colors_mcq"
	TypePopulationMore   QuestionType = "population_more_than"
	TypePopulationPair   QuestionType = "population_pair"
	TypeAreaPair         QuestionType = "area_pair"
	TypeSubregionOutlier QuestionType = "subregion_outlier"
	TypePopulationRank   QuestionType = "population_rank"
	TypePopulationTier   QuestionType = "population_tier"
	TypeGDPTier          QuestionType = "gdp_tier"
	TypeExportsMCQ       QuestionType = "economy_exports_mcq"
	TypeUNESCOMCQ        QuestionType = "unesco_mcq"
	TypeSilhouetteMCQ    QuestionType = "silhouette_mcq"
	TypeCoastlineMCQ     QuestionType = "coastline_mcq"
	TypeLandmarkPhotoMCQ QuestionType = "landmark_photo_mcq"

	// TypeNoData is the placeholder returned when no unlocked type can
	// build a question. It is renderable but never scored.
	TypeNoData QuestionType = "no_data"
)

// AllTypes lists every buildable question type in unlock order.
var AllTypes = []QuestionType{
	TypeFlagMatch,
	TypeCapitalMCQ,
	TypeMapTap,
	TypeRegionMCQ,
	TypePopulationPair,
	TypeAreaPair,
	TypePopulationMore,
	TypeCurrencyMCQ,
	TypeCityMCQ,
	TypeLanguageMCQ,
	TypeNeighborMCQ,
	TypeLandlockedMCQ,
	TypeRiverMCQ,
	TypePeakMCQ,
	TypeRangeMCQ,
	TypeFlagColorsMCQ,
	TypePopulationTier,
	TypeGDPTier,
	TypeExportsMCQ,
	TypeUNESCOMCQ,
	TypeSubregionOutlier,
	TypeNeighborCountMCQ,
	TypePopulationRank,
	TypeSilhouetteMCQ,
	TypeCoastlineMCQ,
	TypeLandmarkPhotoMCQ,
}

// Question is one generated quiz item. It lives until answered or
// skipped and is then discarded. Fields the client must not see before
// answering are excluded from JSON; the session layer persists them
// alongside the question.
type Question struct {
	ID      string       `json:"id"`
	Type    QuestionType `json:"type"`
	Prompt  string       `json:"prompt"`
	Options []string     `json:"options,omitempty"`

	// OptionCodes parallels Options when the options are countries.
	OptionCodes []string `json:"option_codes,omitempty"`

	// TargetCode and TargetBBox direct the client camera: the tap target
	// for map_tap, the outline source for silhouette/coastline rounds,
	// or the river envelope for river questions.
	TargetCode string    `json:"target_code,omitempty"`
	TargetBBox *geo.BBox `json:"target_bbox,omitempty"`

	// Highlight lists countries the client should emphasize on the map.
	Highlight []string `json:"highlight,omitempty"`

	// Asset points at the flag or photo shown with the prompt.
	Asset string `json:"asset,omitempty"`

	CorrectIndex int    `json:"-"`
	AnswerValue  string `json:"-"`
	SubjectCode  string `json:"-"`
}

// Answer is the player's response to one question.
type Answer struct {
	// OptionIndex is the chosen option for MCQ types; -1 when absent.
	OptionIndex int

	// Tap is the map click for map_tap questions.
	Tap *geo.Tap
}

// Outcome is the result of evaluating an answer.
type Outcome struct {
	Correct      bool   `json:"correct"`
	CorrectIndex int    `json:"correct_index"`
	CorrectValue string `json:"correct_value"`
	SubjectCode  string `json:"subject_code,omitempty"`
}
