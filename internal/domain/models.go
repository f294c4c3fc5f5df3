package domain

// Phase identifies one quiz segment. Phases run strictly in sequence.
type Phase string

const (
	PhaseProvinces Phase = "provinces"
	PhaseRegions   Phase = "regions"
	PhaseCapitals  Phase = "capitals"
	PhaseQuestions Phase = "questions"
	PhaseResults   Phase = "results"
)

// Variant selects the quiz composition: the basic run ends after the capitals
// phase, the extended run inserts the free-text sheet before the results.
type Variant string

const (
	VariantBasic    Variant = "basic"
	VariantExtended Variant = "extended"
)

// QuestionKind tags what a map question asks for.
type QuestionKind string

const (
	KindProvince QuestionKind = "province"
	KindRegion   QuestionKind = "region"
)

// Question is the current map prompt: find a province or a region.
type Question struct {
	Kind QuestionKind `json:"kind"`
	Key  string       `json:"key"`
}

// ClickResult is the scored outcome of a single map click. Highlights carries
// the shape IDs the client should flash: the clicked shape, or the full member
// set for a correctly answered region question.
type ClickResult struct {
	ClickedID  string   `json:"clickedId"`
	Correct    bool     `json:"correct"`
	Highlights []string `json:"highlights"`
}

// ScoreTally accumulates points within one phase run. Earned is fractional
// because capital and neighbor halves are worth 0.5 each.
type ScoreTally struct {
	Earned   float64 `json:"earned"`
	Possible float64 `json:"possible"`
}

// SessionTally is the cumulative record across repeated playthroughs. It only
// grows; a restart resets phase tallies but never this one.
type SessionTally struct {
	Rounds   int     `json:"rounds"`
	Earned   float64 `json:"earned"`
	Possible float64 `json:"possible"`
}

// CapitalRow is one slot pair in the matching table. Rows 0-4 belong to the
// Flemish section, 5-9 to the Walloon section, row 10 is the capital-only
// Brussels row (no province slot). The OK pointers stay nil until the one-shot
// evaluation runs; ProvinceOK stays nil forever on the Brussels row.
type CapitalRow struct {
	Province   string `json:"province,omitempty"`
	Capital    string `json:"capital,omitempty"`
	Evaluated  bool   `json:"evaluated,omitempty"`
	ProvinceOK *bool  `json:"provinceOk,omitempty"`
	CapitalOK  *bool  `json:"capitalOk,omitempty"`
}

// CapitalRowCount covers ten province rows plus the Brussels row.
const CapitalRowCount = 11

// SlotKind tags which half of a row a drag targets.
type SlotKind string

const (
	SlotProvince SlotKind = "province"
	SlotCapital  SlotKind = "capital"
)

// PhaseResult is the audit record written after a map phase completes. It is
// write-only: nothing in the quiz path ever reads it back.
type PhaseResult struct {
	Phase    Phase            `json:"phase"`
	Earned   float64          `json:"earned"`
	Possible float64          `json:"possible"`
	Results  map[string]*bool `json:"results"`
}
