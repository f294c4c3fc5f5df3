package domain

// FillInKey is the answer sheet for the free-text section. Values are stored
// in display form; comparison happens on normalized text, so "Sint-Truiden"
// accepts "sint truiden" and "Wallonië" accepts "wallonie".
type FillInKey struct {
	SchoolProvince  string
	ProvinceCapital string
	Municipality    string
	Neighbors       []string

	FlemishNickname        string
	WalloonNickname        string
	BrusselsBorderProvince string

	Riddles []string
}

// FillInSubmission carries the raw user input per field. Neighbors holds up to
// eight entries; empty entries are ignored. Riddles is only consulted by the
// extended sheet.
type FillInSubmission struct {
	SchoolProvince  string   `json:"schoolProvince"`
	ProvinceCapital string   `json:"provinceCapital"`
	Municipality    string   `json:"municipality"`
	Neighbors       []string `json:"neighbors"`

	FlemishNickname        string `json:"flemishNickname"`
	WalloonNickname        string `json:"walloonNickname"`
	BrusselsBorderProvince string `json:"brusselsBorderProvince"`

	Riddles []string `json:"riddles"`
}

// FillInScore is the evaluated sheet. NeighborOK is positional: a duplicate of
// an already credited neighbor is marked false even when it names a correct
// municipality.
type FillInScore struct {
	Earned   float64 `json:"earned"`
	Possible float64 `json:"possible"`

	SchoolProvinceOK  bool   `json:"schoolProvinceOk"`
	ProvinceCapitalOK bool   `json:"provinceCapitalOk"`
	MunicipalityOK    bool   `json:"municipalityOk"`
	NeighborOK        []bool `json:"neighborOk"`
	NeighborsCorrect  int    `json:"neighborsCorrect"`

	FlemishNicknameOK        bool   `json:"flemishNicknameOk,omitempty"`
	WalloonNicknameOK        bool   `json:"walloonNicknameOk,omitempty"`
	BrusselsBorderProvinceOK bool   `json:"brusselsBorderProvinceOk,omitempty"`
	RiddleOK                 []bool `json:"riddleOk,omitempty"`
}

// NeighborFieldCount is the number of neighbor inputs on the sheet.
const NeighborFieldCount = 8

// DefaultFillInKey returns the compiled-in answer sheet: a school in
// Sint-Truiden, Limburg, with its eight neighboring municipalities, plus the
// region and province riddles of the extended sheet.
func DefaultFillInKey() FillInKey {
	return FillInKey{
		SchoolProvince:  "Limburg",
		ProvinceCapital: "Hasselt",
		Municipality:    "Sint-Truiden",
		Neighbors: []string{
			"Alken", "Wellen", "Borgloon", "Heers",
			"Gingelom", "Landen", "Zoutleeuw", "Nieuwerkerken",
		},
		FlemishNickname:        "Vlaanderen",
		WalloonNickname:        "Wallonië",
		BrusselsBorderProvince: "Vlaams-Brabant",
		Riddles: []string{
			"Oost-Vlaanderen",
			"Antwerpen",
			"Vlaams-Brabant",
			"Waals-Brabant",
			"Brussel",
		},
	}
}
