package quiz

import (
	"provincie-quiz-service/internal/domain"
)

// ScoreMapClick evaluates a click during a map phase. For a province question
// the click must land on the target's own shape; for a region question any
// member shape of the asked region counts. The highlight set is the clicked
// shape, widened to the full member set for a correct region answer.
func ScoreMapClick(q domain.Question, clickedID string) domain.ClickResult {
	res := domain.ClickResult{
		ClickedID:  clickedID,
		Highlights: []string{clickedID},
	}
	switch q.Kind {
	case domain.KindProvince:
		if key, ok := domain.ProvinceByID(clickedID); ok && key == q.Key {
			res.Correct = true
		}
	case domain.KindRegion:
		members := domain.RegionMembers(q.Key)
		for _, id := range members {
			if id == clickedID {
				res.Correct = true
				res.Highlights = append([]string(nil), members...)
				break
			}
		}
	}
	return res
}

// ScoreCapitalRows runs the one-shot evaluation over the complete row set.
// Rows 0-4 earn the province half when the placed province is Flemish, rows
// 5-9 when it is Walloon; exact position within the section does not matter.
// The capital half is judged against the placed province's own capital, not
// the section. The Brussels row only has a capital half. Each half is worth
// 0.5 points, for a maximum of 10.5.
func ScoreCapitalRows(rows []domain.CapitalRow) ([]domain.CapitalRow, float64) {
	out := make([]domain.CapitalRow, len(rows))
	var points float64
	for i, row := range rows {
		row.Evaluated = true
		if i == brusselsRowIndex {
			ok := row.Capital == domain.BrusselsCapital
			row.CapitalOK = &ok
			row.ProvinceOK = nil
			if ok {
				points += 0.5
			}
			out[i] = row
			continue
		}

		provOK := false
		if row.Province != "" {
			if i < flemishRowCount {
				provOK = domain.InFlemishRegion(row.Province)
			} else {
				provOK = domain.InWalloonRegion(row.Province)
			}
		}
		capOK := false
		if row.Province != "" && row.Capital != "" {
			if capital, ok := domain.CapitalOf(row.Province); ok {
				capOK = capital == row.Capital
			}
		}
		row.ProvinceOK = &provOK
		row.CapitalOK = &capOK
		if provOK {
			points += 0.5
		}
		if capOK {
			points += 0.5
		}
		out[i] = row
	}
	return out, points
}

const (
	flemishRowCount  = 5
	brusselsRowIndex = domain.CapitalRowCount - 1
)

// CapitalRowsFilled reports whether every required slot is occupied: both
// halves on the province rows, the capital half on the Brussels row.
func CapitalRowsFilled(rows []domain.CapitalRow) bool {
	if len(rows) != domain.CapitalRowCount {
		return false
	}
	for i, row := range rows {
		if row.Capital == "" {
			return false
		}
		if i != brusselsRowIndex && row.Province == "" {
			return false
		}
	}
	return true
}

// ScoreFillIn evaluates the free-text sheet against the answer key. Exact
// fields earn 1 point on a normalized match. Each neighbor entry earns 0.5
// when it normalizes to an expected municipality that has not been credited
// yet in the same submission, so entering "Alken" twice counts once. The
// basic sheet tops out at 7 points; extended adds the nickname and riddle
// fields for 15.
func ScoreFillIn(key domain.FillInKey, sub domain.FillInSubmission, extended bool) domain.FillInScore {
	score := domain.FillInScore{
		SchoolProvinceOK:  Normalize(sub.SchoolProvince) == Normalize(key.SchoolProvince),
		ProvinceCapitalOK: Normalize(sub.ProvinceCapital) == Normalize(key.ProvinceCapital),
		MunicipalityOK:    Normalize(sub.Municipality) == Normalize(key.Municipality),
	}

	expected := make(map[string]struct{}, len(key.Neighbors))
	for _, n := range key.Neighbors {
		expected[Normalize(n)] = struct{}{}
	}
	credited := make(map[string]struct{}, len(key.Neighbors))
	score.NeighborOK = make([]bool, domain.NeighborFieldCount)
	for i := 0; i < domain.NeighborFieldCount && i < len(sub.Neighbors); i++ {
		n := Normalize(sub.Neighbors[i])
		if n == "" {
			continue
		}
		if _, ok := expected[n]; !ok {
			continue
		}
		if _, seen := credited[n]; seen {
			continue
		}
		credited[n] = struct{}{}
		score.NeighborOK[i] = true
		score.NeighborsCorrect++
	}

	for _, ok := range []bool{score.SchoolProvinceOK, score.ProvinceCapitalOK, score.MunicipalityOK} {
		if ok {
			score.Earned++
		}
	}
	score.Earned += float64(score.NeighborsCorrect) * 0.5
	score.Possible = 3 + float64(len(key.Neighbors))*0.5

	if !extended {
		return score
	}

	score.FlemishNicknameOK = Normalize(sub.FlemishNickname) == Normalize(key.FlemishNickname)
	score.WalloonNicknameOK = Normalize(sub.WalloonNickname) == Normalize(key.WalloonNickname)
	score.BrusselsBorderProvinceOK = Normalize(sub.BrusselsBorderProvince) == Normalize(key.BrusselsBorderProvince)
	for _, ok := range []bool{score.FlemishNicknameOK, score.WalloonNicknameOK, score.BrusselsBorderProvinceOK} {
		if ok {
			score.Earned++
		}
	}

	score.RiddleOK = make([]bool, len(key.Riddles))
	for i, want := range key.Riddles {
		var got string
		if i < len(sub.Riddles) {
			got = sub.Riddles[i]
		}
		if Normalize(got) == Normalize(want) {
			score.RiddleOK[i] = true
			score.Earned++
		}
	}
	score.Possible += 3 + float64(len(key.Riddles))
	return score
}
