package quiz

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"provincie-quiz-service/internal/domain"
)

// manualTimer captures auto-advance callbacks so tests control when the next
// question appears.
type manualTimer struct {
	mu      sync.Mutex
	pending []func()
}

func (m *manualTimer) schedule(_ time.Duration, fn func()) {
	m.mu.Lock()
	m.pending = append(m.pending, fn)
	m.mu.Unlock()
}

func (m *manualTimer) fire() {
	m.mu.Lock()
	fns := m.pending
	m.pending = nil
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func newTestSession(variant domain.Variant, onFinish func(domain.PhaseResult)) (*Session, *manualTimer) {
	tm := &manualTimer{}
	s := NewSession("s1", Options{
		Variant:         variant,
		AdvanceDelay:    time.Millisecond,
		Rand:            rand.New(rand.NewSource(1)),
		Clock:           func() time.Time { return time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC) },
		Timer:           tm.schedule,
		OnPhaseFinished: onFinish,
	})
	return s, tm
}

// correctClickID returns the ID that answers the current question correctly.
func correctClickID(t *testing.T, snap Snapshot) string {
	t.Helper()
	if snap.Question == nil {
		t.Fatalf("no current question in phase %s", snap.Phase)
	}
	if snap.Question.Kind == domain.KindProvince {
		return domain.Provinces[snap.Question.Key].ID
	}
	return domain.RegionMembers(snap.Question.Key)[0]
}

// wrongClickID returns an eligible but incorrect ID for the current question.
func wrongClickID(t *testing.T, snap Snapshot) string {
	t.Helper()
	if snap.Question == nil {
		t.Fatalf("no current question in phase %s", snap.Phase)
	}
	if snap.Question.Kind == domain.KindProvince {
		for _, key := range domain.ProvinceKeys {
			if key != snap.Question.Key {
				return domain.Provinces[key].ID
			}
		}
	}
	for _, region := range domain.RegionKeys {
		if region != snap.Question.Key {
			return domain.RegionMembers(region)[0]
		}
	}
	t.Fatalf("no wrong answer available")
	return ""
}

// playMapPhase answers every question of the current map phase.
func playMapPhase(t *testing.T, s *Session, tm *manualTimer, correctly bool) {
	t.Helper()
	for {
		snap := s.Snapshot()
		if snap.Finished {
			return
		}
		var id string
		if correctly {
			id = correctClickID(t, snap)
		} else {
			id = wrongClickID(t, snap)
		}
		res, consumed := s.Click(id)
		if !consumed {
			t.Fatalf("click %s not consumed in phase %s", id, snap.Phase)
		}
		if res.Correct != correctly {
			t.Fatalf("expected correct=%v for click %s on %v", correctly, id, snap.Question)
		}
		tm.fire()
	}
}

// fillCapitals drops a complete assignment, correct or fully wrong.
func fillCapitals(t *testing.T, s *Session, correctly bool) {
	t.Helper()
	var provs []string
	if correctly {
		provs = append(append([]string(nil), domain.FlemishKeys...), domain.WalloonKeys...)
	} else {
		provs = append(append([]string(nil), domain.WalloonKeys...), domain.FlemishKeys...)
	}
	for i, key := range provs {
		if !s.Drop(domain.SlotProvince, i, key) {
			t.Fatalf("province drop rejected: row %d %s", i, key)
		}
	}
	if correctly {
		for i, key := range provs {
			if !s.Drop(domain.SlotCapital, i, domain.Provinces[key].Capital) {
				t.Fatalf("capital drop rejected: row %d", i)
			}
		}
		if !s.Drop(domain.SlotCapital, 10, domain.BrusselsCapital) {
			t.Fatalf("Brussels capital drop rejected")
		}
		return
	}
	// Misplace everything: Brussels in row 0, each remaining capital one row
	// behind its province, the final capital on the Brussels row.
	if !s.Drop(domain.SlotCapital, 0, domain.BrusselsCapital) {
		t.Fatalf("capital drop rejected: row 0")
	}
	for i := 1; i <= 10; i++ {
		if !s.Drop(domain.SlotCapital, i, domain.Provinces[provs[i-1]].Capital) {
			t.Fatalf("capital drop rejected: row %d", i)
		}
	}
}

func TestProvincePhaseFullRun(t *testing.T) {
	finished := make(chan domain.PhaseResult, 1)
	s, tm := newTestSession(domain.VariantExtended, func(res domain.PhaseResult) { finished <- res })

	snap := s.Snapshot()
	if snap.Phase != domain.PhaseProvinces || snap.Question == nil {
		t.Fatalf("expected province phase with a question, got %+v", snap)
	}

	playMapPhase(t, s, tm, true)

	snap = s.Snapshot()
	if !snap.Finished || snap.Score.Earned != 10 || snap.Score.Possible != 10 {
		t.Fatalf("expected finished 10/10, got %+v", snap.Score)
	}
	for key, val := range snap.Results {
		if val == nil || !*val {
			t.Fatalf("expected %s recorded correct, got %v", key, val)
		}
	}

	select {
	case res := <-finished:
		if res.Phase != domain.PhaseProvinces || res.Earned != 10 || res.Possible != 10 {
			t.Fatalf("unexpected phase result %+v", res)
		}
	case <-time.After(time.Second):
		t.Fatalf("phase result never written")
	}

	if err := s.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	if snap = s.Snapshot(); snap.Phase != domain.PhaseRegions {
		t.Fatalf("expected region phase after provinces, got %s", snap.Phase)
	}
}

func TestClickEligibility(t *testing.T) {
	s, tm := newTestSession(domain.VariantExtended, nil)

	// Brussels is not a province shape; clicking it must not consume the question.
	if _, consumed := s.Click(domain.BrusselsID); consumed {
		t.Fatalf("BE10 must be ignored during the province phase")
	}
	// Unknown shapes (neighboring countries) are ignored too.
	if _, consumed := s.Click("FR10"); consumed {
		t.Fatalf("foreign shape must be ignored")
	}

	// A second click while the advance timer is pending is ignored: at most
	// one result per question.
	snap := s.Snapshot()
	if _, consumed := s.Click(correctClickID(t, snap)); !consumed {
		t.Fatalf("first click should be consumed")
	}
	if _, consumed := s.Click(wrongClickID(t, snap)); consumed {
		t.Fatalf("click during pending advance should be ignored")
	}
	tm.fire()

	if got := s.Snapshot().Score.Earned; got != 1 {
		t.Fatalf("expected exactly one point recorded, got %v", got)
	}
}

func TestRegionPhaseWrongRegionConsumed(t *testing.T) {
	s, tm := newTestSession(domain.VariantExtended, nil)
	playMapPhase(t, s, tm, true)
	if err := s.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}

	snap := s.Snapshot()
	if snap.Phase != domain.PhaseRegions {
		t.Fatalf("expected region phase, got %s", snap.Phase)
	}
	// A member of a different region is eligible, scored wrong, and consumes
	// the question.
	res, consumed := s.Click(wrongClickID(t, snap))
	if !consumed || res.Correct {
		t.Fatalf("expected consumed incorrect click, got consumed=%v correct=%v", consumed, res.Correct)
	}
	if len(res.Highlights) != 1 {
		t.Fatalf("expected only the clicked shape highlighted, got %v", res.Highlights)
	}
	tm.fire()
	if got := s.Snapshot().Index; got != 1 {
		t.Fatalf("expected advance past the consumed question, got index %d", got)
	}
}

func TestCapitalsPhase(t *testing.T) {
	s, tm := newTestSession(domain.VariantExtended, nil)
	playMapPhase(t, s, tm, true)
	if err := s.Next(); err != nil {
		t.Fatalf("next after provinces: %v", err)
	}
	playMapPhase(t, s, tm, true)
	if err := s.Next(); err != nil {
		t.Fatalf("next after regions: %v", err)
	}

	snap := s.Snapshot()
	if snap.Phase != domain.PhaseCapitals {
		t.Fatalf("expected capitals phase, got %s", snap.Phase)
	}
	if len(snap.ProvincePool) != 10 || len(snap.CapitalPool) != 11 || len(snap.Rows) != 11 {
		t.Fatalf("unexpected pools/rows: %d provinces, %d capitals, %d rows",
			len(snap.ProvincePool), len(snap.CapitalPool), len(snap.Rows))
	}

	// Invalid drops are silent no-ops.
	if s.Drop(domain.SlotProvince, 10, "Limburg") {
		t.Fatalf("Brussels row must reject province drops")
	}
	if s.Drop(domain.SlotProvince, -1, "Limburg") || s.Drop(domain.SlotProvince, 11, "Limburg") {
		t.Fatalf("out-of-range rows must be rejected")
	}
	if s.Drop(domain.SlotCapital, 0, "Parijs") {
		t.Fatalf("value outside the pool must be rejected")
	}
	if !s.Drop(domain.SlotProvince, 0, "Limburg") {
		t.Fatalf("valid drop rejected")
	}
	if s.Drop(domain.SlotProvince, 0, "Antwerpen") {
		t.Fatalf("occupied slot must reject a second drop")
	}
	if s.Drop(domain.SlotProvince, 1, "Limburg") {
		t.Fatalf("a province already out of the pool must be rejected")
	}

	// No feedback until the very last slot fills.
	var rest []string
	for _, key := range domain.FlemishKeys {
		if key != "Limburg" {
			rest = append(rest, key)
		}
	}
	rest = append(rest, domain.WalloonKeys...)
	for i, key := range rest {
		if !s.Drop(domain.SlotProvince, 1+i, key) {
			t.Fatalf("province drop rejected: %s", key)
		}
	}
	snap = s.Snapshot()
	for i, row := range snap.Rows {
		if row.Evaluated {
			t.Fatalf("row %d evaluated before all slots filled", i)
		}
	}

	order := append([]string{"Limburg"}, rest...)
	for i, key := range order {
		if !s.Drop(domain.SlotCapital, i, domain.Provinces[key].Capital) {
			t.Fatalf("capital drop rejected: row %d", i)
		}
	}
	if s.Snapshot().Finished {
		t.Fatalf("phase finished with the Brussels slot still empty")
	}
	if !s.Drop(domain.SlotCapital, 10, domain.BrusselsCapital) {
		t.Fatalf("Brussels drop rejected")
	}

	snap = s.Snapshot()
	if !snap.Finished {
		t.Fatalf("expected phase finished after last slot")
	}
	// Limburg sits in a Flemish row with its own capital; everything correct.
	if snap.Score.Earned != 10.5 || snap.Score.Possible != 10.5 {
		t.Fatalf("expected 10.5/10.5, got %+v", snap.Score)
	}
}

func TestNextRequiresFinishedPhase(t *testing.T) {
	s, _ := newTestSession(domain.VariantExtended, nil)
	if err := s.Next(); err != domain.ErrPhaseNotFinished {
		t.Fatalf("expected ErrPhaseNotFinished, got %v", err)
	}
	if err := s.Restart(); err != domain.ErrWrongPhase {
		t.Fatalf("expected restart to be rejected outside results, got %v", err)
	}
}

func TestFullRunAndRestartTally(t *testing.T) {
	s, tm := newTestSession(domain.VariantBasic, nil)

	// Round one: everything correct.
	playMapPhase(t, s, tm, true)
	if err := s.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	playMapPhase(t, s, tm, true)
	if err := s.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	fillCapitals(t, s, true)
	if err := s.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}

	snap := s.Snapshot()
	if snap.Phase != domain.PhaseResults {
		t.Fatalf("expected results after capitals in basic variant, got %s", snap.Phase)
	}
	if got := snap.Tallies[domain.PhaseProvinces]; got.Earned != 10 || got.Possible != 10 {
		t.Fatalf("province tally %+v", got)
	}
	if got := snap.Tallies[domain.PhaseRegions]; got.Earned != 3 || got.Possible != 3 {
		t.Fatalf("region tally %+v", got)
	}
	if got := snap.Tallies[domain.PhaseCapitals]; got.Earned != 10.5 || got.Possible != 10.5 {
		t.Fatalf("capitals tally %+v", got)
	}
	if snap.Session.Rounds != 1 || snap.Session.Earned != 23.5 || snap.Session.Possible != 23.5 {
		t.Fatalf("session tally after round one: %+v", snap.Session)
	}

	// Round two: everything wrong. The session tally keeps round one's points
	// and only grows its possible total.
	if err := s.Restart(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	snap = s.Snapshot()
	if snap.Phase != domain.PhaseProvinces || len(snap.Tallies) != 0 {
		t.Fatalf("expected fresh province phase after restart, got %+v", snap)
	}

	playMapPhase(t, s, tm, false)
	if err := s.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	playMapPhase(t, s, tm, false)
	if err := s.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	fillCapitals(t, s, false)
	snap = s.Snapshot()
	if !snap.Finished || snap.Score.Earned != 0 {
		t.Fatalf("expected 0 points for a fully wrong assignment, got %+v", snap.Score)
	}
	if err := s.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}

	snap = s.Snapshot()
	if snap.Session.Rounds != 2 || snap.Session.Earned != 23.5 || snap.Session.Possible != 47 {
		t.Fatalf("session tally after round two: %+v", snap.Session)
	}
}

func TestExtendedVariantQuestionsPhase(t *testing.T) {
	s, tm := newTestSession(domain.VariantExtended, nil)
	playMapPhase(t, s, tm, true)
	if err := s.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	playMapPhase(t, s, tm, true)
	if err := s.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	fillCapitals(t, s, true)
	if err := s.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}

	snap := s.Snapshot()
	if snap.Phase != domain.PhaseQuestions {
		t.Fatalf("expected questions phase in extended variant, got %s", snap.Phase)
	}

	score, err := s.SubmitFillIn(domain.FillInSubmission{
		SchoolProvince:  "Limburg",
		ProvinceCapital: "Hasselt",
		Municipality:    "Sint-Truiden",
		Neighbors:       []string{"Alken", "Wellen", "Borgloon", "Heers", "Gingelom", "Landen", "Zoutleeuw", "Nieuwerkerken"},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if score.Possible != 15 || score.Earned != 7 {
		t.Fatalf("expected 7/15 for part one only, got %v/%v", score.Earned, score.Possible)
	}
	if _, err := s.SubmitFillIn(domain.FillInSubmission{}); err != domain.ErrWrongPhase {
		t.Fatalf("expected second submit rejected, got %v", err)
	}

	if err := s.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	snap = s.Snapshot()
	if snap.Phase != domain.PhaseResults {
		t.Fatalf("expected results after questions, got %s", snap.Phase)
	}
	if snap.Session.Possible != 10+3+10.5+15 {
		t.Fatalf("expected session possible 38.5, got %v", snap.Session.Possible)
	}
}

func TestStaleAdvanceCallbacksIgnored(t *testing.T) {
	s, tm := newTestSession(domain.VariantBasic, nil)
	snap := s.Snapshot()
	if _, consumed := s.Click(correctClickID(t, snap)); !consumed {
		t.Fatalf("click not consumed")
	}

	tm.mu.Lock()
	stale := append([]func(){}, tm.pending...)
	tm.mu.Unlock()

	tm.fire()
	idx := s.Snapshot().Index

	// A duplicate fire of the same callback must not advance again.
	for _, fn := range stale {
		fn()
	}
	if got := s.Snapshot().Index; got != idx {
		t.Fatalf("duplicate timer fire advanced the session: %d -> %d", idx, got)
	}

	// Drive the session to results and restart; callbacks captured in the old
	// round carry a stale generation and must be dropped.
	playMapPhase(t, s, tm, true)
	_ = s.Next()
	playMapPhase(t, s, tm, true)
	_ = s.Next()
	fillCapitals(t, s, true)
	_ = s.Next()
	if err := s.Restart(); err != nil {
		t.Fatalf("restart: %v", err)
	}

	before := s.Snapshot().Index
	for _, fn := range stale {
		fn()
	}
	if got := s.Snapshot().Index; got != before {
		t.Fatalf("stale timer advanced the restarted session: %d -> %d", before, got)
	}
}

func TestSubscribeReceivesStateAndSpeech(t *testing.T) {
	s, tm := newTestSession(domain.VariantExtended, nil)
	ch, cancel := s.Subscribe()
	defer cancel()

	first := <-ch
	if first.Kind != EventState || first.State == nil {
		t.Fatalf("expected initial state event, got %+v", first)
	}

	if _, consumed := s.Click(correctClickID(t, *first.State)); !consumed {
		t.Fatalf("click not consumed")
	}
	tm.fire()

	sawSpeak := false
	sawState := false
	for i := 0; i < 8 && !(sawSpeak && sawState); i++ {
		select {
		case ev := <-ch:
			switch ev.Kind {
			case EventSpeak:
				sawSpeak = true
			case EventState:
				sawState = true
			}
		case <-time.After(time.Second):
			t.Fatalf("missing events: speak=%v state=%v", sawSpeak, sawState)
		}
	}
	if !sawSpeak || !sawState {
		t.Fatalf("expected both speak and state events")
	}
}

func TestSoundOffSuppressesSpeech(t *testing.T) {
	s, tm := newTestSession(domain.VariantExtended, nil)
	s.SetSound(false)

	ch, cancel := s.Subscribe()
	defer cancel()
	<-ch // initial snapshot

	snap := s.Snapshot()
	if _, consumed := s.Click(correctClickID(t, snap)); !consumed {
		t.Fatalf("click not consumed")
	}
	tm.fire()

	for {
		select {
		case ev := <-ch:
			if ev.Kind == EventSpeak {
				t.Fatalf("speak event emitted while sound is off")
			}
		case <-time.After(50 * time.Millisecond):
			return
		}
	}
}
