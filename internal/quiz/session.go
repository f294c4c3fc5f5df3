package quiz

import (
	"math/rand"
	"sync"
	"time"

	"provincie-quiz-service/internal/domain"
)

// Event is what subscribers receive: either a full state snapshot or a phrase
// to speak. Speech delivery is fire-and-forget; a dropped event never blocks
// or alters quiz progression.
type Event struct {
	Kind  string    `json:"kind"`
	State *Snapshot `json:"state,omitempty"`
	Text  string    `json:"text,omitempty"`
}

const (
	EventState = "state"
	EventSpeak = "speak"
)

// Snapshot is a consistent view of a session for the presentation layer.
type Snapshot struct {
	SessionID string          `json:"sessionId"`
	Phase     domain.Phase    `json:"phase"`
	Variant   domain.Variant  `json:"variant"`
	Question  *domain.Question `json:"question,omitempty"`
	Index     int             `json:"index"`

	Results   map[string]*bool    `json:"results,omitempty"`
	LastClick *domain.ClickResult `json:"lastClick,omitempty"`
	Score     domain.ScoreTally   `json:"score"`
	Finished  bool                `json:"finished"`
	Sound     bool                `json:"sound"`

	ProvincePool []string            `json:"provincePool,omitempty"`
	CapitalPool  []string            `json:"capitalPool,omitempty"`
	Rows         []domain.CapitalRow `json:"rows,omitempty"`

	FillIn *domain.FillInScore `json:"fillIn,omitempty"`

	Tallies   map[domain.Phase]domain.ScoreTally `json:"tallies"`
	Session   domain.SessionTally                `json:"session"`
	UpdatedAt time.Time                          `json:"updatedAt"`
}

// TimerFunc schedules fn to run once after d. Injected so tests can fire the
// auto-advance deterministically.
type TimerFunc func(d time.Duration, fn func())

// Options configure a new session. Zero values fall back to the extended
// variant, an 800ms auto-advance, wall clock, seeded shuffle, and
// time.AfterFunc scheduling.
type Options struct {
	Variant         domain.Variant
	AdvanceDelay    time.Duration
	Clock           func() time.Time
	Rand            *rand.Rand
	Timer           TimerFunc
	OnPhaseFinished func(domain.PhaseResult)
}

// DefaultAdvanceDelay is how long a map answer stays highlighted before the
// next question appears.
const DefaultAdvanceDelay = 800 * time.Millisecond

// Session is the in-memory quiz state machine for one player. All transitions
// happen on discrete events under the session lock; the only asynchronous
// path is the auto-advance timer, superseded by generation checks on restart.
type Session struct {
	id              string
	variant         domain.Variant
	advanceDelay    time.Duration
	now             func() time.Time
	rnd             *rand.Rand
	timer           TimerFunc
	onPhaseFinished func(domain.PhaseResult)
	fillKey         domain.FillInKey

	mu             sync.RWMutex
	gen            int
	phase          domain.Phase
	question       *domain.Question
	order          []string
	idx            int
	results        map[string]*bool
	score          domain.ScoreTally
	finished       bool
	pendingAdvance bool
	lastClick      *domain.ClickResult
	sound          bool

	provincePool []string
	capitalPool  []string
	rows         []domain.CapitalRow
	fillIn       *domain.FillInScore

	tallies map[domain.Phase]domain.ScoreTally
	session domain.SessionTally

	subscribers map[chan Event]struct{}
}

// NewSession creates a session and immediately starts the province phase.
func NewSession(id string, opts Options) *Session {
	if opts.Variant == "" {
		opts.Variant = domain.VariantExtended
	}
	if opts.AdvanceDelay == 0 {
		opts.AdvanceDelay = DefaultAdvanceDelay
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Timer == nil {
		opts.Timer = func(d time.Duration, fn func()) { time.AfterFunc(d, fn) }
	}
	s := &Session{
		id:              id,
		variant:         opts.Variant,
		advanceDelay:    opts.AdvanceDelay,
		now:             opts.Clock,
		rnd:             opts.Rand,
		timer:           opts.Timer,
		onPhaseFinished: opts.OnPhaseFinished,
		fillKey:         domain.DefaultFillInKey(),
		sound:           true,
		tallies:         make(map[domain.Phase]domain.ScoreTally),
		subscribers:     make(map[chan Event]struct{}),
	}
	s.mu.Lock()
	s.startPhaseLocked(domain.PhaseProvinces)
	s.mu.Unlock()
	return s
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// IsEmpty reports whether nobody is subscribed to the session.
func (s *Session) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers) == 0
}

// Click handles a map click. Returns the scored result and whether the click
// was consumed; an ineligible shape, a finished phase, or a click while the
// advance timer is pending are all silent no-ops.
func (s *Session) Click(clickedID string) (domain.ClickResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.question == nil || s.finished || s.pendingAdvance {
		return domain.ClickResult{}, false
	}
	switch s.phase {
	case domain.PhaseProvinces:
		if !domain.IsProvinceID(clickedID) {
			return domain.ClickResult{}, false
		}
	case domain.PhaseRegions:
		if !domain.IsRegionMemberID(clickedID) {
			return domain.ClickResult{}, false
		}
	default:
		return domain.ClickResult{}, false
	}

	res := ScoreMapClick(*s.question, clickedID)
	ok := res.Correct
	s.results[s.question.Key] = &ok
	if ok {
		s.score.Earned++
	}
	s.lastClick = &res
	s.broadcastStateLocked()
	if ok {
		s.speakLocked("Juist!")
	} else {
		s.speakLocked("Niet juist.")
	}

	s.pendingAdvance = true
	gen := s.gen
	s.timer(s.advanceDelay, func() { s.advance(gen) })
	return res, true
}

// advance is the timer callback; a stale generation means the session was
// restarted in the meantime and the transition is dropped.
func (s *Session) advance(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || !s.pendingAdvance {
		return
	}
	s.pendingAdvance = false
	s.nextQuestionLocked()
}

// Drop handles a drag of a province or capital onto a row slot. An occupied
// slot, the Brussels row's missing province slot, or a value absent from its
// pool are silent no-ops. Once the last required slot fills, every row is
// evaluated at once and the phase finishes.
func (s *Session) Drop(kind domain.SlotKind, row int, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != domain.PhaseCapitals || s.finished {
		return false
	}
	if row < 0 || row >= len(s.rows) {
		return false
	}
	r := &s.rows[row]
	switch kind {
	case domain.SlotProvince:
		if row == brusselsRowIndex || r.Province != "" {
			return false
		}
		if !removeFromPool(&s.provincePool, value) {
			return false
		}
		r.Province = value
	case domain.SlotCapital:
		if r.Capital != "" {
			return false
		}
		if !removeFromPool(&s.capitalPool, value) {
			return false
		}
		r.Capital = value
	default:
		return false
	}

	if CapitalRowsFilled(s.rows) {
		rows, points := ScoreCapitalRows(s.rows)
		s.rows = rows
		s.score.Earned = points
		s.finished = true
	}
	s.broadcastStateLocked()
	return true
}

// SubmitFillIn scores the free-text sheet once and finishes the phase.
func (s *Session) SubmitFillIn(sub domain.FillInSubmission) (domain.FillInScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != domain.PhaseQuestions || s.finished {
		return domain.FillInScore{}, domain.ErrWrongPhase
	}
	score := ScoreFillIn(s.fillKey, sub, true)
	s.fillIn = &score
	s.score = domain.ScoreTally{Earned: score.Earned, Possible: score.Possible}
	s.finished = true
	s.broadcastStateLocked()
	return score, nil
}

// Next folds the finished phase's score into the per-phase and session
// tallies and starts the next phase in sequence, or the results screen after
// the last one.
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == domain.PhaseResults {
		return domain.ErrWrongPhase
	}
	if !s.finished {
		return domain.ErrPhaseNotFinished
	}

	s.tallies[s.phase] = s.score
	s.session.Earned += s.score.Earned
	s.session.Possible += s.score.Possible

	next := s.nextPhase()
	if next == domain.PhaseResults {
		s.session.Rounds++
	}
	s.startPhaseLocked(next)
	return nil
}

func (s *Session) nextPhase() domain.Phase {
	switch s.phase {
	case domain.PhaseProvinces:
		return domain.PhaseRegions
	case domain.PhaseRegions:
		return domain.PhaseCapitals
	case domain.PhaseCapitals:
		if s.variant == domain.VariantExtended {
			return domain.PhaseQuestions
		}
		return domain.PhaseResults
	default:
		return domain.PhaseResults
	}
}

// Restart zeroes the per-phase tallies and re-enters the province phase with
// a fresh shuffle. The cumulative session tally survives; only a process
// restart resets it.
func (s *Session) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != domain.PhaseResults {
		return domain.ErrWrongPhase
	}
	s.tallies = make(map[domain.Phase]domain.ScoreTally)
	s.startPhaseLocked(domain.PhaseProvinces)
	return nil
}

// SetSound toggles speech events for the session.
func (s *Session) SetSound(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sound = on
	s.broadcastStateLocked()
}

func (s *Session) startPhaseLocked(phase domain.Phase) {
	s.gen++
	s.pendingAdvance = false
	s.phase = phase
	s.finished = false
	s.idx = 0
	s.question = nil
	s.lastClick = nil
	s.order = nil
	s.results = nil
	s.provincePool = nil
	s.capitalPool = nil
	s.rows = nil
	s.fillIn = nil
	s.score = domain.ScoreTally{}

	switch phase {
	case domain.PhaseProvinces:
		s.order = s.shuffled(domain.ProvinceKeys)
		s.results = unanswered(domain.ProvinceKeys)
		s.score.Possible = float64(len(s.order))
		s.question = &domain.Question{Kind: domain.KindProvince, Key: s.order[0]}
	case domain.PhaseRegions:
		s.order = s.shuffled(domain.RegionKeys)
		s.results = unanswered(domain.RegionKeys)
		s.score.Possible = float64(len(s.order))
		s.question = &domain.Question{Kind: domain.KindRegion, Key: s.order[0]}
	case domain.PhaseCapitals:
		s.provincePool = s.shuffled(domain.ProvinceKeys)
		s.capitalPool = s.shuffled(domain.CapitalPool())
		s.rows = make([]domain.CapitalRow, domain.CapitalRowCount)
		s.score.Possible = float64(len(domain.ProvinceKeys)) + 0.5
	case domain.PhaseQuestions:
		s.score.Possible = 15
	}

	s.broadcastStateLocked()
	switch {
	case s.question != nil:
		s.speakLocked(Prompt(*s.question))
	case phase == domain.PhaseCapitals:
		s.speakLocked("Sleep de provincies en hun hoofdplaatsen naar de juiste vakjes.")
	case phase == domain.PhaseQuestions:
		s.speakLocked("Vul de zinnen aan.")
	}
}

func (s *Session) nextQuestionLocked() {
	s.idx++
	s.lastClick = nil
	if s.idx >= len(s.order) {
		s.finished = true
		s.question = nil
		if s.onPhaseFinished != nil {
			res := domain.PhaseResult{
				Phase:    s.phase,
				Earned:   s.score.Earned,
				Possible: s.score.Possible,
				Results:  copyResults(s.results),
			}
			go s.onPhaseFinished(res)
		}
		s.broadcastStateLocked()
		return
	}
	key := s.order[s.idx]
	kind := domain.KindProvince
	if s.phase == domain.PhaseRegions {
		kind = domain.KindRegion
	}
	s.question = &domain.Question{Kind: kind, Key: key}
	s.broadcastStateLocked()
	s.speakLocked(Prompt(*s.question))
}

// Prompt phrases a map question the way it is spoken to the player.
func Prompt(q domain.Question) string {
	if q.Kind == domain.KindProvince {
		if p, ok := domain.Provinces[q.Key]; ok {
			return "Waar ligt " + p.NameNL + "?"
		}
	}
	return "Waar ligt " + q.Key + "?"
}

// Subscribe returns a channel of session events. The caller must invoke the
// returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- Event{Kind: EventState, State: &initial}

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastStateLocked() {
	snap := s.snapshotLocked()
	s.sendLocked(Event{Kind: EventState, State: &snap})
}

func (s *Session) speakLocked(text string) {
	if !s.sound {
		return
	}
	s.sendLocked(Event{Kind: EventSpeak, Text: text})
}

func (s *Session) sendLocked(ev Event) {
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			// Drop the oldest pending event so a slow client never blocks
			// the state machine.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID: s.id,
		Phase:     s.phase,
		Variant:   s.variant,
		Index:     s.idx,
		Results:   copyResults(s.results),
		Score:     s.score,
		Finished:  s.finished,
		Sound:     s.sound,
		Session:   s.session,
		UpdatedAt: s.now(),
	}
	if s.question != nil {
		q := *s.question
		snap.Question = &q
	}
	if s.lastClick != nil {
		c := *s.lastClick
		snap.LastClick = &c
	}
	if s.phase == domain.PhaseCapitals {
		snap.ProvincePool = append([]string(nil), s.provincePool...)
		snap.CapitalPool = append([]string(nil), s.capitalPool...)
		snap.Rows = append([]domain.CapitalRow(nil), s.rows...)
	}
	if s.fillIn != nil {
		f := *s.fillIn
		snap.FillIn = &f
	}
	snap.Tallies = make(map[domain.Phase]domain.ScoreTally, len(s.tallies))
	for phase, tally := range s.tallies {
		snap.Tallies[phase] = tally
	}
	return snap
}

func (s *Session) shuffled(keys []string) []string {
	out := append([]string(nil), keys...)
	s.rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func unanswered(keys []string) map[string]*bool {
	m := make(map[string]*bool, len(keys))
	for _, k := range keys {
		m[k] = nil
	}
	return m
}

func copyResults(in map[string]*bool) map[string]*bool {
	if in == nil {
		return nil
	}
	out := make(map[string]*bool, len(in))
	for k, v := range in {
		if v == nil {
			out[k] = nil
			continue
		}
		b := *v
		out[k] = &b
	}
	return out
}

func removeFromPool(pool *[]string, value string) bool {
	for i, v := range *pool {
		if v == value {
			*pool = append((*pool)[:i], (*pool)[i+1:]...)
			return true
		}
	}
	return false
}
