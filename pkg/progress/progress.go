// Package progress models the phase-then-percentage progress stream shared
// by uploads, downloads and long local tool runs.
package progress

type Phase int

const (
	PhasePercent Phase = iota
	PhaseFetching
	PhasePreparing
	PhaseStarting
)

// Legacy numeric codes carried on the same channel as 0..100.
const (
	CodeFetching  = -1
	CodePreparing = -2
	CodeStarting  = -3
)

type Event struct {
	Phase   Phase
	Percent int
}

type Func func(Event)

func Fetching() Event  { return Event{Phase: PhaseFetching} }
func Preparing() Event { return Event{Phase: PhasePreparing} }
func Starting() Event  { return Event{Phase: PhaseStarting} }

// Percent clamps p into 0..100.
func Percent(p int) Event {
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	return Event{Phase: PhasePercent, Percent: p}
}

// Code returns the wire value: the percentage, or the negative phase code.
func (e Event) Code() int {
	switch e.Phase {
	case PhaseFetching:
		return CodeFetching
	case PhasePreparing:
		return CodePreparing
	case PhaseStarting:
		return CodeStarting
	default:
		return e.Percent
	}
}

func FromCode(code int) Event {
	switch code {
	case CodeFetching:
		return Fetching()
	case CodePreparing:
		return Preparing()
	case CodeStarting:
		return Starting()
	default:
		return Percent(code)
	}
}

func (e Event) IsPhase() bool {
	return e.Phase != PhasePercent
}

// Nop discards events.
func Nop(Event) {}

// Tracker turns byte counts into percentage events, emitting only on change.
type Tracker struct {
	Total   int64
	OnEvent Func
	done    int64
	last    int
}

func NewTracker(total int64, fn Func) *Tracker {
	if fn == nil {
		fn = Nop
	}
	return &Tracker{Total: total, OnEvent: fn, last: -1}
}

func (t *Tracker) Write(p []byte) (int, error) {
	t.done += int64(len(p))
	t.emit()
	return len(p), nil
}

// Finish reports 100 if it has not been reported yet.
func (t *Tracker) Finish() {
	if t.last != 100 {
		t.last = 100
		t.OnEvent(Percent(100))
	}
}

func (t *Tracker) emit() {
	if t.Total <= 0 {
		return
	}
	pct := int(t.done * 100 / t.Total)
	if pct > 100 {
		pct = 100
	}
	if pct != t.last {
		t.last = pct
		t.OnEvent(Percent(pct))
	}
}
