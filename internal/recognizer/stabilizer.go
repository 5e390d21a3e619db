package recognizer

// Emission is a debounced stable label surfaced by the stabilizer.
type Emission struct {
	Label      string
	Confidence float64
}

type StabilizerOption func(*Stabilizer)

func WithConfidenceThreshold(t float64) StabilizerOption {
	return func(s *Stabilizer) {
		s.confidenceThreshold = t
	}
}

func WithStabilityThreshold(n int) StabilizerOption {
	return func(s *Stabilizer) {
		s.stabilityThreshold = n
	}
}

func WithCooldownThreshold(n int) StabilizerOption {
	return func(s *Stabilizer) {
		s.cooldownThreshold = n
	}
}

// Stabilizer debounces raw per-tick classifier output: a label is only
// surfaced after stabilityThreshold consecutive agreeing high-confidence
// ticks. Single-frame output is noisy at decision boundaries; requiring a
// streak trades added latency for fewer false positives.
//
// The cooldown counter is armed on every emission and decremented on
// non-emitting ticks, but it is never consulted before permitting the next
// emission. That matches the behavior this recognizer has always shipped
// with; wiring the check in would suppress re-emission and change observable
// output, so the counter stays tracked-but-unused.
type Stabilizer struct {
	confidenceThreshold float64
	stabilityThreshold  int
	cooldownThreshold   int

	lastCandidate string
	matches       int
	cooldown      int
}

func NewStabilizer(opts ...StabilizerOption) *Stabilizer {
	s := &Stabilizer{
		confidenceThreshold: 0.7,
		stabilityThreshold:  5,
		cooldownThreshold:   10,
	}
	for _, f := range opts {
		f(s)
	}
	return s
}

// Update advances the state machine by one completed inference tick. It never
// fails: the absence of a stable prediction is a normal, frequent outcome.
//
// A sub-threshold tick is transparent: it does not touch the candidate or the
// streak, it simply yields no emission. A confident tick extends the streak
// when the label repeats, or restarts it at 1 on a label change.
func (s *Stabilizer) Update(label string, confidence float64) (Emission, bool) {
	if confidence >= s.confidenceThreshold {
		if label == s.lastCandidate {
			s.matches++
		} else {
			s.lastCandidate = label
			s.matches = 1
		}
		if s.matches >= s.stabilityThreshold {
			s.cooldown = s.cooldownThreshold
			return Emission{Label: label, Confidence: confidence}, true
		}
	}

	if s.cooldown > 0 {
		s.cooldown--
	}
	return Emission{}, false
}

// Reset returns the stabilizer to its idle state.
func (s *Stabilizer) Reset() {
	s.lastCandidate = ""
	s.matches = 0
	s.cooldown = 0
}

// State exposes the internal counters for status reporting.
func (s *Stabilizer) State() (lastCandidate string, matches, cooldown int) {
	return s.lastCandidate, s.matches, s.cooldown
}
