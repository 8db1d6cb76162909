package models

// StatName names one of the five gauges
type StatName string

const (
	StatKnowledge  StatName = "knowledge"
	StatConfidence StatName = "confidence"
	StatStress     StatName = "stress"
	StatResources  StatName = "resources"
	StatReputation StatName = "reputation"
)

// StatNames lists the gauges in display order
var StatNames = []StatName{StatKnowledge, StatConfidence, StatStress, StatResources, StatReputation}

const (
	StatMin = 0
	StatMax = 100
)

// PlayerStats holds the five bounded gauges
type PlayerStats struct {
	Knowledge  int `json:"knowledge"`
	Confidence int `json:"confidence"`
	Stress     int `json:"stress"`
	Resources  int `json:"resources"`
	Reputation int `json:"reputation"`
}

// field returns a pointer to the gauge, or nil for unknown names.
func (s *PlayerStats) field(name StatName) *int {
	switch name {
	case StatKnowledge:
		return &s.Knowledge
	case StatConfidence:
		return &s.Confidence
	case StatStress:
		return &s.Stress
	case StatResources:
		return &s.Resources
	case StatReputation:
		return &s.Reputation
	}
	return nil
}

// Get returns the gauge value and whether name is a known stat.
func (s PlayerStats) Get(name StatName) (int, bool) {
	p := s.field(name)
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Apply adds delta to the named gauge, clamped to [StatMin, StatMax].
// Unknown names are ignored and reported as false.
func (s *PlayerStats) Apply(name StatName, delta int) bool {
	p := s.field(name)
	if p == nil {
		return false
	}
	*p = ClampAdd(*p, delta)
	return true
}

// ClampStat bounds v to the gauge range.
func ClampStat(v int) int {
	return min(max(v, StatMin), StatMax)
}

// ClampAdd returns clamp(v+delta) without overflowing for extreme deltas.
func ClampAdd(v, delta int) int {
	v = ClampStat(v)
	switch {
	case delta >= StatMax-v:
		return StatMax
	case delta <= StatMin-v:
		return StatMin
	}
	return v + delta
}
