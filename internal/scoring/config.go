package scoring

import "digitalmaturity/internal/model"

// Rubric bounds of every score
const (
	MinScore = 0.0
	MaxScore = 5.0
)

// Config holds the target ceiling and the priority cut points. Classify is
// the only place the cut points are applied.
type Config struct {
	TargetScore    float64
	HighGapAbove   float64 // gap > HighGapAbove is Alta
	MediumGapAbove float64 // gap > MediumGapAbove is Media, otherwise Bassa
}

// DefaultConfig targets the top band with cut points at 2 and 1
func DefaultConfig() Config {
	return Config{
		TargetScore:    MaxScore,
		HighGapAbove:   2,
		MediumGapAbove: 1,
	}
}

// Classify buckets a gap into a priority. It is monotonic in gap as long as
// HighGapAbove >= MediumGapAbove.
func (c Config) Classify(gap float64) model.Priority {
	switch {
	case gap > c.HighGapAbove:
		return model.PriorityHigh
	case gap > c.MediumGapAbove:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

var maturityLabels = map[int]string{
	1: "Iniziale",
	2: "Gestito",
	3: "Definito",
	4: "Quantitativamente Gestito",
	5: "Ottimizzato",
}

// MaturityLabel names the band of a maturity level
func MaturityLabel(level float64) string {
	if label, ok := maturityLabels[int(roundHalfUp(level))]; ok {
		return label
	}
	return maturityLabels[1]
}
