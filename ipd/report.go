package ipd

import "time"

// BeingScore is one being's result for a generation.
type BeingScore struct {
	ID    string `json:"id"`
	Score int    `json:"score"`
	// Morality is meaningful only when HasMorality is set.
	Morality     float64 `json:"morality"`
	HasMorality  bool    `json:"hasMorality"`
	Cohort       Action  `json:"cohort"`
	Architecture string  `json:"architecture,omitempty"`
	Resident     bool    `json:"resident,omitempty"`
}

// GenerationReport summarises one generation. Scores are ordered best first
// and describe the tournament before replacement.
type GenerationReport struct {
	Generation    int                  `json:"generation"`
	Rounds        int                  `json:"rounds"`
	Scores        []BeingScore         `json:"scores"`
	Cooperators   int                  `json:"cooperators"`
	Defectors     int                  `json:"defectors"`
	Architectures []ArchitectureBucket `json:"architectures"`

	TotalScore  int     `json:"totalScore"`
	MeanScore   float64 `json:"meanScore"`
	MedianScore float64 `json:"medianScore"`
	ScoreStdev  float64 `json:"scoreStdev"`

	Cloned         []string `json:"cloned"`
	Removed        []string `json:"removed"`
	Mutated        int      `json:"mutated"`
	Splits         int      `json:"splits"`
	NewConnections int      `json:"newConnections"`

	Elapsed time.Duration `json:"elapsedNs"`
}

// Best returns the highest scoring entry, if any.
func (r *GenerationReport) Best() (BeingScore, bool) {
	if len(r.Scores) == 0 {
		return BeingScore{}, false
	}
	return r.Scores[0], true
}

// Worst returns the lowest scoring entry, if any.
func (r *GenerationReport) Worst() (BeingScore, bool) {
	if len(r.Scores) == 0 {
		return BeingScore{}, false
	}
	return r.Scores[len(r.Scores)-1], true
}
