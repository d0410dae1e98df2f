package ipd

import (
	"fmt"
	"sort"
)

// Timeline accumulates per-generation series for plotting: cohort sizes and,
// per architecture label, population and mean score. Every series has one
// entry per recorded generation; a label first seen late is zero-padded for
// the generations before it and records zero when absent.
type Timeline struct {
	Labels      []string             `json:"labels"`
	Cooperators []int                `json:"cooperators"`
	Defectors   []int                `json:"defectors"`
	Population  map[string][]int     `json:"population"`
	MeanScore   map[string][]float64 `json:"meanScore"`
}

// NewTimeline creates an empty timeline.
func NewTimeline() *Timeline {
	return &Timeline{
		Population: make(map[string][]int),
		MeanScore:  make(map[string][]float64),
	}
}

// Len is the number of recorded generations.
func (t *Timeline) Len() int { return len(t.Labels) }

// Record appends one generation.
func (t *Timeline) Record(r *GenerationReport) {
	prior := len(t.Labels)
	t.Labels = append(t.Labels, fmt.Sprintf("Gen %d", r.Generation))
	t.Cooperators = append(t.Cooperators, r.Cooperators)
	t.Defectors = append(t.Defectors, r.Defectors)

	seen := make(map[string]bool, len(r.Architectures))
	for _, a := range r.Architectures {
		seen[a.Label] = true
		if _, ok := t.Population[a.Label]; !ok {
			t.Population[a.Label] = make([]int, prior)
			t.MeanScore[a.Label] = make([]float64, prior)
		}
		t.Population[a.Label] = append(t.Population[a.Label], a.Population)
		t.MeanScore[a.Label] = append(t.MeanScore[a.Label], a.MeanScore)
	}
	for label := range t.Population {
		if !seen[label] {
			t.Population[label] = append(t.Population[label], 0)
			t.MeanScore[label] = append(t.MeanScore[label], 0)
		}
	}
}

// ArchitectureLabels returns every label seen so far, sorted.
func (t *Timeline) ArchitectureLabels() []string {
	labels := make([]string, 0, len(t.Population))
	for l := range t.Population {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}
