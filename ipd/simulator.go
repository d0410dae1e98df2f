package ipd

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/baldhumanity/ipd-go/ipd/logging"
	"github.com/baldhumanity/ipd-go/ipd/nn"
)

// GenerationSimulator holds the state of the evolutionary tournament: the
// network population, any scripted residents, and the score board of the
// latest generation. It is not safe for concurrent use.
type GenerationSimulator struct {
	Config *Config

	generation int
	beings     []*NetworkBeing
	residents  []Being
	scoreBoard map[string]int
	timeline   *Timeline

	rng    *rand.Rand
	ids    *nn.IDAllocator
	logger *slog.Logger
}

// Option configures a GenerationSimulator.
type Option func(*GenerationSimulator)

// WithRand injects the random source used for rounds, brains and mutation.
func WithRand(rng *rand.Rand) Option {
	return func(s *GenerationSimulator) { s.rng = rng }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(s *GenerationSimulator) { s.logger = l }
}

// WithIDAllocator sets the allocator for brain and node identities.
func WithIDAllocator(ids *nn.IDAllocator) Option {
	return func(s *GenerationSimulator) { s.ids = ids }
}

// WithResidents adds beings that play every match but are never cloned,
// mutated or removed.
func WithResidents(residents ...Being) Option {
	return func(s *GenerationSimulator) { s.residents = append(s.residents, residents...) }
}

// NewRand returns a generator seeded with seed, or with the clock when seed is 0.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// NewGenerationSimulator creates a simulator with PopulationSize fresh
// network beings.
func NewGenerationSimulator(config *Config, opts ...Option) (*GenerationSimulator, error) {
	s, err := newSimulator(config, opts...)
	if err != nil {
		return nil, err
	}
	policy := config.DecisionPolicy()
	s.beings = make([]*NetworkBeing, 0, config.Simulation.PopulationSize)
	for i := 0; i < config.Simulation.PopulationSize; i++ {
		s.beings = append(s.beings, NewNetworkBeing(s.ids, s.rng, policy))
	}
	if err := s.checkIdentities(); err != nil {
		return nil, err
	}
	return s, nil
}

func newSimulator(config *Config, opts ...Option) (*GenerationSimulator, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	s := &GenerationSimulator{
		Config:     config,
		scoreBoard: make(map[string]int),
		timeline:   NewTimeline(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = NewRand(config.Simulation.Seed)
	}
	if s.ids == nil {
		s.ids = nn.NewIDAllocator()
	}
	for _, r := range s.residents {
		s.ids.Reserve(r.ID())
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	return s, nil
}

// checkIdentities rejects duplicate identities across the population and residents.
func (s *GenerationSimulator) checkIdentities() error {
	seen := make(map[string]bool, len(s.beings)+len(s.residents))
	for _, b := range s.participants() {
		if seen[b.ID()] {
			return fmt.Errorf("duplicate being identity %q", b.ID())
		}
		seen[b.ID()] = true
	}
	return nil
}

// AddResident registers a scripted (or any other) being as a permanent participant.
func (s *GenerationSimulator) AddResident(b Being) error {
	s.residents = append(s.residents, b)
	if err := s.checkIdentities(); err != nil {
		s.residents = s.residents[:len(s.residents)-1]
		return err
	}
	s.ids.Reserve(b.ID())
	return nil
}

// Generation is the number of generations run so far.
func (s *GenerationSimulator) Generation() int { return s.generation }

// Beings returns the network population in order.
func (s *GenerationSimulator) Beings() []*NetworkBeing {
	return append([]*NetworkBeing(nil), s.beings...)
}

// Residents returns the permanent participants.
func (s *GenerationSimulator) Residents() []Being {
	return append([]Being(nil), s.residents...)
}

// ScoreBoard returns a copy of the latest scores keyed by being identity. After
// a generation it covers exactly the surviving population, clones included,
// plus the residents.
func (s *GenerationSimulator) ScoreBoard() map[string]int {
	out := make(map[string]int, len(s.scoreBoard))
	for k, v := range s.scoreBoard {
		out[k] = v
	}
	return out
}

// Timeline returns the accumulated per-generation series.
func (s *GenerationSimulator) Timeline() *Timeline { return s.timeline }

// participants lists network beings followed by residents.
func (s *GenerationSimulator) participants() []Being {
	all := make([]Being, 0, len(s.beings)+len(s.residents))
	for _, b := range s.beings {
		all = append(all, b)
	}
	return append(all, s.residents...)
}

func (s *GenerationSimulator) drawRounds() int {
	lo, hi := s.Config.Simulation.RoundsMin, s.Config.Simulation.RoundsMax
	return lo + s.rng.Intn(hi-lo+1)
}

// RunGeneration executes a single generation: reset, round robin, aggregate,
// selection and replacement. A generation in progress always runs to
// completion; ctx is only checked before it starts. A being that cannot
// decide abandons the generation with its error.
func (s *GenerationSimulator) RunGeneration(ctx context.Context) (*GenerationReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	s.generation++
	rounds := s.drawRounds()

	participants := s.participants()
	s.scoreBoard = make(map[string]int, len(participants))
	for _, b := range participants {
		b.ClearHistory()
		s.scoreBoard[b.ID()] = 0
	}

	for _, a := range participants {
		for _, b := range participants {
			if err := s.playMatch(rounds, a, b); err != nil {
				return nil, fmt.Errorf("generation %d: %w", s.generation, err)
			}
			s.logger.Log(ctx, logging.LevelTrace, "match played", "p1", a.ID(), "p2", b.ID(),
				"p1_score", s.scoreBoard[a.ID()], "p2_score", s.scoreBoard[b.ID()])
		}
	}

	report := s.aggregate(rounds)
	s.replace(report)
	report.Elapsed = time.Since(start)
	s.timeline.Record(report)

	best, _ := report.Best()
	worst, _ := report.Worst()
	s.logger.Info("generation complete",
		"generation", report.Generation,
		"rounds", rounds,
		"cooperators", report.Cooperators,
		"defectors", report.Defectors,
		"best", best.ID,
		"best_score", best.Score,
		"worst_score", worst.Score,
		"architectures", len(report.Architectures),
		"elapsed", report.Elapsed,
	)
	return report, nil
}

// RunGenerations runs up to n generations, calling fn after each one. It
// stops early when ctx is cancelled between generations or fn fails.
func (s *GenerationSimulator) RunGenerations(ctx context.Context, n int, fn func(*GenerationReport) error) error {
	for i := 0; i < n; i++ {
		report, err := s.RunGeneration(ctx)
		if err != nil {
			return err
		}
		if fn != nil {
			if err := fn(report); err != nil {
				return err
			}
		}
	}
	return nil
}

// playMatch plays rounds consecutive rounds of a against b. Both sides decide
// on the state visible before the round; self-play credits both seats.
func (s *GenerationSimulator) playMatch(rounds int, a, b Being) error {
	for i := 0; i < rounds; i++ {
		p1, err := a.Decide(b.ID())
		if err != nil {
			return fmt.Errorf("being %s against %s: %w", a.ID(), b.ID(), err)
		}
		p2, err := b.Decide(a.ID())
		if err != nil {
			return fmt.Errorf("being %s against %s: %w", b.ID(), a.ID(), err)
		}
		a.AddExperience(b.ID(), p2, p1)
		b.AddExperience(a.ID(), p1, p2)

		s1, s2 := Payoff(p1, p2)
		s.scoreBoard[a.ID()] += s1
		s.scoreBoard[b.ID()] += s2
	}
	return nil
}

// aggregate computes scores, cohorts and architecture buckets for the
// tournament just played.
func (s *GenerationSimulator) aggregate(rounds int) *GenerationReport {
	r := &GenerationReport{
		Generation: s.generation,
		Rounds:     rounds,
		Scores:     make([]BeingScore, 0, len(s.beings)+len(s.residents)),
	}
	for _, b := range s.beings {
		r.Scores = append(r.Scores, s.scoreEntry(b, b.Architecture(), false))
	}
	for _, b := range s.residents {
		r.Scores = append(r.Scores, s.scoreEntry(b, "", true))
	}
	sort.SliceStable(r.Scores, func(i, j int) bool {
		if r.Scores[i].Score != r.Scores[j].Score {
			return r.Scores[i].Score > r.Scores[j].Score
		}
		return r.Scores[i].ID < r.Scores[j].ID
	})

	values := make([]int, 0, len(r.Scores))
	for _, e := range r.Scores {
		if e.Cohort == Cooperate {
			r.Cooperators++
		} else {
			r.Defectors++
		}
		r.TotalScore += e.Score
		values = append(values, e.Score)
	}
	st := summarizeScores(values)
	r.MeanScore, r.MedianScore, r.ScoreStdev = st.mean, st.median, st.stdev
	r.Architectures = bucketArchitectures(s.beings, s.scoreBoard)
	return r
}

// scoreEntry classifies a being. Beings without recorded actions fall into
// the DEFECT cohort.
func (s *GenerationSimulator) scoreEntry(b Being, arch string, resident bool) BeingScore {
	m, ok := b.Morality()
	cohort := Defect
	if ok && m >= s.Config.Simulation.CooperationThreshold {
		cohort = Cooperate
	}
	return BeingScore{
		ID:           b.ID(),
		Score:        s.scoreBoard[b.ID()],
		Morality:     m,
		HasMorality:  ok,
		Cohort:       cohort,
		Architecture: arch,
		Resident:     resident,
	}
}

// MutateAll applies one unconditional mutation pass to every network being.
func (s *GenerationSimulator) MutateAll() nn.MutationReport {
	var total nn.MutationReport
	for _, b := range s.beings {
		r := b.Mutate(s.rng, s.Config.Mutation)
		total.NodesMutated += r.NodesMutated
		total.WeightsChanged += r.WeightsChanged
		total.BiasesChanged += r.BiasesChanged
		total.StrengthsChanged += r.StrengthsChanged
		total.Splits += r.Splits
		total.NewConnections += r.NewConnections
	}
	s.logger.Info("mutated population", "beings", len(s.beings), "splits", total.Splits, "new_connections", total.NewConnections)
	return total
}
