package ipd

// Experience records one round against a counterpart from the being's side.
type Experience struct {
	Us   Action `json:"us"`
	Them Action `json:"them"`
}

// History maps a counterpart identity to the rounds played against it,
// oldest first.
type History map[string][]Experience

// Clone returns a deep copy of h.
func (h History) Clone() History {
	out := make(History, len(h))
	for id, xs := range h {
		out[id] = append([]Experience(nil), xs...)
	}
	return out
}

// Rounds converts the experiences against counterpart into rounds with this
// being as P1.
func (h History) Rounds(counterpart string) []Round {
	xs := h[counterpart]
	rounds := make([]Round, len(xs))
	for i, x := range xs {
		rounds[i] = Round{P1: x.Us, P2: x.Them}
	}
	return rounds
}

// Being is a participant in the tournament.
type Being interface {
	// ID returns the being's identity.
	ID() string
	// Decide picks the next action against counterpart. A being without a
	// policy returns ErrNotImplemented.
	Decide(counterpart string) (Action, error)
	// AddExperience appends a round against counterpart.
	AddExperience(counterpart string, theirs, ours Action)
	// Morality is the fraction of the being's own recorded actions that were
	// COOPERATE. ok is false when nothing has been recorded yet.
	Morality() (value float64, ok bool)
	History() History
	SetHistory(h History)
	// ClearHistory archives the live history into the warehouse and resets it.
	ClearHistory()
	Warehouse() []History
}

// memory is the history bookkeeping shared by every being implementation.
type memory struct {
	history   History
	warehouse []History
	// warehouseLimit bounds the number of archived generations; 0 keeps all.
	warehouseLimit int

	// Extra is free-form caller bookkeeping. The engine never reads it.
	Extra map[string]any
}

func newMemory(warehouseLimit int) memory {
	return memory{
		history:        make(History),
		warehouseLimit: warehouseLimit,
		Extra:          make(map[string]any),
	}
}

func (m *memory) AddExperience(counterpart string, theirs, ours Action) {
	if m.history == nil {
		m.history = make(History)
	}
	m.history[counterpart] = append(m.history[counterpart], Experience{Us: ours, Them: theirs})
}

func (m *memory) Morality() (float64, bool) {
	total, coop := 0, 0
	for _, xs := range m.history {
		for _, x := range xs {
			total++
			if x.Us == Cooperate {
				coop++
			}
		}
	}
	if total == 0 {
		return 0, false
	}
	return float64(coop) / float64(total), true
}

// History returns a deep copy of the live history.
func (m *memory) History() History { return m.history.Clone() }

// SetHistory replaces the live history with a copy of h.
func (m *memory) SetHistory(h History) {
	if h == nil {
		m.history = make(History)
		return
	}
	m.history = h.Clone()
}

// ClearHistory archives a deep copy of the history, empty or not, and resets it.
func (m *memory) ClearHistory() {
	m.warehouse = append(m.warehouse, m.history.Clone())
	if m.warehouseLimit > 0 && len(m.warehouse) > m.warehouseLimit {
		m.warehouse = append([]History(nil), m.warehouse[len(m.warehouse)-m.warehouseLimit:]...)
	}
	m.history = make(History)
}

// Warehouse returns copies of the archived histories, oldest first, one per
// ClearHistory call. The engine clears once per generation, so for a being
// present since the start entry g holds generation g (entry 0 is the empty
// history before the first tournament) until warehouse_limit trims the front.
func (m *memory) Warehouse() []History {
	out := make([]History, len(m.warehouse))
	for i, h := range m.warehouse {
		out[i] = h.Clone()
	}
	return out
}

func (m *memory) setWarehouse(ws []History) {
	m.warehouse = make([]History, 0, len(ws))
	for _, h := range ws {
		m.warehouse = append(m.warehouse, h.Clone())
	}
}
