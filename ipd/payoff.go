package ipd

import "fmt"

// Action is the move a being makes in a single round.
type Action int

const (
	Cooperate Action = iota
	Defect
)

func (a Action) String() string {
	switch a {
	case Cooperate:
		return "COOPERATE"
	case Defect:
		return "DEFECT"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// ParseAction maps "COOPERATE" or "DEFECT" to an Action.
func ParseAction(s string) (Action, error) {
	switch s {
	case "COOPERATE":
		return Cooperate, nil
	case "DEFECT":
		return Defect, nil
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	if a != Cooperate && a != Defect {
		return nil, fmt.Errorf("cannot marshal %s", a)
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	v, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Round is one simultaneous pair of moves.
type Round struct {
	P1 Action
	P2 Action
}

// Score is the cumulative payoff of both sides of a sequence of rounds.
type Score struct {
	P1 int
	P2 int
}

// Payoff scores a single round:
//
//	C/C -> 3,3   C/D -> 1,5   D/C -> 5,1   D/D -> 1,1
func Payoff(p1, p2 Action) (int, int) {
	if p1 == Cooperate {
		if p2 == Cooperate {
			return 3, 3
		}
		return 1, 5
	}
	if p2 == Cooperate {
		return 5, 1
	}
	return 1, 1
}

// ScoreRounds sums the payoffs of every round. An empty sequence scores 0,0.
func ScoreRounds(rounds []Round) Score {
	var s Score
	for _, r := range rounds {
		a, b := Payoff(r.P1, r.P2)
		s.P1 += a
		s.P2 += b
	}
	return s
}
