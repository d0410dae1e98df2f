package ipd

import "sort"

// replaceCount is replace_count capped at half the population.
func (s *GenerationSimulator) replaceCount() int {
	k := s.Config.Simulation.ReplaceCount
	if half := len(s.beings) / 2; k > half {
		k = half
	}
	return k
}

// rankAscending orders the network population by score, lowest first, ties
// broken by identity.
func (s *GenerationSimulator) rankAscending() []*NetworkBeing {
	ranked := append([]*NetworkBeing(nil), s.beings...)
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := s.scoreBoard[ranked[i].ID()], s.scoreBoard[ranked[j].ID()]
		if si != sj {
			return si < sj
		}
		return ranked[i].ID() < ranked[j].ID()
	})
	return ranked
}

// replace runs selection and replacement on the scored population:
//
//  1. the K parents (lowest scorers, or highest under clone_best) are cloned
//     without history and the clones join the population, inheriting the
//     parent's score;
//  2. every being, old and new, mutates with probability 1 - score/total;
//  3. the K lowest scoring originals are removed.
//
// The population size is unchanged and the score board is pruned to the
// survivors.
func (s *GenerationSimulator) replace(r *GenerationReport) {
	k := s.replaceCount()
	ranked := s.rankAscending()

	parents := ranked[:k]
	if s.Config.Simulation.SelectionPolicy == CloneBest {
		parents = ranked[len(ranked)-k:]
	}
	doomed := make(map[*NetworkBeing]bool, k)
	for _, b := range ranked[:k] {
		doomed[b] = true
	}

	pool := append([]*NetworkBeing(nil), s.beings...)
	for _, parent := range parents {
		clone := parent.Clone(s.ids)
		s.scoreBoard[clone.ID()] = s.scoreBoard[parent.ID()]
		pool = append(pool, clone)
		r.Cloned = append(r.Cloned, clone.ID())
		s.logger.Debug("cloned being", "parent", parent.ID(), "clone", clone.ID(), "score", s.scoreBoard[parent.ID()])
	}

	for _, b := range pool {
		if s.rng.Float64() >= mutationProbability(s.scoreBoard[b.ID()], r.TotalScore) {
			continue
		}
		rep := b.Mutate(s.rng, s.Config.Mutation)
		r.Mutated++
		r.Splits += rep.Splits
		r.NewConnections += rep.NewConnections
		if rep.Structural() {
			s.logger.Debug("structural mutation", "being", b.ID(), "splits", rep.Splits,
				"new_connections", rep.NewConnections, "hidden", b.NodeCount())
		}
	}

	survivors := make([]*NetworkBeing, 0, len(s.beings))
	for _, b := range pool {
		if doomed[b] {
			r.Removed = append(r.Removed, b.ID())
			s.logger.Debug("removed being", "being", b.ID(), "score", s.scoreBoard[b.ID()])
			delete(s.scoreBoard, b.ID())
			continue
		}
		survivors = append(survivors, b)
	}
	s.beings = survivors
}
