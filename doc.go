// Package ipdgo hosts an evolving Iterated Prisoner's Dilemma simulator.
//
// Each being decides whether to cooperate or defect with a small feed-forward
// network fed by three features of its history against the current
// counterpart. Every generation all beings play a round robin tournament, the
// worst performers are replaced by clones and every network is mutated with a
// probability that falls as its share of the total score rises. Mutation can
// grow a network by splitting connections and adding new ones.
//
// The engine lives in package ipd and the network graph in ipd/nn.
// Persistence, observation and logging are in ipd/store, ipd/observer and
// ipd/logging, and cmd/ipdsim is the command line front end.
//
// Basic usage:
//
//	// Load configuration
//	config, err := ipd.LoadConfig("configs/ipd-config")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//
//	// Create a new population
//	sim, err := ipd.NewGenerationSimulator(config)
//	if err != nil {
//		log.Fatalf("Error creating simulator: %v", err)
//	}
//
//	// Run 100 generations and watch cooperation evolve
//	err = sim.RunGenerations(ctx, 100, func(r *ipd.GenerationReport) error {
//		fmt.Printf("gen %d: %d cooperate, %d defect\n", r.Generation, r.Cooperators, r.Defectors)
//		return nil
//	})
package ipdgo
