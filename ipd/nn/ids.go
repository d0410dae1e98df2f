package nn

import "fmt"

// IDAllocator hands out node and brain identities.
// Each simulator (or test) owns its own allocator so identities never leak
// between independent runs. It is not safe for concurrent use.
type IDAllocator struct {
	NextNode  int
	NextBrain int

	// reserved brain identities are skipped by BrainID.
	reserved map[string]bool
}

// NewIDAllocator creates an allocator whose first ids are node-1 and Person-1.
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{NextNode: 1, NextBrain: 1}
}

// Reserve marks a brain identity as taken by someone else, so BrainID never
// returns it.
func (a *IDAllocator) Reserve(id string) {
	if a.reserved == nil {
		a.reserved = make(map[string]bool)
	}
	a.reserved[id] = true
}

// NodeID returns the next node identity.
func (a *IDAllocator) NodeID() string {
	id := fmt.Sprintf("node-%d", a.NextNode)
	a.NextNode++
	return id
}

// BrainID returns the next brain identity that is not reserved.
func (a *IDAllocator) BrainID() string {
	for {
		id := fmt.Sprintf("Person-%d", a.NextBrain)
		a.NextBrain++
		if !a.reserved[id] {
			return id
		}
	}
}
