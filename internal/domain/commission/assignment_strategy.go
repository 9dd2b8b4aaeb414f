package commission

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/zenithcrm/backend/internal/domain/shared"
)

// AgentCandidate is one agent eligible for commission assignment
type AgentCandidate struct {
	AgentID     uuid.UUID
	AgentName   string
	ActiveDeals int // Open deals currently assigned to the agent
}

// AssignmentStrategy selects which agent receives the commission when a
// deal closes without an explicit agent. Strategies are passed into the
// engine rather than hidden behind a default query.
type AssignmentStrategy interface {
	// Name returns the strategy identifier
	Name() string
	// SelectAgent picks one agent from the candidate pool
	SelectAgent(ctx context.Context, candidates []AgentCandidate) (*AgentCandidate, error)
}

// RoundRobinStrategy cycles through the candidate pool in order,
// remembering its position across calls
type RoundRobinStrategy struct {
	mu   sync.Mutex
	next int
}

// NewRoundRobinStrategy creates a new round-robin assignment strategy
func NewRoundRobinStrategy() *RoundRobinStrategy {
	return &RoundRobinStrategy{}
}

// Name returns the strategy identifier
func (s *RoundRobinStrategy) Name() string {
	return "round_robin"
}

// SelectAgent picks the next candidate in rotation
func (s *RoundRobinStrategy) SelectAgent(_ context.Context, candidates []AgentCandidate) (*AgentCandidate, error) {
	if len(candidates) == 0 {
		return nil, shared.NewDomainError("NO_CANDIDATES", "No agents are available for assignment")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	selected := candidates[s.next%len(candidates)]
	s.next++
	return &selected, nil
}

// LeastLoadedStrategy picks the candidate with the fewest active deals,
// breaking ties by pool order
type LeastLoadedStrategy struct{}

// NewLeastLoadedStrategy creates a new least-loaded assignment strategy
func NewLeastLoadedStrategy() *LeastLoadedStrategy {
	return &LeastLoadedStrategy{}
}

// Name returns the strategy identifier
func (s *LeastLoadedStrategy) Name() string {
	return "least_loaded"
}

// SelectAgent picks the candidate with the lowest active deal count
func (s *LeastLoadedStrategy) SelectAgent(_ context.Context, candidates []AgentCandidate) (*AgentCandidate, error) {
	if len(candidates) == 0 {
		return nil, shared.NewDomainError("NO_CANDIDATES", "No agents are available for assignment")
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.ActiveDeals < best.ActiveDeals {
			best = c
		}
	}
	return &best, nil
}
