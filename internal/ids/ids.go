// Package ids provides the identifier generators used for id back-fill during
// migration and for items created by a commit.
package ids

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/TomasRacil/WanderPlan-sub000/pkg/types"
)

// UUID generates UUID v7 identifiers.
type UUID struct{}

var _ types.IDGenerator = UUID{}

// NewID returns a new UUID v7 string.
func (UUID) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}

// Sequence generates predictable ids of the form "<prefix>-<n>", starting at 1.
// It makes migrations reproducible under a fixed seed.
type Sequence struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewSequence returns a Sequence that starts counting at 1.
func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix, next: 1}
}

// NewID returns the next id in the sequence.
func (s *Sequence) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("%s-%d", s.prefix, s.next)
	s.next++
	return id
}
