package types

// IDGenerator produces fresh unique identifiers. Migration and commit take one
// so that their output is deterministic under a fixed generator.
type IDGenerator interface {
	NewID() string
}

// IDFunc adapts an ordinary function to IDGenerator.
type IDFunc func() string

// NewID calls f.
func (f IDFunc) NewID() string { return f() }
