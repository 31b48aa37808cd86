package domain

// Rider represents a rider in the system.
type Rider struct {
	ID   int64
	Name string
}
