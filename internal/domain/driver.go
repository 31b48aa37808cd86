package domain

import "time"

// Driver represents a driver in the system.
type Driver struct {
	ID         int64
	Name       string
	IsOnline   bool
	LastSeenAt *time.Time
}
