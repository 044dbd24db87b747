package session

import (
	"context"
	"time"
)

// Clock abstracts time so lifecycle rules can be tested deterministically.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now returns the current time.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock is the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Mutator changes a session inside an update's critical section. Returning an
// error aborts the update without writing anything.
type Mutator func(*Session) error

// Repository is the persistence contract the Manager is built on.
// Store is the file-backed implementation.
type Repository interface {
	Read(ctx context.Context, id string) (*Session, error)
	Create(ctx context.Context, s *Session) error
	Update(ctx context.Context, id string, fn Mutator) (*Session, error)
	// UpdateQuiet applies fn like Update but leaves LastActivityAt unchanged.
	UpdateQuiet(ctx context.Context, id string, fn Mutator) (*Session, error)
	Delete(ctx context.Context, id string) error
	// DeleteIf removes the record when remove returns true for its current value.
	DeleteIf(ctx context.Context, id string, remove func(*Session) bool) (bool, error)
	// DeleteCorrupt removes an undecodable record last written before cutoff.
	DeleteCorrupt(ctx context.Context, id string, cutoff time.Time) (bool, error)
	List(ctx context.Context) ([]string, error)
	Dir() string
}

var _ Repository = (*Store)(nil)
