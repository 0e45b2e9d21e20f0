// Package domain defines the core domain models for objhost.
package domain

import (
	"context"
	"regexp"
)

// MaxClassIDLength bounds class identifiers.
const MaxClassIDLength = 128

var classIDPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.-]*$`)

// Factory creates a new instance of a class. Instances that implement
// io.Closer are closed when their object is released.
type Factory func(ctx context.Context) (any, error)

// Class is a creatable class exposed to external callers.
type Class struct {
	// ID is the externally visible class identifier (e.g. "objhost.Store").
	ID string `json:"id"`

	// Description is a human-readable summary.
	Description string `json:"description,omitempty"`

	// Factory builds instances.
	Factory Factory `json:"-"`
}

// Validate checks that the class can be registered.
func (c Class) Validate() error {
	if c.ID == "" {
		return ErrObjectValidation.WithDetails("class id is required")
	}
	if len(c.ID) > MaxClassIDLength || !classIDPattern.MatchString(c.ID) {
		return ErrObjectValidation.WithDetails("invalid class id: " + c.ID)
	}
	if c.Factory == nil {
		return ErrObjectValidation.WithDetails("class " + c.ID + " has no factory")
	}
	return nil
}

// Describer is implemented by instances that can report their state.
type Describer interface {
	Describe() map[string]any
}
