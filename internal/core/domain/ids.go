// Package domain defines the core domain models for objhost.
package domain

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Identifier prefixes.
const (
	ObjectIDPrefix       = "ohob-"
	RegistrationIDPrefix = "ohrg-"
	RunIDPrefix          = "ohrn-"
	RequestIDPrefix      = "ohrq-"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// newID returns prefix followed by a lowercase ULID.
func newID(prefix string) string {
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	entropyMu.Unlock()
	return prefix + strings.ToLower(id.String())
}

// NewObjectID generates an object ID: ohob-{ulid_lowercase}.
func NewObjectID() string { return newID(ObjectIDPrefix) }

// NewRegistrationID generates a registration token: ohrg-{ulid_lowercase}.
func NewRegistrationID() string { return newID(RegistrationIDPrefix) }

// NewRunID generates a run ID: ohrn-{ulid_lowercase}.
func NewRunID() string { return newID(RunIDPrefix) }

// NewRequestID generates a request ID: ohrq-{ulid_lowercase}.
func NewRequestID() string { return newID(RequestIDPrefix) }

// ValidID reports whether id carries prefix followed by a well-formed ULID.
func ValidID(id, prefix string) bool {
	if !strings.HasPrefix(id, prefix) {
		return false
	}
	_, err := ulid.ParseStrict(strings.ToUpper(strings.TrimPrefix(id, prefix)))
	return err == nil
}
