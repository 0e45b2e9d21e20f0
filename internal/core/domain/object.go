// Package domain defines the core domain models for objhost.
package domain

import "time"

// MaxOwnerLength bounds the caller-supplied owner label.
const MaxOwnerLength = 128

// Object is a live object issued to an external caller.
type Object struct {
	// ID is the unique object identifier: ohob-{ulid_lowercase}.
	ID string `json:"id"`

	// ClassID is the class the object was created from.
	ClassID string `json:"class_id"`

	// Owner is a free-form label identifying the caller.
	Owner string `json:"owner,omitempty"`

	// CreatedAt is the creation time.
	CreatedAt time.Time `json:"created_at"`

	// LastRenewed is the last time the lease was renewed.
	LastRenewed time.Time `json:"last_renewed"`

	// ExpiresAt is the lease deadline; zero when leases are disabled.
	ExpiresAt time.Time `json:"expires_at,omitzero"`

	// State carries the instance description, if it provides one.
	State map[string]any `json:"state,omitempty"`
}

// IsExpired reports whether the lease has expired at now.
func (o *Object) IsExpired(now time.Time) bool {
	return !o.ExpiresAt.IsZero() && !now.Before(o.ExpiresAt)
}

// Renew extends the lease by ttl from now. A zero ttl leaves the
// object without a deadline.
func (o *Object) Renew(now time.Time, ttl time.Duration) {
	o.LastRenewed = now
	if ttl > 0 {
		o.ExpiresAt = now.Add(ttl)
	}
}
