package lifecycle

import (
	"context"

	"github.com/yndnr/objhost-go/internal/core/domain"
)

// Token identifies one class registration. It is opaque to the Server.
type Token string

// Gateway makes classes discoverable to external callers.
type Gateway interface {
	// Register publishes a class and returns the token that revokes it.
	Register(ctx context.Context, class domain.Class) (Token, error)

	// Unregister revokes a registration.
	Unregister(ctx context.Context, token Token) error

	// AnnounceReady tells the broker that all classes are registered.
	AnnounceReady(ctx context.Context) error
}
