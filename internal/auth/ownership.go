package auth

import (
	"context"
	"errors"
)

// ErrForbidden means the acting identity does not own the target resource.
var ErrForbidden = errors.New("forbidden")

// RequireOwner checks the request identity against the resource's owning
// channel. Callers must establish that the resource exists first.
func RequireOwner(ctx context.Context, ownerChannelID string) error {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return ErrUnauthenticated
	}
	if identity.ChannelID != ownerChannelID {
		return ErrForbidden
	}
	return nil
}
