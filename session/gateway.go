package session

import (
	"context"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/models"
)

// Gateway is the credential authority the store delegates to.
//
// Failures are returned as errors from the pkg taxonomy
// (pkg.ErrInvalidCredentials, pkg.ErrNetworkUnavailable, ...) and surface
// verbatim to store callers.
type Gateway interface {
	SignIn(ctx context.Context, email, password string) (*models.Grant, error)
	SignUp(ctx context.Context, email, password, fullName string) (*models.Grant, error)
	SignOut(ctx context.Context, credential string) error
	// RestoreSession exchanges a persisted credential for a fresh grant.
	// A nil grant with a nil error means the credential no longer maps to a session.
	RestoreSession(ctx context.Context, credential string) (*models.Grant, error)
}

// ProfileSource loads a profile for the signed-in user when the grant did not carry one.
type ProfileSource interface {
	Profile(ctx context.Context, credential string) (*models.Profile, error)
}
