package adapter

import "context"

// IdentityVerifier is the external authenticator collaborator: it turns a
// bearer credential into a verified, lower-cased account identifier.
// Handlers consume only this identifier, never one from a request body.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (email string, err error)
}
