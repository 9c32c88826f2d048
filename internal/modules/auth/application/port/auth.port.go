package port

import (
	"context"

	"mesaYaBooking/internal/modules/auth/domain"
	"mesaYaBooking/internal/shared/auth"
)

// CredentialProvider is the email/password side of the auth provider.
type CredentialProvider interface {
	CreateCredential(ctx context.Context, email, password string) (domain.Identity, error)
	SignInWithPassword(ctx context.Context, email, password string) (domain.Identity, error)
	SignOut(ctx context.Context, uid string) error
}

// FederatedProvider exchanges an identity provider token for an identity.
type FederatedProvider interface {
	SignInWithIDToken(ctx context.Context, idToken string) (domain.Identity, error)
}

type UserRepository interface {
	// Merge writes fields into users/{uid} keeping the rest of the document.
	Merge(ctx context.Context, uid string, fields map[string]any) (domain.User, error)
	Get(ctx context.Context, uid string) (domain.User, error)
}

type TokenIssuer interface {
	Issue(subject, sessionID, email string, roles []string) (string, *auth.Claims, error)
}
