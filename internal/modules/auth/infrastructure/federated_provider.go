package infrastructure

import (
	"context"
	"strings"

	"mesaYaBooking/internal/modules/auth/application/port"
	"mesaYaBooking/internal/modules/auth/domain"
	"mesaYaBooking/internal/shared/auth"
)

// FederatedProvider trusts RS256 ID tokens from the configured identity provider.
type FederatedProvider struct {
	verifier *auth.FederatedVerifier
}

func NewFederatedProvider(verifier *auth.FederatedVerifier) *FederatedProvider {
	return &FederatedProvider{verifier: verifier}
}

func (p *FederatedProvider) SignInWithIDToken(_ context.Context, idToken string) (domain.Identity, error) {
	if p.verifier == nil {
		return domain.Identity{}, auth.ErrFederationDisabled
	}
	claims, err := p.verifier.Verify(idToken)
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{
		UID:         strings.TrimSpace(claims.Subject),
		Email:       strings.ToLower(strings.TrimSpace(claims.Email)),
		DisplayName: strings.TrimSpace(claims.Name),
		PhotoURL:    strings.TrimSpace(claims.Picture),
	}, nil
}

var _ port.FederatedProvider = (*FederatedProvider)(nil)
