package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"mesaYaBooking/internal/modules/auth/application/port"
	"mesaYaBooking/internal/modules/auth/domain"
	"mesaYaBooking/internal/platform/docstore"
)

const CredentialsCollection = "credentials"

type credential struct {
	UID          string     `bson:"_id"`
	Email        string     `bson:"email"`
	PasswordHash string     `bson:"passwordHash"`
	CreatedAt    time.Time  `bson:"createdAt"`
	LastSignIn   *time.Time `bson:"lastSignIn,omitempty"`
	LastSignOut  *time.Time `bson:"lastSignOut,omitempty"`
}

// LocalProvider keeps bcrypt hashed credentials in the document store.
type LocalProvider struct {
	store docstore.Store
	cost  int
	now   func() time.Time
}

func NewLocalProvider(store docstore.Store) *LocalProvider {
	return &LocalProvider{store: store, cost: bcrypt.DefaultCost, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *LocalProvider) findByEmail(ctx context.Context, email string) (*credential, error) {
	var found []credential
	if err := p.store.Find(ctx, CredentialsCollection, docstore.NewQuery(docstore.Eq("email", email)).Take(1), &found); err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

func (p *LocalProvider) CreateCredential(ctx context.Context, email, password string) (domain.Identity, error) {
	email = normalizeEmail(email)
	existing, err := p.findByEmail(ctx, email)
	if err != nil {
		return domain.Identity{}, err
	}
	if existing != nil {
		return domain.Identity{}, domain.ErrEmailTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("hash password: %w", err)
	}
	cred := credential{
		UID:          p.store.CreateID(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    p.now().UTC(),
	}
	if err := p.store.Set(ctx, CredentialsCollection, cred.UID, cred); err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{UID: cred.UID, Email: cred.Email}, nil
}

func (p *LocalProvider) SignInWithPassword(ctx context.Context, email, password string) (domain.Identity, error) {
	cred, err := p.findByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return domain.Identity{}, err
	}
	if cred == nil {
		return domain.Identity{}, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return domain.Identity{}, domain.ErrInvalidCredentials
		}
		return domain.Identity{}, err
	}
	if err := p.store.Update(ctx, CredentialsCollection, cred.UID, map[string]any{"lastSignIn": p.now().UTC()}); err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{UID: cred.UID, Email: cred.Email}, nil
}

// SignOut records the sign-out time. Federated accounts have no credential and are ignored.
func (p *LocalProvider) SignOut(ctx context.Context, uid string) error {
	err := p.store.Update(ctx, CredentialsCollection, uid, map[string]any{"lastSignOut": p.now().UTC()})
	if errors.Is(err, docstore.ErrNotFound) {
		return nil
	}
	return err
}

var _ port.CredentialProvider = (*LocalProvider)(nil)
