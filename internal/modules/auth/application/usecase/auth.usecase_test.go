package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mesaYaBooking/internal/modules/auth/domain"
	"mesaYaBooking/internal/modules/auth/infrastructure"
	"mesaYaBooking/internal/modules/auth/session"
	realtime "mesaYaBooking/internal/modules/realtime/domain"
	"mesaYaBooking/internal/platform/docstore"
	"mesaYaBooking/internal/shared/auth"
	"mesaYaBooking/internal/shared/validation"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*realtime.Message
}

func (p *recordingPublisher) Publish(_ context.Context, msg *realtime.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.msgs))
	for _, m := range p.msgs {
		out = append(out, m.Topic)
	}
	return out
}

type stubFederated struct {
	identity domain.Identity
	err      error
}

func (s stubFederated) SignInWithIDToken(context.Context, string) (domain.Identity, error) {
	return s.identity, s.err
}

type fixture struct {
	uc        *AuthUseCase
	store     *docstore.MemoryStore
	sessions  *session.Registry
	validator *auth.JWTValidator
	events    *recordingPublisher
}

func newFixture(federated stubFederated) fixture {
	store := docstore.NewMemoryStore()
	sessions := session.NewRegistry()
	events := &recordingPublisher{}
	uc := NewAuthUseCase(
		infrastructure.NewLocalProvider(store),
		federated,
		infrastructure.NewUserRepository(store),
		sessions,
		auth.NewIssuer("test-secret", time.Hour),
		events,
	)
	return fixture{uc: uc, store: store, sessions: sessions, validator: auth.NewJWTValidator("test-secret"), events: events}
}

func TestSignUpMergesProfileAndIssuesSession(t *testing.T) {
	f := newFixture(stubFederated{})
	ctx := context.Background()

	res, err := f.uc.SignUp(ctx, SignUpInput{
		Email:    "Ana@Example.com",
		Password: "correct horse",
		Profile:  domain.ProfileData{DisplayName: "Ana", Role: "restaurant_owner", Extras: map[string]any{"phone": "555-0100"}},
	})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if res.Redirect != RedirectSignedIn {
		t.Fatalf("expected redirect %s, got %s", RedirectSignedIn, res.Redirect)
	}
	if res.User.Email != "ana@example.com" || res.User.DisplayName != "Ana" || res.User.Role != domain.RoleRestaurantOwner {
		t.Fatalf("unexpected user %+v", res.User)
	}

	var stored map[string]any
	if err := f.store.Get(ctx, domain.UsersCollection, res.User.UID, &stored); err != nil {
		t.Fatalf("profile not stored: %v", err)
	}
	if stored["phone"] != "555-0100" {
		t.Fatalf("expected extras merged, got %v", stored)
	}

	claims, err := f.validator.Validate(res.Token)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if claims.Subject != res.User.UID || claims.SessionID != res.Session.ID() || !claims.HasRole("restaurant_owner") {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if !f.sessions.Active(claims.SessionID) {
		t.Fatalf("expected active session")
	}
	if got := f.events.topics(); len(got) != 1 || got[0] != "users.created" {
		t.Fatalf("unexpected events %v", got)
	}
}

func TestSignUpErrors(t *testing.T) {
	f := newFixture(stubFederated{})
	ctx := context.Background()

	_, err := f.uc.SignUp(ctx, SignUpInput{Email: "not-an-email", Password: "short"})
	var verrs validation.Errors
	if !errors.As(err, &verrs) || verrs["email"] == "" || verrs["password"] == "" {
		t.Fatalf("expected field errors, got %v", err)
	}

	if _, err := f.uc.SignUp(ctx, SignUpInput{Email: "bo@example.com", Password: "password1"}); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if _, err := f.uc.SignUp(ctx, SignUpInput{Email: "BO@example.com", Password: "password2"}); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSignUpCannotObtainAdmin(t *testing.T) {
	f := newFixture(stubFederated{})
	ctx := context.Background()

	if _, err := f.uc.SignUp(ctx, SignUpInput{Email: "eve@example.com", Password: "password1", Profile: domain.ProfileData{Role: "admin"}}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.uc.SignUp(ctx, SignUpInput{Email: "eve@example.com", Password: "password1", Profile: domain.ProfileData{Role: "superuser"}}); err == nil {
		t.Fatalf("expected unknown role to be rejected")
	}

	res, err := f.uc.SignUp(ctx, SignUpInput{
		Email:    "eve@example.com",
		Password: "password1",
		Profile:  domain.ProfileData{Extras: map[string]any{" role": "admin", "Role": "admin", "EMAIL": "root@example.com"}},
	})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if res.User.Role != domain.RoleCustomer || res.User.Email != "eve@example.com" {
		t.Fatalf("expected plain customer, got %+v", res.User)
	}
	var stored map[string]any
	if err := f.store.Get(ctx, domain.UsersCollection, res.User.UID, &stored); err != nil {
		t.Fatalf("profile not stored: %v", err)
	}
	for _, key := range []string{"Role", " role", "EMAIL"} {
		if _, ok := stored[key]; ok {
			t.Fatalf("protected extra %q stored: %v", key, stored)
		}
	}
}

func TestSignInAndSignOut(t *testing.T) {
	f := newFixture(stubFederated{})
	ctx := context.Background()

	if _, err := f.uc.SignUp(ctx, SignUpInput{Email: "cy@example.com", Password: "password1"}); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if _, err := f.uc.SignIn(ctx, SignInInput{Email: "cy@example.com", Password: "wrong-pass"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := f.uc.SignIn(ctx, SignInInput{Email: "nobody@example.com", Password: "password1"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}

	res, err := f.uc.SignIn(ctx, SignInInput{Email: "cy@example.com", Password: "password1"})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if res.User.Role != domain.RoleCustomer {
		t.Fatalf("expected default customer role, got %s", res.User.Role)
	}

	changes := 0
	res.Session.OnChange(func(u *domain.User) {
		if u == nil {
			changes++
		}
	})

	redirect, err := f.uc.SignOut(ctx, res.Session)
	if err != nil || redirect != RedirectSignedOut {
		t.Fatalf("sign out: %q %v", redirect, err)
	}
	if f.sessions.Active(res.Session.ID()) || changes != 1 {
		t.Fatalf("expected session ended and listener notified")
	}
	topics := f.events.topics()
	last := f.events.msgs[len(f.events.msgs)-1]
	if topics[len(topics)-1] != "users.signed_out" || last.Meta("sessionId") != res.Session.ID() {
		t.Fatalf("expected signed_out event for session, got %v", topics)
	}

	if _, err := f.uc.SignOut(ctx, res.Session); !errors.Is(err, domain.ErrNotSignedIn) {
		t.Fatalf("expected ErrNotSignedIn, got %v", err)
	}
}

func TestFederatedSignIn(t *testing.T) {
	identity := domain.Identity{UID: "fed-1", Email: "dee@example.com", DisplayName: "Dee", PhotoURL: "https://img/dee.png"}
	f := newFixture(stubFederated{identity: identity})
	ctx := context.Background()

	res, err := f.uc.FederatedSignIn(ctx, "id-token")
	if err != nil {
		t.Fatalf("federated sign in: %v", err)
	}
	if res.User.DisplayName != "Dee" || res.User.PhotoURL != identity.PhotoURL || res.User.Role != domain.RoleCustomer {
		t.Fatalf("unexpected user %+v", res.User)
	}

	if err := f.store.Update(ctx, domain.UsersCollection, "fed-1", map[string]any{"role": "admin"}); err != nil {
		t.Fatalf("promote: %v", err)
	}
	first := res.Session
	res, err = f.uc.FederatedSignIn(ctx, "id-token")
	if err != nil || res.User.Role != domain.RoleAdmin {
		t.Fatalf("expected role kept on re-sign-in, got %+v %v", res, err)
	}
	if user, ok := first.Current(); !ok || user.Role != domain.RoleAdmin {
		t.Fatalf("expected the earlier session to see the stored profile, got %+v", user)
	}
	if got := f.events.topics(); len(got) != 1 {
		t.Fatalf("expected a single users.created event, got %v", got)
	}

	failing := newFixture(stubFederated{err: auth.ErrInvalidToken})
	if _, err := failing.uc.FederatedSignIn(ctx, "bad"); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected provider error unchanged, got %v", err)
	}
}
