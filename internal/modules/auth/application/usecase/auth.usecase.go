package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"mesaYaBooking/internal/modules/auth/application/port"
	"mesaYaBooking/internal/modules/auth/domain"
	"mesaYaBooking/internal/modules/auth/session"
	realtimeport "mesaYaBooking/internal/modules/realtime/application/port"
	realtime "mesaYaBooking/internal/modules/realtime/domain"
	"mesaYaBooking/internal/shared/auth"
	"mesaYaBooking/internal/shared/validation"
)

const (
	RedirectSignedIn  = "/dashboard"
	RedirectSignedOut = "/"
)

type SignUpInput struct {
	Email    string             `json:"email" validate:"required,email"`
	Password string             `json:"password" validate:"required,min=8,max=72"`
	Profile  domain.ProfileData `json:"profile"`
}

type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Result is returned by every successful sign-in flavour.
type Result struct {
	User     domain.User      `json:"user"`
	Token    string           `json:"token"`
	Claims   *auth.Claims     `json:"-"`
	Session  *session.Context `json:"-"`
	Redirect string           `json:"redirect"`
}

type AuthUseCase struct {
	credentials port.CredentialProvider
	federated   port.FederatedProvider
	users       port.UserRepository
	sessions    *session.Registry
	issuer      port.TokenIssuer
	publisher   realtimeport.Publisher
	now         func() time.Time
}

func NewAuthUseCase(
	credentials port.CredentialProvider,
	federated port.FederatedProvider,
	users port.UserRepository,
	sessions *session.Registry,
	issuer port.TokenIssuer,
	publisher realtimeport.Publisher,
) *AuthUseCase {
	return &AuthUseCase{
		credentials: credentials,
		federated:   federated,
		users:       users,
		sessions:    sessions,
		issuer:      issuer,
		publisher:   publisher,
		now:         time.Now,
	}
}

// SignUp creates the credential and merges the profile into users/{uid}.
// Public sign-up cannot claim the admin role.
func (uc *AuthUseCase) SignUp(ctx context.Context, input SignUpInput) (*Result, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if input.Profile.RequestedRole() == domain.RoleAdmin {
		slog.Warn("auth admin sign-up refused", slog.String("email", input.Email))
		return nil, domain.ErrForbidden
	}
	identity, err := uc.credentials.CreateCredential(ctx, input.Email, input.Password)
	if err != nil {
		slog.Error("auth sign-up failed", slog.String("email", input.Email), slog.Any("error", err))
		return nil, err
	}
	user, err := uc.users.Merge(ctx, identity.UID, domain.BuildProfile(identity, input.Profile))
	if err != nil {
		slog.Error("auth profile write failed", slog.String("uid", identity.UID), slog.Any("error", err))
		return nil, err
	}
	uc.publish(ctx, realtime.ActionCreated, user.UID, nil)
	return uc.begin(user)
}

func (uc *AuthUseCase) SignIn(ctx context.Context, input SignInInput) (*Result, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	identity, err := uc.credentials.SignInWithPassword(ctx, input.Email, input.Password)
	if err != nil {
		slog.Error("auth sign-in failed", slog.String("email", input.Email), slog.Any("error", err))
		return nil, err
	}
	user, err := uc.users.Get(ctx, identity.UID)
	if errors.Is(err, domain.ErrUserNotFound) {
		user, err = uc.users.Merge(ctx, identity.UID, domain.BuildProfile(identity, domain.ProfileData{}))
	}
	if err != nil {
		slog.Error("auth profile read failed", slog.String("uid", identity.UID), slog.Any("error", err))
		return nil, err
	}
	uc.sessions.Update(user)
	return uc.begin(user)
}

// FederatedSignIn verifies the identity provider token and merges the
// provider profile. Returning users keep their role.
func (uc *AuthUseCase) FederatedSignIn(ctx context.Context, idToken string) (*Result, error) {
	if uc.federated == nil {
		return nil, auth.ErrFederationDisabled
	}
	identity, err := uc.federated.SignInWithIDToken(ctx, idToken)
	if err != nil {
		slog.Error("auth federated sign-in failed", slog.Any("error", err))
		return nil, err
	}
	var profile domain.ProfileData
	existing, err := uc.users.Get(ctx, identity.UID)
	created := errors.Is(err, domain.ErrUserNotFound)
	switch {
	case err == nil:
		profile.Role = string(existing.Role)
	case !created:
		slog.Error("auth profile read failed", slog.String("uid", identity.UID), slog.Any("error", err))
		return nil, err
	}
	user, err := uc.users.Merge(ctx, identity.UID, domain.BuildProfile(identity, profile))
	if err != nil {
		slog.Error("auth profile write failed", slog.String("uid", identity.UID), slog.Any("error", err))
		return nil, err
	}
	if created {
		uc.publish(ctx, realtime.ActionCreated, user.UID, nil)
	} else if n := uc.sessions.Update(user); n > 0 {
		slog.Debug("auth open sessions refreshed", slog.String("uid", user.UID), slog.Int("sessions", n))
	}
	return uc.begin(user)
}

// SignOut ends the session; its websocket clients are dropped through the
// users.signed_out event.
func (uc *AuthUseCase) SignOut(ctx context.Context, sess *session.Context) (string, error) {
	user, ok := sess.Current()
	if !ok {
		return "", domain.ErrNotSignedIn
	}
	if err := uc.credentials.SignOut(ctx, user.UID); err != nil {
		slog.Error("auth sign-out failed", slog.String("uid", user.UID), slog.Any("error", err))
		return "", err
	}
	uc.sessions.End(sess.ID())
	uc.publish(ctx, realtime.ActionSignedOut, user.UID, realtime.Metadata{"sessionId": sess.ID()})
	return RedirectSignedOut, nil
}

// Me returns the signed-in user of sess.
func (uc *AuthUseCase) Me(_ context.Context, sess *session.Context) (domain.User, error) {
	user, ok := sess.Current()
	if !ok {
		return domain.User{}, domain.ErrNotSignedIn
	}
	return user, nil
}

func (uc *AuthUseCase) begin(user domain.User) (*Result, error) {
	sess := uc.sessions.Begin(user)
	token, claims, err := uc.issuer.Issue(user.UID, sess.ID(), user.Email, RoleNames(user.Role))
	if err != nil {
		uc.sessions.End(sess.ID())
		slog.Error("auth token issue failed", slog.String("uid", user.UID), slog.Any("error", err))
		return nil, err
	}
	return &Result{User: user, Token: token, Claims: claims, Session: sess, Redirect: RedirectSignedIn}, nil
}

func (uc *AuthUseCase) publish(ctx context.Context, action, uid string, metadata realtime.Metadata) {
	if uc.publisher == nil {
		return
	}
	if metadata == nil {
		metadata = realtime.Metadata{}
	}
	metadata["userId"] = uid
	msg := realtime.NewChangeEvent(realtime.EntityUsers, action, uid, metadata, nil, uc.now())
	if err := uc.publisher.Publish(ctx, msg); err != nil {
		slog.Warn("auth event publish failed", slog.String("topic", msg.Topic), slog.Any("error", err))
	}
}

// RoleNames converts roles for token claims.
func RoleNames(roles ...domain.Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if s := strings.TrimSpace(string(r)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
