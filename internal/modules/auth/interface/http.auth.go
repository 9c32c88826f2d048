package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"mesaYaBooking/internal/modules/auth/application/usecase"
	"mesaYaBooking/internal/modules/auth/domain"
	"mesaYaBooking/internal/shared/auth"
	"mesaYaBooking/internal/shared/httputil"
)

// Provider errors keep their own message.
var authErrors = httputil.NewErrorMapper().
	WithMessagePassthrough().
	WithMapping(domain.ErrNotSignedIn, http.StatusUnauthorized, "").
	WithMapping(domain.ErrInvalidCredentials, http.StatusUnauthorized, "").
	WithMapping(domain.ErrEmailTaken, http.StatusConflict, "").
	WithMapping(domain.ErrForbidden, http.StatusForbidden, "").
	WithMapping(auth.ErrMissingToken, http.StatusBadRequest, "").
	WithMapping(auth.ErrInvalidToken, http.StatusUnauthorized, "").
	WithMapping(auth.ErrFederationDisabled, http.StatusNotImplemented, "")

type federatedRequest struct {
	IDToken string `json:"idToken"`
}

type sessionResponse struct {
	User      domain.User `json:"user"`
	Token     string      `json:"token"`
	SessionID string      `json:"sessionId"`
	ExpiresAt int64       `json:"expiresAt"`
	Redirect  string      `json:"redirect"`
}

func toSessionResponse(res *usecase.Result) sessionResponse {
	out := sessionResponse{User: res.User, Token: res.Token, Redirect: res.Redirect}
	if res.Session != nil {
		out.SessionID = res.Session.ID()
	}
	if res.Claims != nil && res.Claims.ExpiresAt != nil {
		out.ExpiresAt = res.Claims.ExpiresAt.Unix()
	}
	return out
}

// NewSignUpHTTPHandler serves POST /api/auth/signup.
func NewSignUpHTTPHandler(uc *usecase.AuthUseCase) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req usecase.SignUpInput
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		res, err := uc.SignUp(c.Request().Context(), req)
		if err != nil {
			return authErrors.HTTPError(err)
		}
		return c.JSON(http.StatusCreated, toSessionResponse(res))
	}
}

func NewSignInHTTPHandler(uc *usecase.AuthUseCase) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req usecase.SignInInput
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		res, err := uc.SignIn(c.Request().Context(), req)
		if err != nil {
			return authErrors.HTTPError(err)
		}
		return c.JSON(http.StatusOK, toSessionResponse(res))
	}
}

func NewFederatedSignInHTTPHandler(uc *usecase.AuthUseCase) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req federatedRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		res, err := uc.FederatedSignIn(c.Request().Context(), req.IDToken)
		if err != nil {
			return authErrors.HTTPError(err)
		}
		return c.JSON(http.StatusOK, toSessionResponse(res))
	}
}

func NewSignOutHTTPHandler(uc *usecase.AuthUseCase) echo.HandlerFunc {
	return func(c echo.Context) error {
		redirect, err := uc.SignOut(c.Request().Context(), SessionFrom(c))
		if err != nil {
			return authErrors.HTTPError(err)
		}
		return c.JSON(http.StatusOK, map[string]string{"redirect": redirect})
	}
}

func NewMeHTTPHandler(uc *usecase.AuthUseCase) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := uc.Me(c.Request().Context(), SessionFrom(c))
		if err != nil {
			return authErrors.HTTPError(err)
		}
		out := map[string]any{"user": user, "authenticated": true, "sessionId": SessionFrom(c).ID()}
		if claims := ClaimsFrom(c); claims != nil && claims.ExpiresAt != nil {
			out["expiresAt"] = claims.ExpiresAt.Unix()
		}
		return c.JSON(http.StatusOK, out)
	}
}

// RegisterRoutes mounts the auth endpoints under g (normally /api/auth).
func RegisterRoutes(g *echo.Group, uc *usecase.AuthUseCase) {
	g.POST("/signup", NewSignUpHTTPHandler(uc))
	g.POST("/signin", NewSignInHTTPHandler(uc))
	g.POST("/federated", NewFederatedSignInHTTPHandler(uc))
	g.POST("/signout", NewSignOutHTTPHandler(uc), RequireSignedIn())
	g.GET("/me", NewMeHTTPHandler(uc), RequireSignedIn())
}
