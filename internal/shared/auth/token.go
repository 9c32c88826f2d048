package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ExtractBearerToken extracts the JWT token from the Authorization header.
// It handles the "Bearer " prefix and returns an empty string if no token is present.
func ExtractBearerToken(r *http.Request) string {
	if r == nil {
		return ""
	}
	return ExtractBearerTokenFromHeader(r.Header.Get("Authorization"))
}

// ExtractBearerTokenFromHeader extracts the JWT token from an Authorization header value.
//
// Example:
//
//	token := ExtractBearerTokenFromHeader("Bearer eyJhbGciOiJIUzI1NiIs...")
func ExtractBearerTokenFromHeader(header string) string {
	header = strings.TrimSpace(header)
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// ExtractTokenFromQuery extracts a token from a URL query parameter.
func ExtractTokenFromQuery(r *http.Request, paramName string) string {
	if r == nil || r.URL == nil {
		return ""
	}
	return strings.TrimSpace(r.URL.Query().Get(paramName))
}

// ExtractToken attempts to extract a token from the Authorization header, then
// from the query parameter (default "token").
func ExtractToken(r *http.Request, queryParam string) string {
	if token := ExtractBearerToken(r); token != "" {
		return token
	}
	if queryParam == "" {
		queryParam = "token"
	}
	return ExtractTokenFromQuery(r, queryParam)
}

// ExtractEchoToken resolves a token for websocket routes: path param ":token" first,
// then the query string and finally the Authorization header. Browsers cannot set
// headers on websocket upgrades, hence the path and query fallbacks.
func ExtractEchoToken(c echo.Context) string {
	if token := strings.TrimSpace(c.Param("token")); token != "" {
		return token
	}
	if token := ExtractTokenFromQuery(c.Request(), "token"); token != "" {
		return token
	}
	return ExtractBearerToken(c.Request())
}
