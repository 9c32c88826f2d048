package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	authdomain "mesaYaBooking/internal/modules/auth/domain"
	authtransport "mesaYaBooking/internal/modules/auth/interface"
	"mesaYaBooking/internal/modules/auth/session"
	"mesaYaBooking/internal/modules/restaurants/application/usecase"
	"mesaYaBooking/internal/modules/restaurants/domain"
	"mesaYaBooking/internal/modules/restaurants/infrastructure"
	"mesaYaBooking/internal/platform/cache"
	"mesaYaBooking/internal/platform/docstore"
	"mesaYaBooking/internal/shared/auth"
)

const testSecret = "directory-secret"

type testServer struct {
	e        *echo.Echo
	store    *docstore.MemoryStore
	sessions *session.Registry
	issuer   *auth.Issuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := docstore.NewMemoryStore()
	for _, r := range []domain.Restaurant{
		{ID: "r-1", Name: "Casa", Cuisine: "Spanish", PriceRange: "$$", City: "Kyiv", Rating: 4.2, OwnerID: "owner-1", Featured: true},
		{ID: "r-2", Name: "Pho", Cuisine: "Vietnamese", PriceRange: "$", City: "Lviv", Rating: 4.7, OwnerID: "owner-2"},
	} {
		if err := store.Set(context.Background(), domain.RestaurantsCollection, r.ID, r); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	sessions := session.NewRegistry()
	uc := usecase.NewDirectoryUseCase(infrastructure.NewRestaurantRepository(store), infrastructure.NewReviewRepository(store), cache.NewMemory(time.Minute), nil, nil)

	e := echo.New()
	e.Use(authtransport.SessionMiddleware(auth.NewJWTValidator(testSecret), sessions))
	RegisterRoutes(e.Group("/api"), uc)
	return &testServer{e: e, store: store, sessions: sessions, issuer: auth.NewIssuer(testSecret, time.Hour)}
}

func (s *testServer) signIn(t *testing.T, uid string, role authdomain.Role) string {
	t.Helper()
	user := authdomain.User{UID: uid, Email: uid + "@example.com", DisplayName: "Name " + uid, Role: role}
	sess := s.sessions.Begin(user)
	token, _, err := s.issuer.Issue(uid, sess.ID(), user.Email, []string{string(role)})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return token
}

func (s *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func TestDirectoryReadRoutes(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		path     string
		status   int
		contains string
	}{
		{path: "/api/restaurants", status: http.StatusOK, contains: `"id":"r-2"`},
		{path: "/api/restaurants/featured", status: http.StatusOK, contains: `"id":"r-1"`},
		{path: "/api/restaurants/search?cuisine=all&city=Lviv", status: http.StatusOK, contains: `"id":"r-2"`},
		{path: "/api/restaurants/cuisines", status: http.StatusOK, contains: `["Spanish","Vietnamese"]`},
		{path: "/api/restaurants/r-1", status: http.StatusOK, contains: `"name":"Casa"`},
		{path: "/api/restaurants/nope", status: http.StatusNotFound, contains: "restaurant not found"},
		{path: "/api/restaurants/r-1/reviews", status: http.StatusOK, contains: `"reviews":[]`},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			rec := s.do(http.MethodGet, tc.path, "", "")
			if rec.Code != tc.status || !strings.Contains(rec.Body.String(), tc.contains) {
				t.Fatalf("expected %d containing %s, got %d %s", tc.status, tc.contains, rec.Code, rec.Body.String())
			}
		})
	}

	rec := s.do(http.MethodGet, "/api/restaurants/search?city=Kyiv", "", "")
	if strings.Contains(rec.Body.String(), `"id":"r-2"`) {
		t.Fatalf("expected Lviv restaurant filtered out: %s", rec.Body.String())
	}
}

func TestDirectoryWriteRoutes(t *testing.T) {
	s := newTestServer(t)
	owner := s.signIn(t, "owner-1", authdomain.RoleRestaurantOwner)
	other := s.signIn(t, "owner-2", authdomain.RoleRestaurantOwner)
	customer := s.signIn(t, "u-1", authdomain.RoleCustomer)

	body := `{"name":"Nuevo","cuisine":"Spanish","priceRange":"$$$","address":"2 St","city":"Kyiv","openingHours":{"Mon":{"open":"12:00","close":"22:00"}}}`
	if rec := s.do(http.MethodPost, "/api/restaurants", body, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/api/restaurants", body, customer); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/api/restaurants", `{"name":"","priceRange":"$"}`, owner); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	rec := s.do(http.MethodPost, "/api/restaurants", body, owner)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", rec.Code, rec.Body.String())
	}
	var created domain.Restaurant
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.OwnerID != "owner-1" || created.OpeningHours["monday"].Open != "12:00" {
		t.Fatalf("unexpected restaurant %+v", created)
	}

	if rec := s.do(http.MethodPatch, "/api/restaurants/"+created.ID, `{"featured":true}`, other); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign owner, got %d", rec.Code)
	}
	rec = s.do(http.MethodPatch, "/api/restaurants/"+created.ID, `{"featured":true}`, owner)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"featured":true`) {
		t.Fatalf("expected patched restaurant, got %d %s", rec.Code, rec.Body.String())
	}
	if rec := s.do(http.MethodGet, "/api/restaurants/featured", "", ""); !strings.Contains(rec.Body.String(), created.ID) {
		t.Fatalf("expected featured listing to include new restaurant: %s", rec.Body.String())
	}

	rec = s.do(http.MethodPost, "/api/restaurants/"+created.ID+"/reviews", `{"rating":5,"comment":"great"}`, customer)
	if rec.Code != http.StatusCreated || !strings.Contains(rec.Body.String(), `"userName":"Name u-1"`) {
		t.Fatalf("expected review, got %d %s", rec.Code, rec.Body.String())
	}
	if rec := s.do(http.MethodPost, "/api/restaurants/"+created.ID+"/reviews", `{"rating":0}`, customer); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for rating 0, got %d", rec.Code)
	}

	if rec := s.do(http.MethodDelete, "/api/restaurants/"+created.ID, "", owner); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/api/restaurants/"+created.ID, "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}
