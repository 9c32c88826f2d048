package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	authdomain "mesaYaBooking/internal/modules/auth/domain"
	"mesaYaBooking/internal/modules/auth/session"
	bookingusecase "mesaYaBooking/internal/modules/bookings/application/usecase"
	bookingdomain "mesaYaBooking/internal/modules/bookings/domain"
	bookinginfra "mesaYaBooking/internal/modules/bookings/infrastructure"
	"mesaYaBooking/internal/modules/realtime/application/usecase"
	domain "mesaYaBooking/internal/modules/realtime/domain"
	"mesaYaBooking/internal/modules/realtime/infrastructure"
	restaurantusecase "mesaYaBooking/internal/modules/restaurants/application/usecase"
	restaurantdomain "mesaYaBooking/internal/modules/restaurants/domain"
	restaurantinfra "mesaYaBooking/internal/modules/restaurants/infrastructure"
	"mesaYaBooking/internal/platform/docstore"
	"mesaYaBooking/internal/shared/auth"
)

const testSecret = "ws-secret"

type wsServer struct {
	e         *echo.Echo
	hub       *infrastructure.Hub
	bookings  *bookinginfra.BookingRepository
	available *bookingusecase.AvailabilityUseCase
	directory *restaurantusecase.DirectoryUseCase
	sessions  *session.Registry
	issuer    *auth.Issuer
}

func newWSServer(t *testing.T) *wsServer {
	t.Helper()
	store := docstore.NewMemoryStore()
	sessions := session.NewRegistry()
	s := &wsServer{
		e:        echo.New(),
		hub:      infrastructure.NewHub(),
		bookings: bookinginfra.NewBookingRepository(store),
		sessions: sessions,
		issuer:   auth.NewIssuer(testSecret, time.Hour),
	}
	s.available = bookingusecase.NewAvailabilityUseCase(s.bookings, nil)
	restaurants := restaurantinfra.NewRestaurantRepository(store)
	s.directory = restaurantusecase.NewDirectoryUseCase(restaurants, restaurantinfra.NewReviewRepository(store), nil, nil, nil)

	ctx := context.Background()
	for _, r := range []restaurantdomain.Restaurant{
		{ID: "r-1", Name: "Trattoria", Cuisine: "Italian", PriceRange: "$$", City: "Kyiv", Rating: 4.5, Featured: true},
		{ID: "r-2", Name: "Bistro", Cuisine: "French", PriceRange: "$$$", City: "Lviv", Rating: 3.9},
	} {
		if err := restaurants.Create(ctx, r); err != nil {
			t.Fatalf("seed restaurant: %v", err)
		}
	}

	RegisterRoutes(s.e, Handlers{
		Hub:            s.hub,
		Connect:        usecase.NewConnectStreamUseCase(auth.NewJWTValidator(testSecret), sessions),
		Availability:   s.available,
		Directory:      s.directory,
		AllowedActions: []string{"created", "updated", "deleted"},
		SendBuffer:     16,
	})
	return s
}

func (s *wsServer) token(t *testing.T, uid string, role authdomain.Role) string {
	t.Helper()
	sess := s.sessions.Begin(authdomain.User{UID: uid, Email: uid + "@example.com", Role: role})
	token, _, err := s.issuer.Issue(uid, sess.ID(), uid+"@example.com", []string{string(role)})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func (s *wsServer) dial(t *testing.T, path string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(s.e)
	t.Cleanup(srv.Close)
	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+path, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial %s: %v (status %d)", path, err, status)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) domain.Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg domain.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read message: %v", err)
	}
	return msg
}

func decodeData(t *testing.T, msg domain.Message, out any) {
	t.Helper()
	raw, err := json.Marshal(msg.Data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func bookedAt(t *testing.T, msg domain.Message, slot string) int {
	t.Helper()
	var grid bookingdomain.Availability
	decodeData(t, msg, &grid)
	for _, s := range grid.Slots {
		if s.Time == slot {
			return s.Booked
		}
	}
	t.Fatalf("slot %s missing from %+v", slot, grid)
	return 0
}

func TestBuildTopics(t *testing.T) {
	t.Parallel()

	topics := buildTopics("Restaurant", []string{"created", " Updated ", "created", ""})
	want := []string{
		"restaurants.snapshot",
		"restaurants.list",
		"restaurants.detail",
		"restaurants.error",
		"restaurants.created",
		"restaurants.updated",
	}
	if !slices.Equal(topics, want) {
		t.Fatalf("expected %v, got %v", want, topics)
	}

	if got := directoryTopics(nil); !slices.Contains(got, "reviews.created") || !slices.Contains(got, "restaurants.list") {
		t.Fatalf("expected directory topics to cover reviews, got %v", got)
	}
	account := accountTopics()
	for _, topic := range []string{"users.updated", "bookings.created", "bookings.confirmed", "bookings.cancelled"} {
		if !slices.Contains(account, topic) {
			t.Fatalf("expected %s in account topics %v", topic, account)
		}
	}
}

func TestIdentityOf(t *testing.T) {
	t.Parallel()

	first := identityOf(nil)
	second := identityOf(&usecase.ConnectStreamOutput{})
	if first.signedIn() || first.userID != "" || !strings.HasPrefix(first.sessionID, "guest-") {
		t.Fatalf("expected guest identity, got %+v", first)
	}
	if first.sessionID == second.sessionID {
		t.Fatalf("expected distinct guest sessions, got %s twice", first.sessionID)
	}

	claims := &auth.Claims{SessionID: "s-1", Roles: []string{"customer"}}
	claims.Subject = "u-1"
	id := identityOf(&usecase.ConnectStreamOutput{Claims: claims})
	if !id.signedIn() || id.userID != "u-1" || id.sessionID != "s-1" {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestWebsocketRejectsBeforeUpgrade(t *testing.T) {
	t.Parallel()
	s := newWSServer(t)
	revoked, _, err := s.issuer.Issue("u-9", "ended", "u-9@example.com", []string{"customer"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	cases := []struct {
		name   string
		path   string
		status int
	}{
		{name: "bad date", path: "/ws/availability/r-1/14-03-2026", status: http.StatusBadRequest},
		{name: "garbage token", path: "/ws/restaurants/home?token=garbage", status: http.StatusUnauthorized},
		{name: "revoked session", path: "/ws/restaurants/home/" + revoked, status: http.StatusUnauthorized},
		{name: "anonymous account stream", path: "/ws/me", status: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAvailabilityStreamFollowsBookings(t *testing.T) {
	t.Parallel()
	s := newWSServer(t)
	ctx := context.Background()
	date := "2026-03-14"
	if err := s.bookings.Create(ctx, bookingdomain.Booking{ID: "b-1", RestaurantID: "r-1", Date: date, Time: "19:00", PartySize: 4, Status: bookingdomain.BookingStatusPending}); err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	conn := s.dial(t, "/ws/availability/r-1/"+date)

	connected := readMessage(t, conn)
	if connected.Topic != domain.TopicSystemConnected || connected.Metadata["streamId"] != "availability:r-1:"+date {
		t.Fatalf("unexpected greeting %+v", connected)
	}
	snapshot := readMessage(t, conn)
	if snapshot.Topic != "availability.snapshot" || snapshot.Metadata["restaurantId"] != "r-1" || snapshot.Metadata["date"] != date {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
	if got := bookedAt(t, snapshot, "19:00"); got != 4 {
		t.Fatalf("expected 4 booked, got %d", got)
	}

	if err := s.bookings.Create(ctx, bookingdomain.Booking{ID: "b-2", RestaurantID: "r-1", Date: date, Time: "19:00", PartySize: 6, Status: bookingdomain.BookingStatusPending}); err != nil {
		t.Fatalf("create booking: %v", err)
	}
	s.available.Refresh(ctx, domain.NewChangeEvent(domain.EntityBookings, domain.ActionCreated, "b-2", domain.Metadata{"restaurantId": "r-1", "date": date}, nil, time.Now()))

	if got := bookedAt(t, readMessage(t, conn), "19:00"); got != 10 {
		t.Fatalf("expected 10 booked after refresh, got %d", got)
	}
}

func TestDirectoryStreamCommands(t *testing.T) {
	t.Parallel()
	s := newWSServer(t)
	conn := s.dial(t, "/ws/restaurants/featured")

	if msg := readMessage(t, conn); msg.Topic != domain.TopicSystemConnected {
		t.Fatalf("expected greeting, got %s", msg.Topic)
	}
	featured := readMessage(t, conn)
	if featured.Topic != "restaurants.featured" || featured.Metadata["command"] != "featured" {
		t.Fatalf("unexpected featured view %+v", featured)
	}
	var list []restaurantdomain.Restaurant
	decodeData(t, featured, &list)
	if len(list) != 1 || list[0].ID != "r-1" {
		t.Fatalf("expected only r-1 featured, got %+v", list)
	}

	if err := conn.WriteJSON(infrastructure.Command{Action: "detail", Payload: json.RawMessage(`{"id":"r-2"}`)}); err != nil {
		t.Fatalf("write: %v", err)
	}
	detail := readMessage(t, conn)
	if detail.Topic != "restaurants.detail" || detail.ResourceID != "r-2" {
		t.Fatalf("unexpected detail %+v", detail)
	}

	if err := conn.WriteJSON(infrastructure.Command{Action: "detail", Payload: json.RawMessage(`{"id":"missing"}`)}); err != nil {
		t.Fatalf("write: %v", err)
	}
	failed := readMessage(t, conn)
	if failed.Topic != "restaurants.error" || failed.Metadata["action"] != "detail" || failed.Metadata["streamId"] != "restaurants:featured" {
		t.Fatalf("unexpected error message %+v", failed)
	}

	if err := conn.WriteJSON(infrastructure.Command{Action: "teleport"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if unknown := readMessage(t, conn); unknown.Metadata["reason"] != "unsupported action" {
		t.Fatalf("expected unsupported action, got %+v", unknown)
	}
}

func TestDirectoryViewsReplacePerCommand(t *testing.T) {
	t.Parallel()
	s := newWSServer(t)
	views := newDirectoryViews(s.directory, "restaurants:test")
	client := infrastructure.NewClient(infrastructure.NewHub(), nil, "", "guest", "restaurants:test", domain.EntityRestaurants, 16)
	views.bind(client.Commands())
	send := func(cmd infrastructure.Command) { client.Commands().Dispatch(client, cmd) }

	send(infrastructure.Command{Action: "search", Payload: json.RawMessage(`{"cuisine":"Italian"}`)})
	send(infrastructure.Command{Action: "search", Payload: json.RawMessage(`{"cuisine":"all"}`)})
	send(infrastructure.Command{Action: "cuisines"})
	if got := views.openViews(); got != 2 {
		t.Fatalf("expected 2 open views, got %d", got)
	}

	send(infrastructure.Command{Action: "reviews", Payload: json.RawMessage(`{"id":"  "}`)})
	if got := views.openViews(); got != 2 {
		t.Fatalf("expected blank id to be refused, got %d views", got)
	}

	views.closeAll()
	if got := views.openViews(); got != 0 {
		t.Fatalf("expected views closed, got %d", got)
	}
	send(infrastructure.Command{Action: "list"})
	if got := views.openViews(); got != 0 {
		t.Fatalf("expected no views after close, got %d", got)
	}
}

func TestAvailabilityStreamRefusesForeignTopics(t *testing.T) {
	t.Parallel()
	s := newWSServer(t)
	conn := s.dial(t, "/ws/availability/r-1/2026-03-14")
	readMessage(t, conn)
	readMessage(t, conn)

	if err := conn.WriteJSON(infrastructure.Command{Action: "subscribe", Topic: "users.created"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	refused := readMessage(t, conn)
	if refused.Topic != "availability.error" || refused.Metadata["action"] != "subscribe" {
		t.Fatalf("expected subscribe refusal, got %+v", refused)
	}
	if s.hub.TopicSubscribers("users.created") != 0 {
		t.Fatalf("anonymous viewer must not follow user events")
	}
}

func TestAccountStreamIsPersonal(t *testing.T) {
	t.Parallel()
	s := newWSServer(t)
	conn := s.dial(t, "/ws/me?token="+s.token(t, "u-1", authdomain.RoleCustomer))

	connected := readMessage(t, conn)
	if connected.Topic != domain.TopicSystemConnected || connected.Metadata["userId"] != "u-1" {
		t.Fatalf("unexpected greeting %+v", connected)
	}

	if s.hub.TopicSubscribers("bookings.confirmed") != 1 {
		t.Fatalf("expected the account stream to follow booking confirmations")
	}

	ctx := context.Background()
	s.hub.Broadcast(ctx, domain.NewChangeEvent(domain.EntityBookings, domain.ActionConfirmed, "b-9", domain.Metadata{"userId": "u-2"}, nil, time.Now()))
	s.hub.Broadcast(ctx, domain.NewChangeEvent(domain.EntityBookings, domain.ActionConfirmed, "b-1", domain.Metadata{"userId": "u-1"}, nil, time.Now()))

	msg := readMessage(t, conn)
	if msg.ResourceID != "b-1" {
		t.Fatalf("expected only the user's own booking, got %+v", msg)
	}
}

func TestAccountStreamAdminSeesEverything(t *testing.T) {
	t.Parallel()
	s := newWSServer(t)
	conn := s.dial(t, "/ws/me/"+s.token(t, "root", authdomain.RoleAdmin))

	connected := readMessage(t, conn)
	var data struct {
		AllowedTopics []string `json:"allowedTopics"`
	}
	decodeData(t, connected, &data)
	if !slices.Equal(data.AllowedTopics, []string{"*"}) {
		t.Fatalf("expected global stream, got %v", data.AllowedTopics)
	}

	s.hub.Broadcast(context.Background(), domain.NewChangeEvent(domain.EntityBookings, domain.ActionCancelled, "b-3", domain.Metadata{"userId": "u-7"}, nil, time.Now()))
	if msg := readMessage(t, conn); msg.Topic != "bookings.cancelled" || msg.ResourceID != "b-3" {
		t.Fatalf("unexpected message %+v", msg)
	}
}
