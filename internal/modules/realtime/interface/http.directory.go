package transport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	domain "mesaYaBooking/internal/modules/realtime/domain"
	"mesaYaBooking/internal/modules/realtime/infrastructure"
	restaurants "mesaYaBooking/internal/modules/restaurants/application/usecase"
	restaurantdomain "mesaYaBooking/internal/modules/restaurants/domain"
	"mesaYaBooking/internal/platform/livequery"
)

// NewDirectoryWebsocketHandler exposes /ws/restaurants/:section. Clients send
// list, featured, search, detail, reviews or cuisines commands and receive the
// live result of each. A section named after a parameterless command starts
// with that view already open.
func NewDirectoryWebsocketHandler(h Handlers) echo.HandlerFunc {
	return func(c echo.Context) error {
		section := strings.ToLower(strings.TrimSpace(c.Param("section")))
		if section == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "missing section")
		}
		stream := domain.EntityRestaurants + ":" + section

		id, err := h.connect(c, stream)
		if err != nil {
			return err
		}

		client, err := h.upgrade(c, id, stream, domain.EntityRestaurants)
		if err != nil {
			return err
		}
		views := newDirectoryViews(h.Directory, stream)
		views.bind(client.Commands())
		client.AddCloseHook(func(*infrastructure.Client) { views.closeAll() })
		h.start(c, client, id, directoryTopics(h.AllowedActions))

		switch section {
		case restaurantdomain.CommandList, restaurantdomain.CommandFeatured, restaurantdomain.CommandCuisines:
			go client.Commands().Dispatch(client, infrastructure.Command{Action: section})
		}
		return nil
	}
}

var errInvalidPayload = errors.New("invalid payload")

// directoryViews holds the live views one client has open, at most one per command.
type directoryViews struct {
	directory *restaurants.DirectoryUseCase
	stream    string

	mu     sync.Mutex
	subs   map[string]*livequery.Subscription[any]
	closed bool
}

func newDirectoryViews(directory *restaurants.DirectoryUseCase, stream string) *directoryViews {
	return &directoryViews{directory: directory, stream: stream, subs: make(map[string]*livequery.Subscription[any])}
}

// bind registers the directory commands on the client's router.
func (v *directoryViews) bind(router *infrastructure.CommandRouter) {
	for _, name := range []string{restaurantdomain.CommandList, restaurantdomain.CommandFeatured, restaurantdomain.CommandCuisines} {
		router.Handle(name, v.open)
	}
	router.Handle(restaurantdomain.CommandSearch, v.search)
	router.Handle(restaurantdomain.CommandDetail, v.byRestaurant)
	router.Handle(restaurantdomain.CommandReviews, v.byRestaurant)
}

func (v *directoryViews) open(ctx context.Context, client *infrastructure.Client, cmd infrastructure.Command) error {
	return v.watch(ctx, client, restaurants.DirectoryQuery{Command: cmd.Name()})
}

func (v *directoryViews) search(ctx context.Context, client *infrastructure.Client, cmd infrastructure.Command) error {
	var filters restaurantdomain.Filters
	if err := cmd.Decode(&filters); err != nil {
		slog.Warn("directory ws search decode failed", slog.String("streamId", v.stream), slog.Any("error", err))
		return errInvalidPayload
	}
	return v.watch(ctx, client, restaurants.DirectoryQuery{Command: restaurantdomain.CommandSearch, Filters: filters.Normalize()})
}

// byRestaurant serves detail and reviews, which both name one restaurant.
func (v *directoryViews) byRestaurant(ctx context.Context, client *infrastructure.Client, cmd infrastructure.Command) error {
	var payload restaurantdomain.GetRestaurantCommand
	if err := cmd.Decode(&payload); err != nil || strings.TrimSpace(payload.ID) == "" {
		return errInvalidPayload
	}
	return v.watch(ctx, client, restaurants.DirectoryQuery{Command: cmd.Name(), ID: strings.TrimSpace(payload.ID)})
}

// watch opens q and replaces any view previously opened with the same command.
func (v *directoryViews) watch(ctx context.Context, client *infrastructure.Client, q restaurants.DirectoryQuery) error {
	sub, err := v.directory.Watch(ctx, q)
	if err != nil {
		return err
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		sub.Close()
		return nil
	}
	if previous, ok := v.subs[q.Command]; ok {
		previous.Close()
	}
	v.subs[q.Command] = sub
	v.mu.Unlock()

	entity, action := viewTopic(q.Command)
	go pumpSubscription(client, sub, func(value any) *domain.Message {
		return domain.BuildStreamMessage(entity, action, q.ID, value, time.Now(), domain.Metadata{
			"streamId": v.stream,
			"command":  q.Command,
			"filters":  searchKey(q),
		})
	})
	return nil
}

func (v *directoryViews) closeAll() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	for command, sub := range v.subs {
		sub.Close()
		delete(v.subs, command)
	}
}

func (v *directoryViews) openViews() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.subs)
}

// viewTopic maps a command onto the entity and action of the messages it produces.
func viewTopic(command string) (string, string) {
	switch command {
	case restaurantdomain.CommandList:
		return domain.EntityRestaurants, domain.ActionList
	case restaurantdomain.CommandDetail:
		return domain.EntityRestaurants, domain.ActionDetail
	case restaurantdomain.CommandReviews:
		return domain.EntityReviews, domain.ActionList
	default:
		return domain.EntityRestaurants, command
	}
}

func searchKey(q restaurants.DirectoryQuery) string {
	if q.Command != restaurantdomain.CommandSearch {
		return ""
	}
	return q.Filters.Key()
}
