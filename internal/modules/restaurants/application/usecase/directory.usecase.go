package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	authdomain "mesaYaBooking/internal/modules/auth/domain"
	"mesaYaBooking/internal/modules/restaurants/application/port"
	"mesaYaBooking/internal/modules/restaurants/domain"
	realtimeport "mesaYaBooking/internal/modules/realtime/application/port"
	realtime "mesaYaBooking/internal/modules/realtime/domain"
	"mesaYaBooking/internal/platform/cache"
	"mesaYaBooking/internal/platform/livequery"
	"mesaYaBooking/internal/shared/validation"
)

const (
	directoryNamespace = "directory"
	reviewsNamespace   = "reviews"

	directoryKeyPrefix = "directory:"
	reviewsKeyPrefix   = directoryKeyPrefix + domain.CommandReviews + ":"
)

// DirectoryUseCase serves the restaurant directory. Reads go through the
// cache; every write drops the affected cache namespace and publishes a
// change event.
type DirectoryUseCase struct {
	restaurants port.RestaurantRepository
	reviews     port.ReviewRepository
	cache       cache.Cache
	live        *livequery.Registry[any]
	publisher   realtimeport.Publisher
	now         func() time.Time
}

func NewDirectoryUseCase(restaurants port.RestaurantRepository, reviews port.ReviewRepository, c cache.Cache, live *livequery.Registry[any], publisher realtimeport.Publisher) *DirectoryUseCase {
	if c == nil {
		c = cache.Noop{}
	}
	if live == nil {
		live = livequery.NewRegistry[any]("directory")
	}
	return &DirectoryUseCase{restaurants: restaurants, reviews: reviews, cache: c, live: live, publisher: publisher, now: time.Now}
}

// readThrough serves key from the cache or loads and stores it. The namespace
// version is taken before loading so a write that lands meanwhile wins.
func readThrough[T any](ctx context.Context, c cache.Cache, namespace, key string, load func(context.Context) (T, error)) (T, error) {
	version, err := c.Version(ctx, namespace)
	if err != nil {
		slog.Warn("cache version read failed", slog.String("namespace", namespace), slog.Any("error", err))
		return load(ctx)
	}
	var cached T
	hit, err := c.Get(ctx, namespace, key, &cached)
	if err != nil {
		slog.Warn("cache read failed", slog.String("namespace", namespace), slog.String("key", key), slog.Any("error", err))
	}
	if hit {
		return cached, nil
	}
	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	if err := c.Set(ctx, namespace, key, version, value); err != nil {
		slog.Warn("cache write failed", slog.String("namespace", namespace), slog.String("key", key), slog.Any("error", err))
	}
	return value, nil
}

// List returns every restaurant, best rated first.
func (uc *DirectoryUseCase) List(ctx context.Context) ([]domain.Restaurant, error) {
	return readThrough(ctx, uc.cache, directoryNamespace, "list", uc.restaurants.List)
}

func (uc *DirectoryUseCase) Featured(ctx context.Context) ([]domain.Restaurant, error) {
	return readThrough(ctx, uc.cache, directoryNamespace, "featured", func(ctx context.Context) ([]domain.Restaurant, error) {
		return uc.restaurants.Featured(ctx, domain.FeaturedLimit)
	})
}

func (uc *DirectoryUseCase) Search(ctx context.Context, opts ...domain.FilterOption) ([]domain.Restaurant, error) {
	return uc.search(ctx, domain.NewFilters(opts...))
}

func (uc *DirectoryUseCase) search(ctx context.Context, filters domain.Filters) ([]domain.Restaurant, error) {
	return readThrough(ctx, uc.cache, directoryNamespace, "search:"+filters.Key(), func(ctx context.Context) ([]domain.Restaurant, error) {
		return uc.restaurants.Search(ctx, filters)
	})
}

func (uc *DirectoryUseCase) Get(ctx context.Context, id string) (domain.Restaurant, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Restaurant{}, domain.ErrMissingID
	}
	return readThrough(ctx, uc.cache, directoryNamespace, "detail:"+id, func(ctx context.Context) (domain.Restaurant, error) {
		return uc.restaurants.Get(ctx, id)
	})
}

// CuisineTypes lists the distinct cuisines, sorted.
func (uc *DirectoryUseCase) CuisineTypes(ctx context.Context) ([]string, error) {
	return readThrough(ctx, uc.cache, directoryNamespace, "cuisines", func(ctx context.Context) ([]string, error) {
		all, err := uc.restaurants.List(ctx)
		if err != nil {
			return nil, err
		}
		return domain.DistinctCuisines(all), nil
	})
}

// ListReviews returns the reviews of a restaurant, newest first.
func (uc *DirectoryUseCase) ListReviews(ctx context.Context, restaurantID string) ([]domain.Review, error) {
	restaurantID = strings.TrimSpace(restaurantID)
	if restaurantID == "" {
		return nil, domain.ErrMissingID
	}
	return readThrough(ctx, uc.cache, reviewsNamespace, restaurantID, func(ctx context.Context) ([]domain.Review, error) {
		return uc.reviews.ListByRestaurant(ctx, restaurantID)
	})
}

func signedInUser(sess port.SessionReader) (authdomain.User, error) {
	if sess == nil {
		return authdomain.User{}, authdomain.ErrNotSignedIn
	}
	user, ok := sess.Current()
	if !ok {
		return authdomain.User{}, authdomain.ErrNotSignedIn
	}
	return user, nil
}

// Create stores a new restaurant owned by the caller. Only owners and admins
// may create; admins may name another owner.
func (uc *DirectoryUseCase) Create(ctx context.Context, sess port.SessionReader, r domain.Restaurant) (*domain.Restaurant, error) {
	user, err := signedInUser(sess)
	if err != nil {
		return nil, err
	}
	if !user.HasRole(authdomain.RoleRestaurantOwner, authdomain.RoleAdmin) {
		return nil, authdomain.ErrForbidden
	}

	r.ID = uc.restaurants.CreateID()
	r.CreatedAt = uc.now().UTC()
	r.Rating = 0
	r.ReviewCount = 0
	if !user.IsAdmin() || strings.TrimSpace(r.OwnerID) == "" {
		r.OwnerID = user.UID
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := uc.restaurants.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create restaurant: %w", err)
	}
	slog.Info("restaurant created", slog.String("restaurantId", r.ID), slog.String("ownerId", r.OwnerID))
	uc.changed(ctx, realtime.EntityRestaurants, realtime.ActionCreated, r.ID, r)
	return &r, nil
}

func (uc *DirectoryUseCase) authorizeOwner(ctx context.Context, sess port.SessionReader, id string) (domain.Restaurant, error) {
	user, err := signedInUser(sess)
	if err != nil {
		return domain.Restaurant{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Restaurant{}, domain.ErrMissingID
	}
	existing, err := uc.restaurants.Get(ctx, id)
	if err != nil {
		return domain.Restaurant{}, err
	}
	if !user.IsAdmin() && existing.OwnerID != user.UID {
		return domain.Restaurant{}, authdomain.ErrForbidden
	}
	return existing, nil
}

// Update writes only the fields set in patch. Restricted to the owner of
// record and admins.
func (uc *DirectoryUseCase) Update(ctx context.Context, sess port.SessionReader, id string, patch domain.Patch) (*domain.Restaurant, error) {
	existing, err := uc.authorizeOwner(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	fields, err := patch.Fields()
	if err != nil {
		return nil, err
	}
	if err := uc.restaurants.Update(ctx, existing.ID, fields); err != nil {
		return nil, fmt.Errorf("update restaurant %s: %w", existing.ID, err)
	}
	updated, err := uc.restaurants.Get(ctx, existing.ID)
	if err != nil {
		return nil, err
	}
	slog.Info("restaurant updated", slog.String("restaurantId", updated.ID), slog.Int("fields", len(fields)))
	uc.changed(ctx, realtime.EntityRestaurants, realtime.ActionUpdated, updated.ID, updated)
	return &updated, nil
}

func (uc *DirectoryUseCase) Delete(ctx context.Context, sess port.SessionReader, id string) error {
	existing, err := uc.authorizeOwner(ctx, sess, id)
	if err != nil {
		return err
	}
	if err := uc.restaurants.Delete(ctx, existing.ID); err != nil {
		return fmt.Errorf("delete restaurant %s: %w", existing.ID, err)
	}
	slog.Info("restaurant deleted", slog.String("restaurantId", existing.ID))
	uc.changed(ctx, realtime.EntityRestaurants, realtime.ActionDeleted, existing.ID, map[string]string{"id": existing.ID})
	return nil
}

// AddReview stores a review written by the signed-in user.
func (uc *DirectoryUseCase) AddReview(ctx context.Context, sess port.SessionReader, restaurantID string, review domain.Review) (*domain.Review, error) {
	user, err := signedInUser(sess)
	if err != nil {
		return nil, err
	}
	restaurant, err := uc.Get(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	review.ID = uc.reviews.CreateID()
	review.RestaurantID = restaurant.ID
	review.UserID = user.UID
	review.UserName = strings.TrimSpace(user.DisplayName)
	if review.UserName == "" {
		review.UserName = user.Email
	}
	review.Comment = strings.TrimSpace(review.Comment)
	review.CreatedAt = uc.now().UTC()
	if err := validation.Struct(review); err != nil {
		return nil, err
	}
	if err := uc.reviews.Add(ctx, review); err != nil {
		return nil, fmt.Errorf("add review: %w", err)
	}
	slog.Info("review added", slog.String("reviewId", review.ID), slog.String("restaurantId", review.RestaurantID), slog.Int("rating", review.Rating))
	uc.changed(ctx, realtime.EntityReviews, realtime.ActionCreated, review.ID, review)
	return &review, nil
}

func (uc *DirectoryUseCase) changed(ctx context.Context, entity, action, id string, data any) {
	uc.invalidate(ctx, entity)
	if uc.publisher == nil {
		return
	}
	restaurantID := id
	if review, ok := data.(domain.Review); ok {
		restaurantID = review.RestaurantID
	}
	msg := realtime.NewChangeEvent(entity, action, id, realtime.Metadata{"restaurantId": restaurantID}, data, uc.now())
	if err := uc.publisher.Publish(ctx, msg); err != nil {
		slog.Warn("directory event publish failed", slog.String("topic", msg.Topic), slog.String("resourceId", id), slog.Any("error", err))
	}
}

func (uc *DirectoryUseCase) invalidate(ctx context.Context, entity string) {
	namespace := directoryNamespace
	if entity == realtime.EntityReviews {
		namespace = reviewsNamespace
	}
	if err := uc.cache.Invalidate(ctx, namespace); err != nil {
		slog.Warn("cache invalidation failed", slog.String("namespace", namespace), slog.Any("error", err))
	}
}

// Refresh drops stale cache entries and recomputes the live directory
// queries touched by a restaurant or review event.
func (uc *DirectoryUseCase) Refresh(ctx context.Context, msg *realtime.Message) {
	if msg == nil {
		return
	}
	switch realtime.NormalizeEntity(msg.Entity) {
	case realtime.EntityRestaurants:
		uc.invalidate(ctx, realtime.EntityRestaurants)
		n := uc.live.RefreshMatching(ctx, func(key string) bool {
			return strings.HasPrefix(key, directoryKeyPrefix) && !strings.HasPrefix(key, reviewsKeyPrefix)
		})
		slog.Debug("directory refreshed", slog.String("event", msg.Topic), slog.Int("count", n))
	case realtime.EntityReviews:
		uc.invalidate(ctx, realtime.EntityReviews)
		rid := msg.Meta("restaurantId")
		if rid == "" {
			n := uc.live.RefreshPrefix(ctx, reviewsKeyPrefix)
			slog.Debug("reviews refreshed", slog.String("event", msg.Topic), slog.Int("count", n))
			return
		}
		if err := uc.live.Refresh(ctx, reviewsKeyPrefix+rid); err != nil {
			slog.Warn("reviews refresh failed", slog.String("restaurantId", rid), slog.Any("error", err))
		}
	}
}

var _ realtimeport.SnapshotRefresher = (*DirectoryUseCase)(nil)
