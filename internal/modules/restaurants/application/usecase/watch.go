package usecase

import (
	"context"
	"strings"

	"mesaYaBooking/internal/modules/restaurants/domain"
	"mesaYaBooking/internal/platform/livequery"
)

// DirectoryQuery names one live directory view.
type DirectoryQuery struct {
	Command string
	ID      string
	Filters domain.Filters
}

// Key is the live query key shared by every subscriber of the same view.
func (q DirectoryQuery) Key() (string, error) {
	command := strings.ToLower(strings.TrimSpace(q.Command))
	switch command {
	case domain.CommandList, domain.CommandFeatured, domain.CommandCuisines:
		return directoryKeyPrefix + command, nil
	case domain.CommandSearch:
		return directoryKeyPrefix + command + ":" + q.Filters.Normalize().Key(), nil
	case domain.CommandDetail, domain.CommandReviews:
		id := strings.TrimSpace(q.ID)
		if id == "" {
			return "", domain.ErrMissingID
		}
		return directoryKeyPrefix + command + ":" + id, nil
	default:
		return "", domain.ErrUnknownCommand
	}
}

// Watch subscribes to a live directory view. The current result is
// delivered immediately; the caller must Close the subscription.
func (uc *DirectoryUseCase) Watch(ctx context.Context, q DirectoryQuery) (*livequery.Subscription[any], error) {
	key, err := q.Key()
	if err != nil {
		return nil, err
	}
	return uc.live.Subscribe(ctx, key, uc.fetcher(q))
}

func (uc *DirectoryUseCase) fetcher(q DirectoryQuery) livequery.Fetcher[any] {
	id := strings.TrimSpace(q.ID)
	filters := q.Filters.Normalize()
	switch strings.ToLower(strings.TrimSpace(q.Command)) {
	case domain.CommandFeatured:
		return func(ctx context.Context) (any, error) { return uc.Featured(ctx) }
	case domain.CommandCuisines:
		return func(ctx context.Context) (any, error) { return uc.CuisineTypes(ctx) }
	case domain.CommandSearch:
		return func(ctx context.Context) (any, error) { return uc.search(ctx, filters) }
	case domain.CommandDetail:
		return func(ctx context.Context) (any, error) { return uc.Get(ctx, id) }
	case domain.CommandReviews:
		return func(ctx context.Context) (any, error) { return uc.ListReviews(ctx, id) }
	default:
		return func(ctx context.Context) (any, error) { return uc.List(ctx) }
	}
}
