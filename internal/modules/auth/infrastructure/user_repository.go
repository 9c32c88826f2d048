package infrastructure

import (
	"context"
	"errors"

	"mesaYaBooking/internal/modules/auth/application/port"
	"mesaYaBooking/internal/modules/auth/domain"
	"mesaYaBooking/internal/platform/docstore"
)

type UserRepository struct {
	store docstore.Store
}

func NewUserRepository(store docstore.Store) *UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) Merge(ctx context.Context, uid string, fields map[string]any) (domain.User, error) {
	doc := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == "uid" || k == "_id" {
			continue
		}
		doc[k] = v
	}
	if err := r.store.Set(ctx, domain.UsersCollection, uid, doc, docstore.Merge()); err != nil {
		return domain.User{}, err
	}
	return r.Get(ctx, uid)
}

func (r *UserRepository) Get(ctx context.Context, uid string) (domain.User, error) {
	var user domain.User
	err := r.store.Get(ctx, domain.UsersCollection, uid, &user)
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, err
}

var _ port.UserRepository = (*UserRepository)(nil)
