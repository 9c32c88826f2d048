// Package docstore is the document database gateway: collection/document CRUD plus
// filtered queries, with MongoDB and in-memory drivers.
package docstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrInvalidQuery = errors.New("invalid query")
	ErrInvalidOut   = errors.New("out must be a non-nil pointer")
)

// Store is implemented by every driver. Documents are bson-encodable values whose
// identity lives in the "_id" field.
type Store interface {
	// CreateID returns a fresh unique document identifier.
	CreateID() string
	Get(ctx context.Context, collection, id string, out any) error
	// Set writes doc under id, replacing it unless Merge() is passed.
	Set(ctx context.Context, collection, id string, doc any, opts ...SetOption) error
	// Update patches the named fields of an existing document.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	// Find runs q against collection and decodes the matches into out (pointer to slice).
	Find(ctx context.Context, collection string, q Query, out any) error
	Close(ctx context.Context) error
}

type setOptions struct {
	merge bool
}

type SetOption func(*setOptions)

// Merge keeps fields of the stored document that doc does not mention.
func Merge() SetOption {
	return func(o *setOptions) { o.merge = true }
}

func applySetOptions(opts []SetOption) setOptions {
	var o setOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

func newID() string {
	return uuid.NewString()
}
