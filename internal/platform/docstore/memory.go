package docstore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore keeps documents as bson maps so values go through the same encoding
// rules as the MongoDB driver. Used by tests and by STORE_DRIVER=memory.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]bson.M
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]bson.M)}
}

func (s *MemoryStore) CreateID() string { return newID() }

func (s *MemoryStore) Get(ctx context.Context, collection, id string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	return decodeDocument(doc, out)
}

func (s *MemoryStore) Set(ctx context.Context, collection, id string, doc any, opts ...SetOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fields, err := toDocument(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	fields["_id"] = id
	options := applySetOptions(opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.collection(collection)
	if existing, ok := docs[id]; ok && options.merge {
		for key, value := range fields {
			existing[key] = value
		}
		return nil
	}
	docs[id] = fields
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	patch, err := toDocument(fields)
	if err != nil {
		return fmt.Errorf("encode patch %s/%s: %w", collection, id, err)
	}
	delete(patch, "_id")

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	for key, value := range patch {
		existing[key] = value
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[collection][id]; !ok {
		return ErrNotFound
	}
	delete(s.collections[collection], id)
	return nil
}

func (s *MemoryStore) Find(ctx context.Context, collection string, q Query, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := q.Validate(); err != nil {
		return err
	}
	predicates, err := normalizePredicates(q.Where)
	if err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := make([]bson.M, 0)
	for _, doc := range s.collections[collection] {
		if matchesAll(doc, predicates) {
			matches = append(matches, doc)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return fmt.Sprint(matches[i]["_id"]) < fmt.Sprint(matches[j]["_id"])
	})
	if len(q.OrderBy) > 0 {
		sort.SliceStable(matches, func(i, j int) bool {
			return less(matches[i], matches[j], q.OrderBy)
		})
	}
	if q.Limit > 0 && len(matches) > q.Limit {
		matches = matches[:q.Limit]
	}
	return decodeDocuments(matches, out)
}

func (s *MemoryStore) Close(context.Context) error { return nil }

// collection must be called with the write lock held.
func (s *MemoryStore) collection(name string) map[string]bson.M {
	docs, ok := s.collections[name]
	if !ok {
		docs = make(map[string]bson.M)
		s.collections[name] = docs
	}
	return docs
}

func toDocument(doc any) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func normalizeValue(v any) (any, error) {
	m, err := toDocument(bson.M{"v": v})
	if err != nil {
		return nil, err
	}
	return m["v"], nil
}

func normalizePredicates(preds []Predicate) ([]Predicate, error) {
	out := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		value, err := normalizeValue(p.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidQuery, p.Field, err)
		}
		out = append(out, Predicate{Field: p.Field, Op: p.Op, Value: value})
	}
	return out, nil
}

func matchesAll(doc bson.M, preds []Predicate) bool {
	for _, p := range preds {
		if !matches(doc, p) {
			return false
		}
	}
	return true
}

func matches(doc bson.M, p Predicate) bool {
	value, present := doc[p.Field]
	if !present {
		return false
	}
	if p.Op == OpIn {
		list, _ := p.Value.(primitive.A)
		for _, candidate := range list {
			if c, ok := compare(value, candidate); ok && c == 0 {
				return true
			}
		}
		return false
	}
	c, ok := compare(value, p.Value)
	if !ok {
		return false
	}
	switch p.Op {
	case OpEqual:
		return c == 0
	case OpLess:
		return c < 0
	case OpLessEqual:
		return c <= 0
	case OpGreater:
		return c > 0
	case OpGreaterEqual:
		return c >= 0
	}
	return false
}

func less(a, b bson.M, orders []Order) bool {
	for _, o := range orders {
		c, ok := compare(a[o.Field], b[o.Field])
		if !ok || c == 0 {
			continue
		}
		if o.Direction == Desc {
			return c > 0
		}
		return c < 0
	}
	return false
}

// compare orders two bson-decoded scalars; ok is false for mismatched kinds.
func compare(a, b any) (int, bool) {
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		default:
			return 1, true
		}
	case primitive.DateTime:
		y, ok := b.(primitive.DateTime)
		if !ok {
			return 0, false
		}
		return cmpFloat(float64(x), float64(y)), true
	}
	xf, okA := number(a)
	yf, okB := number(b)
	if okA && okB {
		return cmpFloat(xf, yf), true
	}
	return 0, false
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func decodeDocument(doc bson.M, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return ErrInvalidOut
	}
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, out)
}

func decodeDocuments(docs []bson.M, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Slice {
		return ErrInvalidOut
	}
	slice := reflect.MakeSlice(rv.Elem().Type(), 0, len(docs))
	elemType := slice.Type().Elem()
	for _, doc := range docs {
		raw, err := bson.Marshal(doc)
		if err != nil {
			return err
		}
		elem := reflect.New(elemType)
		if err := bson.Unmarshal(raw, elem.Interface()); err != nil {
			return err
		}
		slice = reflect.Append(slice, elem.Elem())
	}
	rv.Elem().Set(slice)
	return nil
}
