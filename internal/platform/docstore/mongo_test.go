package docstore

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestMongoFilterGroupsRangePredicates(t *testing.T) {
	t.Parallel()

	q := NewQuery(
		Eq("restaurantId", "r-1"),
		Where("date", OpGreaterEqual, "2026-01-01"),
		Where("date", OpLess, "2026-02-01"),
		In("status", "pending", "confirmed"),
	)
	filter := mongoFilter(q)

	if len(filter) != 3 {
		t.Fatalf("expected 3 fields, got %d: %v", len(filter), filter)
	}
	if filter[0].Key != "restaurantId" {
		t.Fatalf("expected restaurantId first, got %q", filter[0].Key)
	}
	dateOps, ok := filter[1].Value.(bson.D)
	if !ok || len(dateOps) != 2 || dateOps[0].Key != "$gte" || dateOps[1].Key != "$lt" {
		t.Fatalf("expected $gte/$lt on date, got %v", filter[1].Value)
	}
	statusOps := filter[2].Value.(bson.D)
	if statusOps[0].Key != "$in" {
		t.Fatalf("expected $in on status, got %v", statusOps)
	}
}

func TestMongoFindOptions(t *testing.T) {
	t.Parallel()

	opts := mongoFindOptions(NewQuery().Order("rating", Desc).Order("name", Asc).Take(6))
	if opts.Limit == nil || *opts.Limit != 6 {
		t.Fatalf("expected limit 6, got %v", opts.Limit)
	}
	sort, ok := opts.Sort.(bson.D)
	if !ok || len(sort) != 2 || sort[0].Value != -1 || sort[1].Value != 1 {
		t.Fatalf("unexpected sort %v", opts.Sort)
	}

	if plain := mongoFindOptions(NewQuery()); plain.Limit != nil || plain.Sort != nil {
		t.Fatalf("expected no limit or sort for bare query")
	}
}
