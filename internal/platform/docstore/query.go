package docstore

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type Op string

const (
	OpEqual        Op = "=="
	OpIn           Op = "in"
	OpLess         Op = "<"
	OpLessEqual    Op = "<="
	OpGreater      Op = ">"
	OpGreaterEqual Op = ">="
)

type Direction int

const (
	Asc  Direction = 1
	Desc Direction = -1
)

type Predicate struct {
	Field string
	Op    Op
	Value any
}

type Order struct {
	Field     string
	Direction Direction
}

// Query is an immutable description of a filtered, ordered, limited read.
type Query struct {
	Where   []Predicate
	OrderBy []Order
	Limit   int
}

// Where starts a predicate list; Eq and In are the common shortcuts.
func Where(field string, op Op, value any) Predicate {
	return Predicate{Field: field, Op: op, Value: value}
}

func Eq(field string, value any) Predicate { return Where(field, OpEqual, value) }

func In(field string, values ...any) Predicate { return Where(field, OpIn, values) }

func NewQuery(predicates ...Predicate) Query {
	return Query{Where: append([]Predicate(nil), predicates...)}
}

// Order returns a copy of q ordered additionally by field.
func (q Query) Order(field string, dir Direction) Query {
	q.OrderBy = append(append([]Order(nil), q.OrderBy...), Order{Field: field, Direction: dir})
	return q
}

// Take returns a copy of q limited to n documents.
func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}

// Validate rejects empty field names, unknown operators and non-slice "in" values.
func (q Query) Validate() error {
	for _, p := range q.Where {
		if strings.TrimSpace(p.Field) == "" {
			return fmt.Errorf("%w: empty field", ErrInvalidQuery)
		}
		switch p.Op {
		case OpEqual, OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
		case OpIn:
			if _, ok := p.Value.([]any); !ok {
				return fmt.Errorf("%w: %s in expects a list", ErrInvalidQuery, p.Field)
			}
		default:
			return fmt.Errorf("%w: operator %q", ErrInvalidQuery, p.Op)
		}
	}
	for _, o := range q.OrderBy {
		if strings.TrimSpace(o.Field) == "" || (o.Direction != Asc && o.Direction != Desc) {
			return fmt.Errorf("%w: bad ordering", ErrInvalidQuery)
		}
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidQuery)
	}
	return nil
}

// Key renders a canonical string for q; predicates are sorted so equivalent queries share a key.
func (q Query) Key() string {
	preds := make([]string, 0, len(q.Where))
	for _, p := range q.Where {
		preds = append(preds, fmt.Sprintf("%s%s%v", p.Field, p.Op, p.Value))
	}
	sort.Strings(preds)

	var b strings.Builder
	b.WriteString(strings.Join(preds, "&"))
	for _, o := range q.OrderBy {
		b.WriteString("|")
		b.WriteString(o.Field)
		if o.Direction == Desc {
			b.WriteString(":desc")
		} else {
			b.WriteString(":asc")
		}
	}
	if q.Limit > 0 {
		b.WriteString("|limit=")
		b.WriteString(strconv.Itoa(q.Limit))
	}
	return b.String()
}
