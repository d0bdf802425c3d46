package query

import (
	"sort"
	"strings"

	"github.com/distributeddata/kvstore/domain/model"
	"github.com/tidwall/gjson"
)

// document returns the JSON document held by entry, or "" if the entry
// does not hold one. Every field of "" is missing.
func document(entry *model.Entry) string {
	s, err := entry.Value.String()
	if err != nil || !gjson.Valid(s) {
		return ""
	}
	return s
}

// Match returns whether entry satisfies the key prefix and predicates of
// the query. Ordering and limit do not apply to a single entry.
func (q *Query) Match(entry *model.Entry) (bool, error) {
	err := q.Validate()
	if err != nil {
		return false, err
	}
	expression, _ := parse(q.tokens)
	return matches(expression, q.keyPrefix, entry), nil
}

func matches(expression node, keyPrefix string, entry *model.Entry) bool {
	if !strings.HasPrefix(entry.Key, keyPrefix) {
		return false
	}
	if expression == nil {
		return true
	}
	return expression.evaluate(document(entry))
}

// Apply returns the entries that match the query, ordered and limited as
// the query says. Entries that compare equal keep their relative order.
// entries itself is not modified.
func (q *Query) Apply(entries []*model.Entry) ([]*model.Entry, error) {
	err := q.Validate()
	if err != nil {
		return nil, err
	}
	expression, _ := parse(q.tokens)

	matching := make([]*model.Entry, 0, len(entries))
	for _, entry := range entries {
		if matches(expression, q.keyPrefix, entry) {
			matching = append(matching, entry)
		}
	}

	if len(q.orderings) > 0 {
		q.sort(matching)
	}

	if q.hasLimit {
		matching = q.window(matching)
	}
	return matching, nil
}

func (q *Query) sort(entries []*model.Entry) {
	documents := make(map[*model.Entry]string, len(entries))
	for _, entry := range entries {
		documents[entry] = document(entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		for _, o := range q.orderings {
			cmp := compareFields(
				gjson.Get(documents[entries[i]], o.fieldPath),
				gjson.Get(documents[entries[j]], o.fieldPath))
			if cmp == 0 {
				continue
			}
			if o.descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func (q *Query) window(entries []*model.Entry) []*model.Entry {
	if q.limitOffset >= len(entries) {
		return entries[:0]
	}
	entries = entries[q.limitOffset:]
	if q.limitTotal >= 0 && q.limitTotal < len(entries) {
		entries = entries[:q.limitTotal]
	}
	return entries
}
