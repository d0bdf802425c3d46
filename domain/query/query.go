package query

import (
	"fmt"
	"strings"

	"github.com/distributeddata/kvstore/domain/model"
	"github.com/pkg/errors"
)

type tokenKind uint8

const (
	tokenPredicate tokenKind = iota
	tokenAnd
	tokenOr
	tokenBeginGroup
	tokenEndGroup
)

var tokenKindStrings = map[tokenKind]string{
	tokenPredicate:  "predicate",
	tokenAnd:        "AND",
	tokenOr:         "OR",
	tokenBeginGroup: "(",
	tokenEndGroup:   ")",
}

func (k tokenKind) String() string {
	return tokenKindStrings[k]
}

type token struct {
	kind      tokenKind
	predicate predicate
}

type ordering struct {
	fieldPath  string
	descending bool
}

// Query selects entries by key prefix and by predicates on the JSON
// documents held in their STRING values. Builder methods return the query
// itself so calls can be chained:
//
//	q := query.New().
//		EqualTo("$.city", "Tel Aviv").
//		BeginGroup().GreaterThan("$.age", 18).Or().IsNull("$.age").EndGroup().
//		OrderByAsc("$.age").
//		Limit(10, 0)
//
// Consecutive predicates are joined with AND unless Or is called between
// them. The first builder error is kept and reported by Validate.
//
// A Query is not safe for concurrent modification.
type Query struct {
	tokens       []token
	keyPrefix    string
	orderings    []ordering
	hasLimit     bool
	limitTotal   int
	limitOffset  int
	suggestIndex string
	err          error
}

// New returns an empty query, which matches every entry.
func New() *Query {
	return &Query{}
}

// Reset clears every predicate, ordering and limit of the query.
func (q *Query) Reset() *Query {
	*q = Query{}
	return q
}

func (q *Query) setError(err error) {
	if q.err == nil {
		q.err = errors.Wrapf(ErrInvalidQuery, "%s", err)
	}
}

// normalizeField turns a field name into a gjson path. A leading "$." is
// accepted and dropped.
func normalizeField(field string) (string, error) {
	path := strings.TrimPrefix(field, "$.")
	if path == "" || path == "$" {
		return "", errors.Errorf("invalid field %q", field)
	}
	if strings.ContainsAny(path, " \t\n") {
		return "", errors.Errorf("field %q contains whitespace", field)
	}
	return path, nil
}

func (q *Query) addPredicate(field string, newPredicate func(path string) (predicate, error)) *Query {
	path, err := normalizeField(field)
	if err != nil {
		q.setError(err)
		return q
	}
	p, err := newPredicate(path)
	if err != nil {
		q.setError(err)
		return q
	}
	q.tokens = append(q.tokens, token{kind: tokenPredicate, predicate: p})
	return q
}

func (q *Query) addComparison(field string, operator comparisonOperator, value interface{}) *Query {
	return q.addPredicate(field, func(path string) (predicate, error) {
		o, err := newOperand(value)
		if err != nil {
			return nil, err
		}
		return &comparisonPredicate{fieldPath: path, operator: operator, operand: o}, nil
	})
}

// EqualTo matches entries whose field equals value. value is a number,
// a string or a boolean.
func (q *Query) EqualTo(field string, value interface{}) *Query {
	return q.addComparison(field, operatorEqualTo, value)
}

// NotEqualTo matches entries whose field does not equal value, including
// entries where the field is missing.
func (q *Query) NotEqualTo(field string, value interface{}) *Query {
	return q.addComparison(field, operatorNotEqualTo, value)
}

// GreaterThan matches entries whose field is greater than value.
func (q *Query) GreaterThan(field string, value interface{}) *Query {
	return q.addComparison(field, operatorGreaterThan, value)
}

// LessThan matches entries whose field is less than value.
func (q *Query) LessThan(field string, value interface{}) *Query {
	return q.addComparison(field, operatorLessThan, value)
}

// GreaterThanOrEqualTo matches entries whose field is greater than or
// equal to value.
func (q *Query) GreaterThanOrEqualTo(field string, value interface{}) *Query {
	return q.addComparison(field, operatorGreaterThanOrEqualTo, value)
}

// LessThanOrEqualTo matches entries whose field is less than or equal to
// value.
func (q *Query) LessThanOrEqualTo(field string, value interface{}) *Query {
	return q.addComparison(field, operatorLessThanOrEqualTo, value)
}

// IsNull matches entries whose field is null or missing.
func (q *Query) IsNull(field string) *Query {
	return q.addPredicate(field, func(path string) (predicate, error) {
		return &nullPredicate{fieldPath: path, isNull: true}, nil
	})
}

// IsNotNull matches entries whose field is present and not null.
func (q *Query) IsNotNull(field string) *Query {
	return q.addPredicate(field, func(path string) (predicate, error) {
		return &nullPredicate{fieldPath: path, isNull: false}, nil
	})
}

func (q *Query) addInNumber(field string, numbers []float64, negate bool) *Query {
	return q.addPredicate(field, func(path string) (predicate, error) {
		if len(numbers) == 0 {
			return nil, errors.Errorf("empty number list for field %q", field)
		}
		numbersCopy := make([]float64, len(numbers))
		copy(numbersCopy, numbers)
		return &inNumberPredicate{fieldPath: path, numbers: numbersCopy, negate: negate}, nil
	})
}

func (q *Query) addInString(field string, strs []string, negate bool) *Query {
	return q.addPredicate(field, func(path string) (predicate, error) {
		if len(strs) == 0 {
			return nil, errors.Errorf("empty string list for field %q", field)
		}
		strsCopy := make([]string, len(strs))
		copy(strsCopy, strs)
		return &inStringPredicate{fieldPath: path, strs: strsCopy, negate: negate}, nil
	})
}

// InNumber matches entries whose field is one of numbers.
func (q *Query) InNumber(field string, numbers []float64) *Query {
	return q.addInNumber(field, numbers, false)
}

// NotInNumber matches entries whose field is none of numbers.
func (q *Query) NotInNumber(field string, numbers []float64) *Query {
	return q.addInNumber(field, numbers, true)
}

// InString matches entries whose field is one of strs.
func (q *Query) InString(field string, strs []string) *Query {
	return q.addInString(field, strs, false)
}

// NotInString matches entries whose field is none of strs.
func (q *Query) NotInString(field string, strs []string) *Query {
	return q.addInString(field, strs, true)
}

// Like matches entries whose string field matches pattern, where %
// matches any run of characters and _ matches a single character.
func (q *Query) Like(field string, pattern string) *Query {
	return q.addPredicate(field, func(path string) (predicate, error) {
		return newLikePredicate(path, pattern, false), nil
	})
}

// Unlike matches entries whose field does not match pattern.
func (q *Query) Unlike(field string, pattern string) *Query {
	return q.addPredicate(field, func(path string) (predicate, error) {
		return newLikePredicate(path, pattern, true), nil
	})
}

// And joins the surrounding predicates with AND.
func (q *Query) And() *Query {
	q.tokens = append(q.tokens, token{kind: tokenAnd})
	return q
}

// Or joins the surrounding predicates with OR. AND binds tighter.
func (q *Query) Or() *Query {
	q.tokens = append(q.tokens, token{kind: tokenOr})
	return q
}

// BeginGroup opens a parenthesised sub-expression.
func (q *Query) BeginGroup() *Query {
	q.tokens = append(q.tokens, token{kind: tokenBeginGroup})
	return q
}

// EndGroup closes the sub-expression opened by the matching BeginGroup.
func (q *Query) EndGroup() *Query {
	q.tokens = append(q.tokens, token{kind: tokenEndGroup})
	return q
}

// PrefixKey restricts the query to keys starting with prefix.
func (q *Query) PrefixKey(prefix string) *Query {
	if len(prefix) > model.MaxKeyLength {
		q.setError(errors.Errorf("key prefix is longer than %d bytes", model.MaxKeyLength))
		return q
	}
	q.keyPrefix = prefix
	return q
}

// KeyPrefix returns the prefix set by PrefixKey.
func (q *Query) KeyPrefix() string {
	return q.keyPrefix
}

func (q *Query) addOrdering(field string, descending bool) *Query {
	path, err := normalizeField(field)
	if err != nil {
		q.setError(err)
		return q
	}
	q.orderings = append(q.orderings, ordering{fieldPath: path, descending: descending})
	return q
}

// OrderByAsc orders matching entries by field, ascending. Later orderings
// break ties of earlier ones.
func (q *Query) OrderByAsc(field string) *Query {
	return q.addOrdering(field, false)
}

// OrderByDesc orders matching entries by field, descending.
func (q *Query) OrderByDesc(field string) *Query {
	return q.addOrdering(field, true)
}

// Limit keeps at most total matching entries, skipping the first offset
// ones. A negative total keeps every entry after offset.
func (q *Query) Limit(total int, offset int) *Query {
	if offset < 0 {
		q.setError(errors.Errorf("negative limit offset %d", offset))
		return q
	}
	q.hasLimit = true
	q.limitTotal = total
	q.limitOffset = offset
	return q
}

// SetSuggestIndex records the index the query should use. Stores without
// secondary indexes ignore it.
func (q *Query) SetSuggestIndex(index string) *Query {
	if index == "" {
		q.setError(errors.New("empty suggested index"))
		return q
	}
	q.suggestIndex = index
	return q
}

// SuggestIndex returns the index recorded by SetSuggestIndex.
func (q *Query) SuggestIndex() string {
	return q.suggestIndex
}

// Validate returns the first builder error, or an error if the
// predicates do not form a well formed expression.
func (q *Query) Validate() error {
	if q.err != nil {
		return q.err
	}
	_, err := parse(q.tokens)
	if err != nil {
		return errors.Wrapf(ErrInvalidQuery, "%s", err)
	}
	if length := len(q.GetSQLLike()); length > model.MaxQueryLength {
		return errors.Wrapf(ErrInvalidQuery, "query is %d bytes long, "+
			"the maximum is %d", length, model.MaxQueryLength)
	}
	return nil
}

// GetSQLLike renders the query in an SQL-like form, for logging and
// debugging. An empty query renders as "".
func (q *Query) GetSQLLike() string {
	var parts []string
	previous := tokenAnd
	for i, t := range q.tokens {
		startsOperand := t.kind == tokenPredicate || t.kind == tokenBeginGroup
		endsOperand := previous == tokenPredicate || previous == tokenEndGroup
		if i > 0 && startsOperand && endsOperand {
			parts = append(parts, "AND")
		}
		if t.kind == tokenPredicate {
			parts = append(parts, t.predicate.sqlLike())
		} else {
			parts = append(parts, t.kind.String())
		}
		previous = t.kind
	}
	if q.keyPrefix != "" {
		parts = append(parts, "PREFIX_KEY "+operand{kind: operandString, str: q.keyPrefix}.sqlLike())
	}
	if len(q.orderings) > 0 {
		orderings := make([]string, len(q.orderings))
		for i, o := range q.orderings {
			direction := "ASC"
			if o.descending {
				direction = "DESC"
			}
			orderings[i] = o.fieldPath + " " + direction
		}
		parts = append(parts, "ORDER BY "+strings.Join(orderings, ", "))
	}
	if q.hasLimit {
		parts = append(parts, fmt.Sprintf("LIMIT %d OFFSET %d", q.limitTotal, q.limitOffset))
	}
	if q.suggestIndex != "" {
		parts = append(parts, "USE INDEX "+operand{kind: operandString, str: q.suggestIndex}.sqlLike())
	}
	return strings.Join(parts, " ")
}

func (q *Query) String() string {
	return q.GetSQLLike()
}
