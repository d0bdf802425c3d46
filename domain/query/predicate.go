package query

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/match"
)

// predicate is a condition on a single document field.
type predicate interface {
	field() string
	evaluate(fieldValue gjson.Result) bool
	sqlLike() string
}

type comparisonOperator uint8

const (
	operatorEqualTo comparisonOperator = iota
	operatorNotEqualTo
	operatorGreaterThan
	operatorLessThan
	operatorGreaterThanOrEqualTo
	operatorLessThanOrEqualTo
)

var comparisonOperatorStrings = map[comparisonOperator]string{
	operatorEqualTo:              "=",
	operatorNotEqualTo:           "<>",
	operatorGreaterThan:          ">",
	operatorLessThan:             "<",
	operatorGreaterThanOrEqualTo: ">=",
	operatorLessThanOrEqualTo:    "<=",
}

type comparisonPredicate struct {
	fieldPath string
	operator  comparisonOperator
	operand   operand
}

func (p *comparisonPredicate) field() string {
	return p.fieldPath
}

func (p *comparisonPredicate) evaluate(fieldValue gjson.Result) bool {
	cmp, ok := p.operand.compare(fieldValue)
	if !ok {
		// A field that cannot be compared is only "not equal".
		return p.operator == operatorNotEqualTo
	}
	switch p.operator {
	case operatorEqualTo:
		return cmp == 0
	case operatorNotEqualTo:
		return cmp != 0
	case operatorGreaterThan:
		return cmp > 0
	case operatorLessThan:
		return cmp < 0
	case operatorGreaterThanOrEqualTo:
		return cmp >= 0
	case operatorLessThanOrEqualTo:
		return cmp <= 0
	}
	return false
}

func (p *comparisonPredicate) sqlLike() string {
	return fmt.Sprintf("%s %s %s", p.fieldPath, comparisonOperatorStrings[p.operator], p.operand.sqlLike())
}

type nullPredicate struct {
	fieldPath string
	isNull    bool
}

func (p *nullPredicate) field() string {
	return p.fieldPath
}

func (p *nullPredicate) evaluate(fieldValue gjson.Result) bool {
	isNull := !fieldValue.Exists() || fieldValue.Type == gjson.Null
	return isNull == p.isNull
}

func (p *nullPredicate) sqlLike() string {
	if p.isNull {
		return p.fieldPath + " IS NULL"
	}
	return p.fieldPath + " IS NOT NULL"
}

type inNumberPredicate struct {
	fieldPath string
	numbers   []float64
	negate    bool
}

func (p *inNumberPredicate) field() string {
	return p.fieldPath
}

func (p *inNumberPredicate) evaluate(fieldValue gjson.Result) bool {
	found := false
	if fieldValue.Type == gjson.Number {
		for _, number := range p.numbers {
			if fieldValue.Num == number {
				found = true
				break
			}
		}
	}
	return found != p.negate
}

func (p *inNumberPredicate) sqlLike() string {
	if p.negate {
		return p.fieldPath + " NOT IN " + formatNumbers(p.numbers)
	}
	return p.fieldPath + " IN " + formatNumbers(p.numbers)
}

type inStringPredicate struct {
	fieldPath string
	strs      []string
	negate    bool
}

func (p *inStringPredicate) field() string {
	return p.fieldPath
}

func (p *inStringPredicate) evaluate(fieldValue gjson.Result) bool {
	found := false
	if fieldValue.Type == gjson.String {
		for _, s := range p.strs {
			if fieldValue.Str == s {
				found = true
				break
			}
		}
	}
	return found != p.negate
}

func (p *inStringPredicate) sqlLike() string {
	if p.negate {
		return p.fieldPath + " NOT IN " + formatStrings(p.strs)
	}
	return p.fieldPath + " IN " + formatStrings(p.strs)
}

type likePredicate struct {
	fieldPath string
	pattern   string
	glob      string
	negate    bool
}

func newLikePredicate(fieldPath string, pattern string, negate bool) *likePredicate {
	return &likePredicate{
		fieldPath: fieldPath,
		pattern:   pattern,
		glob:      likeToGlob(pattern),
		negate:    negate,
	}
}

// likeToGlob converts a LIKE pattern, where % matches any run of
// characters and _ matches exactly one, to a tidwall/match pattern.
func likeToGlob(pattern string) string {
	var glob strings.Builder
	for _, r := range pattern {
		switch r {
		case '%':
			glob.WriteRune('*')
		case '_':
			glob.WriteRune('?')
		case '*', '?', '\\':
			glob.WriteRune('\\')
			glob.WriteRune(r)
		default:
			glob.WriteRune(r)
		}
	}
	return glob.String()
}

func (p *likePredicate) field() string {
	return p.fieldPath
}

func (p *likePredicate) evaluate(fieldValue gjson.Result) bool {
	if fieldValue.Type != gjson.String {
		return p.negate
	}
	return match.Match(fieldValue.Str, p.glob) != p.negate
}

func (p *likePredicate) sqlLike() string {
	if p.negate {
		return fmt.Sprintf("%s NOT LIKE %s", p.fieldPath, operand{kind: operandString, str: p.pattern}.sqlLike())
	}
	return fmt.Sprintf("%s LIKE %s", p.fieldPath, operand{kind: operandString, str: p.pattern}.sqlLike())
}
