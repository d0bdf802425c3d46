package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

type operandKind uint8

const (
	operandNumber operandKind = iota
	operandString
	operandBoolean
)

// operand is a predicate argument: a number, a string or a boolean.
type operand struct {
	kind    operandKind
	number  float64
	str     string
	boolean bool
}

func newOperand(value interface{}) (operand, error) {
	switch v := value.(type) {
	case int:
		return operand{kind: operandNumber, number: float64(v)}, nil
	case int32:
		return operand{kind: operandNumber, number: float64(v)}, nil
	case int64:
		return operand{kind: operandNumber, number: float64(v)}, nil
	case float32:
		return operand{kind: operandNumber, number: float64(v)}, nil
	case float64:
		return operand{kind: operandNumber, number: v}, nil
	case string:
		return operand{kind: operandString, str: v}, nil
	case bool:
		return operand{kind: operandBoolean, boolean: v}, nil
	}
	return operand{}, errors.Errorf("unsupported operand type %T", value)
}

func (o operand) sqlLike() string {
	switch o.kind {
	case operandNumber:
		return strconv.FormatFloat(o.number, 'g', -1, 64)
	case operandBoolean:
		return strconv.FormatBool(o.boolean)
	}
	return "'" + strings.ReplaceAll(o.str, "'", "''") + "'"
}

// compare compares a document field to the operand. ok is false when the
// field is missing or holds a different kind of value.
func (o operand) compare(field gjson.Result) (cmp int, ok bool) {
	switch o.kind {
	case operandNumber:
		if field.Type != gjson.Number || math.IsNaN(o.number) {
			return 0, false
		}
		return compareFloats(field.Num, o.number), true
	case operandString:
		if field.Type != gjson.String {
			return 0, false
		}
		return strings.Compare(field.Str, o.str), true
	case operandBoolean:
		if field.Type != gjson.True && field.Type != gjson.False {
			return 0, false
		}
		return compareBooleans(field.Bool(), o.boolean), true
	}
	return 0, false
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareBooleans(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}

// compareFields orders two document fields for OrderByAsc and OrderByDesc.
// Missing and null fields sort first, then booleans, numbers and strings.
func compareFields(a, b gjson.Result) int {
	rankA, rankB := fieldRank(a), fieldRank(b)
	if rankA != rankB {
		return rankA - rankB
	}
	switch a.Type {
	case gjson.Number:
		return compareFloats(a.Num, b.Num)
	case gjson.String:
		return strings.Compare(a.Str, b.Str)
	case gjson.True, gjson.False:
		return compareBooleans(a.Bool(), b.Bool())
	}
	return strings.Compare(a.Raw, b.Raw)
}

func fieldRank(r gjson.Result) int {
	switch r.Type {
	case gjson.Null:
		return 0
	case gjson.False, gjson.True:
		return 1
	case gjson.Number:
		return 2
	case gjson.String:
		return 3
	}
	return 4
}

func formatNumbers(numbers []float64) string {
	formatted := make([]string, len(numbers))
	for i, number := range numbers {
		formatted[i] = strconv.FormatFloat(number, 'g', -1, 64)
	}
	return fmt.Sprintf("(%s)", strings.Join(formatted, ", "))
}

func formatStrings(strs []string) string {
	formatted := make([]string, len(strs))
	for i, s := range strs {
		formatted[i] = operand{kind: operandString, str: s}.sqlLike()
	}
	return fmt.Sprintf("(%s)", strings.Join(formatted, ", "))
}
