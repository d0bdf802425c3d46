package query

import (
	"fmt"
	"strings"
	"testing"

	"github.com/distributeddata/kvstore/domain/model"
	"github.com/pkg/errors"
)

func prepareEntriesForTest() []*model.Entry {
	documents := []struct {
		key      string
		document string
	}{
		{"user_1", `{"name": "alice", "age": 31, "city": "Haifa", "admin": true}`},
		{"user_2", `{"name": "bob", "age": 25, "city": "Tel Aviv", "admin": false}`},
		{"user_3", `{"name": "carol", "age": 42, "city": "Tel Aviv"}`},
		{"user_4", `{"name": "dave", "age": null, "city": "Eilat", "admin": false}`},
		{"user_5", `{"name": "erin", "age": 25, "city": "Haifa", "tags": {"lang": "go"}}`},
		{"item_1", `{"name": "lamp", "price": 9.5}`},
	}
	entries := make([]*model.Entry, 0, len(documents)+1)
	for _, d := range documents {
		entries = append(entries, model.NewEntry(d.key, model.NewStringValue(d.document)))
	}
	entries = append(entries, model.NewEntry("user_6", model.NewIntegerValue(7)))
	return entries
}

func keysOf(entries []*model.Entry) string {
	keys := make([]string, len(entries))
	for i, entry := range entries {
		keys[i] = entry.Key
	}
	return strings.Join(keys, ",")
}

func TestApply(t *testing.T) {
	tests := []struct {
		name         string
		query        *Query
		expectedKeys string
	}{
		{
			name:         "empty query",
			query:        New(),
			expectedKeys: "user_1,user_2,user_3,user_4,user_5,item_1,user_6",
		},
		{
			name:         "equal to string",
			query:        New().EqualTo("$.city", "Tel Aviv"),
			expectedKeys: "user_2,user_3",
		},
		{
			name:         "equal to boolean",
			query:        New().EqualTo("admin", false),
			expectedKeys: "user_2,user_4",
		},
		{
			name:         "not equal to includes missing fields",
			query:        New().PrefixKey("user_").NotEqualTo("$.city", "Haifa"),
			expectedKeys: "user_2,user_3,user_4,user_6",
		},
		{
			name:         "greater than",
			query:        New().GreaterThan("$.age", 30),
			expectedKeys: "user_1,user_3",
		},
		{
			name:         "less than or equal to",
			query:        New().LessThanOrEqualTo("$.age", int32(25)),
			expectedKeys: "user_2,user_5",
		},
		{
			name:         "greater than or equal to float",
			query:        New().GreaterThanOrEqualTo("$.price", 9.5),
			expectedKeys: "item_1",
		},
		{
			name:         "less than string",
			query:        New().LessThan("$.name", "c"),
			expectedKeys: "user_1,user_2",
		},
		{
			name:         "is null",
			query:        New().PrefixKey("user_").IsNull("$.age"),
			expectedKeys: "user_4,user_6",
		},
		{
			name:         "is not null",
			query:        New().IsNotNull("$.admin"),
			expectedKeys: "user_1,user_2,user_4",
		},
		{
			name:         "in number",
			query:        New().InNumber("$.age", []float64{25, 42}),
			expectedKeys: "user_2,user_3,user_5",
		},
		{
			name:         "not in number",
			query:        New().PrefixKey("user_").NotInNumber("$.age", []float64{25, 42}),
			expectedKeys: "user_1,user_4,user_6",
		},
		{
			name:         "in string",
			query:        New().InString("$.name", []string{"alice", "lamp", "zed"}),
			expectedKeys: "user_1,item_1",
		},
		{
			name:         "not in string",
			query:        New().PrefixKey("user_").NotInString("$.city", []string{"Haifa", "Tel Aviv"}),
			expectedKeys: "user_4,user_6",
		},
		{
			name:         "like",
			query:        New().Like("$.name", "%a%"),
			expectedKeys: "user_1,user_3,user_4,item_1",
		},
		{
			name:         "like single character",
			query:        New().Like("$.name", "_ob"),
			expectedKeys: "user_2",
		},
		{
			name:         "unlike",
			query:        New().PrefixKey("user_").Unlike("$.name", "%a%"),
			expectedKeys: "user_2,user_5,user_6",
		},
		{
			name:         "nested field",
			query:        New().EqualTo("$.tags.lang", "go"),
			expectedKeys: "user_5",
		},
		{
			name:         "implicit and",
			query:        New().EqualTo("$.city", "Haifa").GreaterThan("$.age", 30),
			expectedKeys: "user_1",
		},
		{
			name:         "or",
			query:        New().EqualTo("$.city", "Eilat").Or().EqualTo("$.age", 42),
			expectedKeys: "user_3,user_4",
		},
		{
			name: "and binds tighter than or",
			query: New().EqualTo("$.city", "Haifa").And().EqualTo("$.age", 25).
				Or().EqualTo("$.name", "bob"),
			expectedKeys: "user_2,user_5",
		},
		{
			name: "group",
			query: New().EqualTo("$.age", 25).And().
				BeginGroup().EqualTo("$.city", "Haifa").Or().EqualTo("$.city", "Eilat").EndGroup(),
			expectedKeys: "user_5",
		},
		{
			name:         "order by ascending is stable",
			query:        New().PrefixKey("user_").IsNotNull("$.age").OrderByAsc("$.age"),
			expectedKeys: "user_2,user_5,user_1,user_3",
		},
		{
			name:         "order by descending then ascending",
			query:        New().IsNotNull("$.age").OrderByDesc("$.city").OrderByAsc("$.name"),
			expectedKeys: "user_2,user_3,user_1,user_5",
		},
		{
			name:         "limit",
			query:        New().PrefixKey("user_").Limit(2, 1),
			expectedKeys: "user_2,user_3",
		},
		{
			name:         "limit past the end",
			query:        New().PrefixKey("user_").Limit(2, 10),
			expectedKeys: "",
		},
		{
			name:         "negative limit keeps the rest",
			query:        New().PrefixKey("user_").Limit(-1, 4),
			expectedKeys: "user_5,user_6",
		},
	}

	entries := prepareEntriesForTest()
	for _, test := range tests {
		result, err := test.query.Apply(entries)
		if err != nil {
			t.Fatalf("TestApply: %s: Apply unexpectedly failed: %s", test.name, err)
		}
		if keysOf(result) != test.expectedKeys {
			t.Fatalf("TestApply: %s: wrong entries for %q. Want: %s, got: %s",
				test.name, test.query.GetSQLLike(), test.expectedKeys, keysOf(result))
		}
	}

	if keysOf(entries) != "user_1,user_2,user_3,user_4,user_5,item_1,user_6" {
		t.Fatalf("TestApply: Apply reordered its input: %s", keysOf(entries))
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		query *Query
	}{
		{name: "empty field", query: New().EqualTo("", 1)},
		{name: "bare root field", query: New().EqualTo("$.", 1)},
		{name: "unsupported operand", query: New().EqualTo("$.a", []int{1})},
		{name: "empty number list", query: New().InNumber("$.a", nil)},
		{name: "empty string list", query: New().NotInString("$.a", []string{})},
		{name: "leading and", query: New().And().EqualTo("$.a", 1)},
		{name: "trailing or", query: New().EqualTo("$.a", 1).Or()},
		{name: "double connective", query: New().EqualTo("$.a", 1).And().Or().EqualTo("$.b", 1)},
		{name: "unclosed group", query: New().BeginGroup().EqualTo("$.a", 1)},
		{name: "unopened group", query: New().EqualTo("$.a", 1).EndGroup()},
		{name: "empty group", query: New().BeginGroup().EndGroup()},
		{name: "negative offset", query: New().Limit(1, -1)},
		{name: "empty suggested index", query: New().SetSuggestIndex("")},
		{name: "too long", query: New().Like("$.a", strings.Repeat("x", model.MaxQueryLength))},
	}

	for _, test := range tests {
		err := test.query.Validate()
		if !errors.Is(err, ErrInvalidQuery) {
			t.Fatalf("TestValidate: %s: want ErrInvalidQuery, got: %v", test.name, err)
		}
		_, err = test.query.Apply(prepareEntriesForTest())
		if !errors.Is(err, ErrInvalidQuery) {
			t.Fatalf("TestValidate: %s: Apply of an invalid query "+
				"returned wrong error: %v", test.name, err)
		}
	}
}

func TestGetSQLLike(t *testing.T) {
	q := New()
	if q.GetSQLLike() != "" {
		t.Fatalf("TestGetSQLLike: empty query rendered as %q", q.GetSQLLike())
	}

	q.EqualTo("$.name", "o'neil").
		BeginGroup().GreaterThan("$.age", 5).Or().IsNull("$.age").EndGroup().
		InNumber("$.score", []float64{1, 2.5}).
		PrefixKey("user_").
		OrderByDesc("$.age").
		Limit(10, 0).
		SetSuggestIndex("$.age")
	expected := "name = 'o''neil' AND ( age > 5 OR age IS NULL ) AND score IN (1, 2.5) " +
		"PREFIX_KEY 'user_' ORDER BY age DESC LIMIT 10 OFFSET 0 USE INDEX '$.age'"
	if q.GetSQLLike() != expected {
		t.Fatalf("TestGetSQLLike: wrong rendering.\nWant: %s\nGot:  %s", expected, q.GetSQLLike())
	}
	if q.GetSQLLike() != q.GetSQLLike() {
		t.Fatalf("TestGetSQLLike: rendering is not deterministic")
	}

	q.Reset()
	if q.GetSQLLike() != "" {
		t.Fatalf("TestGetSQLLike: query rendered as %q after Reset", q.GetSQLLike())
	}
	if q.KeyPrefix() != "" || q.SuggestIndex() != "" {
		t.Fatalf("TestGetSQLLike: Reset kept the prefix or the suggested index")
	}
}

func TestMatch(t *testing.T) {
	q := New().PrefixKey("user_").GreaterThan("$.age", 30)
	tests := []struct {
		entry    *model.Entry
		expected bool
	}{
		{model.NewEntry("user_1", model.NewStringValue(`{"age": 31}`)), true},
		{model.NewEntry("user_1", model.NewStringValue(`{"age": 30}`)), false},
		{model.NewEntry("item_1", model.NewStringValue(`{"age": 31}`)), false},
		{model.NewEntry("user_1", model.NewStringValue(`not json`)), false},
		{model.NewEntry("user_1", model.NewDoubleValue(31)), false},
	}
	for i, test := range tests {
		matched, err := q.Match(test.entry)
		if err != nil {
			t.Fatalf("TestMatch: %d: Match unexpectedly failed: %s", i, err)
		}
		if matched != test.expected {
			t.Fatalf("TestMatch: %d: Match returned %t, want %t", i, matched, test.expected)
		}
	}
}

func TestLikeToGlob(t *testing.T) {
	tests := []struct {
		pattern  string
		expected string
	}{
		{"%", "*"},
		{"a_c", "a?c"},
		{"100%", "100*"},
		{"*?", `\*\?`},
	}
	for _, test := range tests {
		glob := likeToGlob(test.pattern)
		if glob != test.expected {
			t.Fatalf("TestLikeToGlob: %s: want %s, got %s",
				test.pattern, test.expected, glob)
		}
	}
}

func ExampleQuery_GetSQLLike() {
	q := New().EqualTo("$.city", "Haifa").Or().LessThan("$.age", 18).OrderByAsc("$.name")
	fmt.Println(q.GetSQLLike())
	// Output: city = 'Haifa' OR age < 18 ORDER BY name ASC
}
