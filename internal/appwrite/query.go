package appwrite

import (
	"encoding/json"
	"strconv"
)

// Query is a filter, ordering or limit predicate in Appwrite's query syntax.
type Query string

// Equal matches documents whose attribute equals any of values.
func Equal(attribute string, values ...any) Query {
	return method("equal", quote(attribute), list(values))
}

// Search matches documents whose full-text indexed attribute contains text.
func Search(attribute, text string) Query {
	return method("search", quote(attribute), list([]any{text}))
}

// OrderDesc sorts by attribute, newest or largest first.
func OrderDesc(attribute string) Query {
	return method("orderDesc", quote(attribute))
}

// Limit caps the number of returned documents.
func Limit(n int) Query {
	return method("limit", strconv.Itoa(n))
}

func method(name string, args ...string) Query {
	out := name + "("
	for i, arg := range args {
		if i > 0 {
			out += ", "
		}
		out += arg
	}
	return Query(out + ")")
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func list(values []any) string {
	if values == nil {
		values = []any{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(b)
}
