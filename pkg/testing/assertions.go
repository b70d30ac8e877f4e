package testing

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/ohler55/ojg/jp"

	"github.com/getmockd/gqlfixtures/pkg/graphql"
)

// AssertNoErrors asserts that the response has no errors.
func AssertNoErrors(t testing.TB, resp *graphql.GraphQLResponse) {
	t.Helper()

	if resp == nil {
		t.Errorf("expected a response, got nil")
		return
	}
	if len(resp.Errors) > 0 {
		t.Errorf("expected no errors, got %d: %s", len(resp.Errors), errorMessages(resp))
	}
}

// AssertHasErrors asserts that the response has at least one error.
func AssertHasErrors(t testing.TB, resp *graphql.GraphQLResponse) {
	t.Helper()

	if !resp.HasErrors() {
		t.Errorf("expected errors, got none")
	}
}

// AssertErrorContains asserts that some error message contains substr.
func AssertErrorContains(t testing.TB, resp *graphql.GraphQLResponse, substr string) {
	t.Helper()

	if resp != nil {
		for _, e := range resp.Errors {
			if strings.Contains(e.Message, substr) {
				return
			}
		}
	}
	t.Errorf("expected an error containing %q, got: %s", substr, errorMessages(resp))
}

func errorMessages(resp *graphql.GraphQLResponse) string {
	if resp == nil || len(resp.Errors) == 0 {
		return "[]"
	}
	msgs := make([]string, len(resp.Errors))
	for i, e := range resp.Errors {
		msgs[i] = e.Message
	}
	return "[" + strings.Join(msgs, "; ") + "]"
}

// AssertData asserts that the response data matches the expected JSON.
// The expected value can be a string, []byte, or any struct/map that will be JSON encoded.
func AssertData(t testing.TB, resp *graphql.GraphQLResponse, expected any) {
	t.Helper()

	if resp == nil {
		t.Errorf("expected a response, got nil")
		return
	}

	expectedJSON, err := normalizeJSON(expected)
	if err != nil {
		t.Errorf("failed to parse expected JSON: %v", err)
		return
	}
	actualJSON, err := normalizeValue(resp.Data)
	if err != nil {
		t.Errorf("response data is not JSON encodable: %v", err)
		return
	}

	if !reflect.DeepEqual(actualJSON, expectedJSON) {
		expectedBytes, _ := json.MarshalIndent(expectedJSON, "", "  ")
		actualBytes, _ := json.MarshalIndent(actualJSON, "", "  ")
		t.Errorf("response data does not match expected JSON\nexpected:\n%s\nactual:\n%s",
			string(expectedBytes), string(actualBytes))
	}
}

// Path evaluates a JSONPath expression such as "$.user.posts[*].id" against the
// response data.
func Path(resp *graphql.GraphQLResponse, path string) ([]any, error) {
	expr, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONPath %q: %w", path, err)
	}
	if resp == nil {
		return nil, nil
	}

	data, err := normalizeValue(resp.Data)
	if err != nil {
		return nil, err
	}
	return expr.Get(data), nil
}

// AssertPath asserts the value at a JSONPath expression. A path matching a single
// value is compared to expected directly; a path matching several values is
// compared as a list.
func AssertPath(t testing.TB, resp *graphql.GraphQLResponse, path string, expected any) {
	t.Helper()

	results, err := Path(resp, path)
	if err != nil {
		t.Errorf("%v", err)
		return
	}
	if len(results) == 0 {
		t.Errorf("JSONPath %q matched nothing in response data", path)
		return
	}

	var actual any = results
	if len(results) == 1 {
		actual = results[0]
	}

	want, err := normalizeValue(expected)
	if err != nil {
		t.Errorf("failed to normalize expected value: %v", err)
		return
	}

	if !reflect.DeepEqual(actual, want) {
		t.Errorf("JSONPath %q mismatch\nexpected: %v (%T)\nactual: %v (%T)",
			path, want, want, actual, actual)
	}
}

// normalizeJSON parses strings and byte slices as JSON documents and normalizes
// any other value with normalizeValue.
func normalizeJSON(v any) (any, error) {
	var data []byte
	switch val := v.(type) {
	case string:
		data = []byte(val)
	case []byte:
		data = val
	default:
		return normalizeValue(v)
	}

	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// normalizeValue round-trips v through encoding/json so values compare by their
// JSON form.
func normalizeValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
