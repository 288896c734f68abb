package testing

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"boardcheck/internal/trello"
)

// checkExpectations reports whether a step outcome meets expected. When it
// does not, the returned reason says which check failed.
func checkExpectations(expected TestExpectation, response interface{}, err error) (bool, string) {
	if expected.Success && err != nil {
		return false, fmt.Sprintf("expected success but got error: %v", err)
	}
	if !expected.Success && err == nil {
		return false, "expected failure but the action succeeded"
	}

	if len(expected.ErrorContains) > 0 {
		if err == nil {
			return false, "expected error text but got no error"
		}
		for _, text := range expected.ErrorContains {
			if !containsText(err.Error(), text) {
				return false, fmt.Sprintf("error %q does not contain %q", err.Error(), text)
			}
		}
	}

	if expected.StatusCode != 0 {
		status, ok := statusOf(response, err)
		if !ok {
			return false, fmt.Sprintf("expected status %d but no status was reported", expected.StatusCode)
		}
		if status != expected.StatusCode {
			return false, fmt.Sprintf("expected status %d, got %d", expected.StatusCode, status)
		}
	}

	if response == nil {
		if len(expected.Contains) > 0 || len(expected.Fields) > 0 || expected.Observed != nil {
			return false, "expected a response but got none"
		}
		return true, ""
	}

	responseStr := fmt.Sprintf("%v", response)
	for _, text := range expected.Contains {
		if !containsText(responseStr, text) {
			return false, fmt.Sprintf("response does not contain %q", text)
		}
	}
	for _, text := range expected.NotContains {
		if containsText(responseStr, text) {
			return false, fmt.Sprintf("response contains unexpected %q", text)
		}
	}

	fields, isMap := response.(map[string]interface{})
	if expected.Observed != nil {
		observed, ok := fields["observed"].(bool)
		if !isMap || !ok {
			return false, "response has no observed field"
		}
		if observed != *expected.Observed {
			return false, fmt.Sprintf("expected observed=%t, got %t", *expected.Observed, observed)
		}
	}

	if len(expected.Fields) > 0 {
		if !isMap {
			return false, fmt.Sprintf("field checks need a map response, got %T", response)
		}
		for key, want := range expected.Fields {
			got, exists := fields[key]
			if !exists {
				return false, fmt.Sprintf("field %q not found in response", key)
			}
			if !compareValues(got, want) {
				return false, fmt.Sprintf("field %q: expected %v, got %v", key, want, got)
			}
		}
	}

	return true, ""
}

// statusOf finds an HTTP status in a result's status field or in a board error.
func statusOf(response interface{}, err error) (int, bool) {
	var boardErr *trello.BoardError
	if errors.As(err, &boardErr) {
		return boardErr.StatusCode, true
	}
	if m, ok := response.(map[string]interface{}); ok {
		if f, ok := toFloat(m["status"]); ok {
			return int(f), true
		}
	}
	return 0, false
}

// containsText checks if text contains the expected substring (case-insensitive)
func containsText(text, expected string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(expected))
}

func toFloat(v interface{}) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// compareValues compares two values for equality, handling the type
// differences between action results and YAML-decoded expectations
func compareValues(actual, expected interface{}) bool {
	if actual == nil || expected == nil {
		return actual == expected
	}

	actualVal := reflect.ValueOf(actual)
	expectedVal := reflect.ValueOf(expected)

	if actualVal.Kind() == reflect.Slice || actualVal.Kind() == reflect.Array {
		if expectedVal.Kind() != reflect.Slice && expectedVal.Kind() != reflect.Array {
			return false
		}
		if actualVal.Len() != expectedVal.Len() {
			return false
		}
		for i := 0; i < actualVal.Len(); i++ {
			if !compareValues(actualVal.Index(i).Interface(), expectedVal.Index(i).Interface()) {
				return false
			}
		}
		return true
	}

	if actualVal.Kind() == reflect.Map && expectedVal.Kind() == reflect.Map {
		if actualVal.Len() != expectedVal.Len() {
			return false
		}
		for _, key := range expectedVal.MapKeys() {
			got := actualVal.MapIndex(key)
			if !got.IsValid() {
				return false
			}
			if !compareValues(got.Interface(), expectedVal.MapIndex(key).Interface()) {
				return false
			}
		}
		return true
	}

	if a, ok := toFloat(actual); ok {
		if e, ok := toFloat(expected); ok {
			return a == e
		}
	}

	if expectedBool, ok := expected.(bool); ok {
		switch v := actual.(type) {
		case bool:
			return v == expectedBool
		case string:
			return v == fmt.Sprintf("%t", expectedBool)
		}
		return false
	}

	if actualVal.Type().Comparable() && expectedVal.Type().Comparable() && actual == expected {
		return true
	}
	return fmt.Sprintf("%v", actual) == fmt.Sprintf("%v", expected)
}
