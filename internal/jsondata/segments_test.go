package jsondata_test

import (
	"strings"
	"testing"

	"github.com/locopon/locopon/internal/jsondata"
	"github.com/stretchr/testify/assert"
)

func TestExtractSegments_SingleObject(t *testing.T) {
	t.Parallel()

	segments := jsondata.ExtractSegments(`{"a":1}`)
	assert.Equal(t, []string{`{"a":1}`}, segments)
}

func TestExtractSegments_ConcatenatedObjectsWithNoise(t *testing.T) {
	t.Parallel()

	content := `window.state = {"a":1};var other={"b":{"c":2}};trailing`
	segments := jsondata.ExtractSegments(content)

	assert.Equal(t, []string{`{"a":1}`, `{"b":{"c":2}}`}, segments)
}

func TestExtractSegments_IgnoresStrayClosingBraces(t *testing.T) {
	t.Parallel()

	segments := jsondata.ExtractSegments(`}}{"a":1}}`)
	assert.Equal(t, []string{`{"a":1}`}, segments)
}

func TestExtractSegments_EmptyAndBraceless(t *testing.T) {
	t.Parallel()

	assert.Empty(t, jsondata.ExtractSegments(""))
	assert.Empty(t, jsondata.ExtractSegments("no braces here"))
	assert.Empty(t, jsondata.ExtractSegments("{unterminated"))
}

// Re-extracting each returned segment must yield that segment back
// unchanged, one per input.
func TestExtractSegments_Idempotent(t *testing.T) {
	t.Parallel()

	content := `noise {"a":{"b":[1,2]}} mid {"c":"d"} tail`
	segments := jsondata.ExtractSegments(content)
	assert.Len(t, segments, 2)

	for _, segment := range segments {
		again := jsondata.ExtractSegments(segment)
		assert.Equal(t, []string{segment}, again)
	}
}

// Every segment has balanced braces and appears verbatim in the input, in
// order; no characters are invented.
func TestExtractSegments_BalancedAndSubsequence(t *testing.T) {
	t.Parallel()

	inputs := []string{
		`{"a":1}{"b":2}`,
		`prefix {"nested":{"deep":{"deeper":1}}} suffix {"x":[{"y":2}]}`,
		`{{"inner":1}}`,
		`}{`,
	}

	for _, input := range inputs {
		cursor := 0
		for _, segment := range jsondata.ExtractSegments(input) {
			assert.Equal(t,
				strings.Count(segment, "{"), strings.Count(segment, "}"),
				"unbalanced segment %q from %q", segment, input)

			idx := strings.Index(input[cursor:], segment)
			assert.GreaterOrEqual(t, idx, 0,
				"segment %q not found in order in %q", segment, input)
			cursor += idx + len(segment)
		}
	}
}

// Braces inside quoted strings shift boundaries; the scan tolerates this
// and still returns brace-balanced output.
func TestExtractSegments_BraceInsideStringValue(t *testing.T) {
	t.Parallel()

	content := `{"desc":"curly } brace"}{"a":1}`
	for _, segment := range jsondata.ExtractSegments(content) {
		assert.Equal(t, strings.Count(segment, "{"), strings.Count(segment, "}"))
	}
}
