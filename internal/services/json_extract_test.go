package services

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tztgracious/Jobify/internal/apperr"
)

func TestDecodeJSONObject(t *testing.T) {
	type reply struct {
		Question string `json:"question"`
		Meta     struct {
			Level int `json:"level"`
		} `json:"meta"`
	}

	tests := []struct {
		name     string
		input    string
		question string
		level    int
	}{
		{name: "plain", input: `{"question": "Why Go?"}`, question: "Why Go?"},
		{name: "fenced", input: "```json\n{\"question\": \"Why Go?\"}\n```", question: "Why Go?"},
		{name: "prose around", input: "Sure! Here it is:\n{\"question\": \"Why Go?\"}\nHope that helps.", question: "Why Go?"},
		{name: "one level nested", input: `Result: {"question": "Q", "meta": {"level": 4}} done`, question: "Q", level: 4},
		{name: "whitespace", input: "   \n{\"question\": \"Q\"}\n\n", question: "Q"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got reply
			require.NoError(t, DecodeJSONObject(tt.input, &got))
			assert.Equal(t, tt.question, got.Question)
			assert.Equal(t, tt.level, got.Meta.Level)
		})
	}
}

func TestDecodeJSONObject_Malformed(t *testing.T) {
	for _, input := range []string{"", "no json here", `{"question": }`} {
		var v map[string]interface{}
		err := DecodeJSONObject(input, &v)
		require.Error(t, err, input)
		assert.True(t, errors.Is(err, apperr.ErrMalformedResponse), input)
	}
}

func TestDecodeFirstJSONArray(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "bare", input: `["python","django"]`, want: []string{"python", "django"}},
		{name: "prose", input: "Keywords:\n[\"go\", \"sql\"]\nThat's all.", want: []string{"go", "sql"}},
		{name: "fenced", input: "```json\n[\"go\"]\n```", want: []string{"go"}},
		{name: "skips broken bracket", input: `see [note] then ["a", "b"]`, want: []string{"a", "b"}},
		{name: "two arrays takes first", input: `["a"] and ["b"]`, want: []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			require.NoError(t, DecodeFirstJSONArray(tt.input, &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeFirstJSONArray_Malformed(t *testing.T) {
	var got []string
	err := DecodeFirstJSONArray("I could not find any skills.", &got)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrMalformedResponse))

	err = DecodeFirstJSONArray(`[1, 2`, &got)
	assert.True(t, errors.Is(err, apperr.ErrMalformedResponse))
}
