package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tztgracious/Jobify/internal/apperr"
	"github.com/tztgracious/Jobify/internal/config"
)

func TestLanguageTool_Check(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "Their is a typo.", r.PostForm.Get("text"))
		assert.Equal(t, "en-GB", r.PostForm.Get("language"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"language": {"code": "en-GB", "name": "English (GB)"},
			"matches": [{"message": "Possible typo", "offset": 0, "length": 5,
				"replacements": [{"value": "There"}], "rule": {"id": "CONFUSED_WORDS"}}]
		}`))
	}))
	defer srv.Close()

	checker := NewLanguageToolService(config.GrammarConfig{URL: srv.URL, Language: "en-GB"})
	report, err := checker.Check(context.Background(), "Their is a typo.")
	require.NoError(t, err)

	assert.Equal(t, "en-GB", report.Language.Code)
	require.Len(t, report.Matches, 1)
	assert.Equal(t, "Possible typo", report.Matches[0].Message)
	assert.Equal(t, 5, report.Matches[0].Length)
}

func TestLanguageTool_Errors(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer failing.Close()

	_, err := NewLanguageToolService(config.GrammarConfig{URL: failing.URL}).Check(context.Background(), "text")
	assert.True(t, errors.Is(err, apperr.ErrService))

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer garbage.Close()

	_, err = NewLanguageToolService(config.GrammarConfig{URL: garbage.URL}).Check(context.Background(), "text")
	assert.True(t, errors.Is(err, apperr.ErrMalformedResponse))
}

func TestLanguageTool_EmptyMatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"language": {"code": "en-US"}}`))
	}))
	defer srv.Close()

	report, err := NewLanguageToolService(config.GrammarConfig{URL: srv.URL}).Check(context.Background(), "fine")
	require.NoError(t, err)
	assert.NotNil(t, report.Matches)
	assert.Empty(t, report.Matches)
}

func TestOpenRouter_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test/model", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "hello", req.Messages[0].Content)

		_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "hi there"}}]}`))
	}))
	defer srv.Close()

	client, err := NewOpenRouterService(config.OpenRouterConfig{APIKey: "secret", Model: "test/model", BaseURL: srv.URL + "/"}, nil)
	require.NoError(t, err)

	out, err := client.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi there", out)
}

func TestOpenRouter_Failures(t *testing.T) {
	_, err := NewOpenRouterService(config.OpenRouterConfig{}, nil)
	assert.Error(t, err)

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusBadGateway, `{"error": {"message": "upstream"}}`},
		{"api error", http.StatusOK, `{"error": {"message": "quota", "code": 429}}`},
		{"no choices", http.StatusOK, `{"choices": []}`},
		{"blank content", http.StatusOK, `{"choices": [{"message": {"content": "  "}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client, err := NewOpenRouterService(config.OpenRouterConfig{APIKey: "k", BaseURL: srv.URL}, nil)
			require.NoError(t, err)

			_, err = client.Complete(context.Background(), "p")
			assert.Error(t, err)
		})
	}
}
