package sentiment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifetrack-app/lifetrack-backend/internal/apperr"
)

func TestRemoteScoreBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret-key", r.Header.Get("Ocp-Apim-Subscription-Key"))

		var req analyzeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Documents, 2)
		assert.Equal(t, "first text", req.Documents[0].Text)

		// Respond out of order to prove matching is by document id.
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"documents": [
				{"id": "1", "confidenceScores": {"positive": 0.2, "neutral": 0.1, "negative": 0.7}},
				{"id": "0", "confidenceScores": {"positive": 0.9, "neutral": 0.05, "negative": 0.05}}
			]
		}`))
	}))
	defer srv.Close()

	c := NewRemoteClassifier(srv.URL, "secret-key")
	scores, err := c.Score(context.Background(), []string{"first text", "second text"})
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, 0.9, scores[0])
	assert.Equal(t, 0.2, scores[1])
}

func TestRemoteScoreServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewRemoteClassifier(srv.URL, "")
	_, err := c.Score(context.Background(), []string{"text"})
	assert.ErrorIs(t, err, apperr.ErrExternal)
}

func TestRemoteScoreDocumentError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"documents": [], "errors": [{"id": "0", "error": {"message": "text too long"}}]}`))
	}))
	defer srv.Close()

	c := NewRemoteClassifier(srv.URL, "")
	_, err := c.Score(context.Background(), []string{"text"})
	assert.ErrorIs(t, err, apperr.ErrExternal)
}

func TestRemoteScoreMissingDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"documents": [{"id": "0", "confidenceScores": {"positive": 0.5}}]}`))
	}))
	defer srv.Close()

	c := NewRemoteClassifier(srv.URL, "")
	_, err := c.Score(context.Background(), []string{"one", "two"})
	assert.ErrorIs(t, err, apperr.ErrExternal)
}

func TestRemoteScoreEmptyBatch(t *testing.T) {
	c := NewRemoteClassifier("http://unreachable.invalid", "")
	scores, err := c.Score(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestRemoteScoreUnreachable(t *testing.T) {
	c := NewRemoteClassifier("http://127.0.0.1:1", "")
	_, err := c.Score(context.Background(), []string{"text"})
	assert.ErrorIs(t, err, apperr.ErrExternal)
}
