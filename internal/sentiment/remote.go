package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/lifetrack-app/lifetrack-backend/internal/apperr"
)

// RemoteClassifier scores text through an external text-analytics API.
// The endpoint is expected to accept a batch of documents and return a
// positive confidence score per document.
type RemoteClassifier struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

var _ Classifier = (*RemoteClassifier)(nil)

// NewRemoteClassifier builds a classifier for the given endpoint.
func NewRemoteClassifier(endpoint, apiKey string) *RemoteClassifier {
	return &RemoteClassifier{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type analyzeDocument struct {
	ID       string `json:"id"`
	Language string `json:"language"`
	Text     string `json:"text"`
}

type analyzeRequest struct {
	Documents []analyzeDocument `json:"documents"`
}

type analyzeResponse struct {
	Documents []struct {
		ID               string `json:"id"`
		ConfidenceScores struct {
			Positive float64 `json:"positive"`
			Neutral  float64 `json:"neutral"`
			Negative float64 `json:"negative"`
		} `json:"confidenceScores"`
	} `json:"documents"`
	Errors []struct {
		ID    string `json:"id"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"errors"`
}

// Score sends the batch to the analytics endpoint. Documents are keyed
// by their index so responses can be matched back regardless of order.
func (c *RemoteClassifier) Score(ctx context.Context, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return []float64{}, nil
	}

	reqBody := analyzeRequest{Documents: make([]analyzeDocument, 0, len(texts))}
	for i, text := range texts {
		reqBody.Documents = append(reqBody.Documents, analyzeDocument{
			ID:       strconv.Itoa(i),
			Language: "en",
			Text:     text,
		})
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, apperr.External("encode sentiment request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, apperr.External("build sentiment request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperr.External("call sentiment api", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, apperr.External("call sentiment api",
			fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
	}

	var parsed analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperr.External("decode sentiment response", err)
	}
	if len(parsed.Errors) > 0 {
		return nil, apperr.External("call sentiment api",
			fmt.Errorf("document %s: %s", parsed.Errors[0].ID, parsed.Errors[0].Error.Message))
	}

	scores := make([]float64, len(texts))
	seen := make([]bool, len(texts))
	for _, doc := range parsed.Documents {
		idx, err := strconv.Atoi(doc.ID)
		if err != nil || idx < 0 || idx >= len(texts) {
			return nil, apperr.External("decode sentiment response",
				fmt.Errorf("unexpected document id %q", doc.ID))
		}
		scores[idx] = doc.ConfidenceScores.Positive
		seen[idx] = true
	}
	for i, ok := range seen {
		if !ok {
			return nil, apperr.External("decode sentiment response",
				fmt.Errorf("missing score for document %d", i))
		}
	}
	return scores, nil
}
