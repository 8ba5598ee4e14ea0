package recommend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartcart-backend/internal/metrics"
	"smartcart-backend/internal/models"
)

var apples = models.Product{ID: "p1", Name: "Organic Apples", Category: "Fruits"}

func newTestClient(t *testing.T, url string, timeout time.Duration) (*AIClient, *metrics.Recorder) {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	rec := metrics.NewRecorder()
	return NewAIClient(AIConfig{URL: url, APIKey: "secret", Timeout: timeout}, logger, rec), rec
}

func TestAIRecommendSuccess(t *testing.T) {
	var got predictionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"text": "# Suggestions\n1. Avocados - same aisle\n\n2. Spinach - salad\n3. Bread\n4. Yogurt\n5. Quinoa\n6. Salmon",
		})
	}))
	defer srv.Close()

	client, rec := newTestClient(t, srv.URL, time.Second)
	res := client.Recommend(context.Background(), apples, []string{"organic", "vegan"})

	assert.Equal(t, FailureNone, res.Failure)
	assert.Equal(t, 0.85, res.Confidence)
	require.Len(t, res.Recommendations, 5)
	assert.Equal(t, Suggestion{Suggestion: "1. Avocados - same aisle", Source: "AI"}, res.Recommendations[0])
	assert.Equal(t, "5. Quinoa", res.Recommendations[4].Suggestion)

	assert.Contains(t, got.Question, "Organic Apples (Category: Fruits)")
	assert.Contains(t, got.Question, "User preferences: organic, vegan")
	assert.Equal(t, 0.7, got.OverrideConfig.Temperature)
	assert.Equal(t, 500, got.OverrideConfig.MaxTokens)

	require.Len(t, rec.Snapshot(), 1)
	assert.Equal(t, "ai.recommend", rec.Snapshot()[0].Name)
}

func TestAIRecommendFailures(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()

	garbled := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json"))
	}))
	defer garbled.Close()

	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	tests := []struct {
		name   string
		url    string
		reason FailureReason
		text   string
	}{
		{"status", broken.URL, FailureStatus, "AI service error: 502"},
		{"timeout", slow.URL, FailureTimeout, "timed out"},
		{"decode", garbled.URL, FailureDecode, "decode AI response"},
		{"transport", closedURL, FailureTransport, "error connecting to AI service"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, tt.url, 100*time.Millisecond)
			res := client.Recommend(context.Background(), apples, nil)
			assert.Equal(t, tt.reason, res.Failure)
			assert.Zero(t, res.Confidence)
			assert.NotNil(t, res.Recommendations)
			assert.Empty(t, res.Recommendations)
			assert.Contains(t, res.Reasoning, tt.text)
		})
	}
}

func TestAIRecommendNotConfigured(t *testing.T) {
	client, rec := newTestClient(t, "", 0)
	assert.False(t, client.Configured())

	res := client.Recommend(context.Background(), apples, nil)
	assert.Equal(t, FailureNotConfigured, res.Failure)
	assert.Equal(t, 0.5, res.Confidence)
	assert.Empty(t, res.Recommendations)
	assert.Empty(t, rec.Snapshot(), "no call was made")
}

func TestAISearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/flow/search", r.URL.Path)
		var req searchRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "healthy breakfast", req.Query)
		assert.Equal(t, 5, req.TopK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{{"id": "p4", "score": 0.91}},
		})
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL+"/flow/", time.Second)
	results := client.Search(context.Background(), "healthy breakfast", 0)
	require.Len(t, results, 1)
	assert.Equal(t, "p4", results[0]["id"])

	assert.Empty(t, client.Search(context.Background(), "  ", 3))

	unconfigured, _ := newTestClient(t, "", time.Second)
	assert.NotNil(t, unconfigured.Search(context.Background(), "milk", 3))
}

func TestParseSuggestions(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", []string{}},
		{"headings and blanks", "## Top picks\n\n  Avocados  \n#skip\n\t\nSpinach", []string{"Avocados", "Spinach"}},
		{"capped at five", "a\nb\nc\nd\ne\nf\ng", []string{"a", "b", "c", "d", "e"}},
		{"windows newlines", "one\r\ntwo\r\n", []string{"one", "two"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []string{}
			for _, s := range ParseSuggestions(tt.text) {
				assert.Equal(t, "AI", s.Source)
				got = append(got, s.Suggestion)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildPromptWithoutPreferences(t *testing.T) {
	prompt := BuildPrompt("Quinoa", "Grains", nil)
	assert.Contains(t, prompt, "Quinoa (Category: Grains)")
	assert.Contains(t, prompt, "User preferences: None specified")
}
