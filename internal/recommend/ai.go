package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"smartcart-backend/internal/metrics"
	"smartcart-backend/internal/models"
)

const (
	maxSuggestions     = 5
	aiConfidence       = 0.85
	unconfiguredScore  = 0.5
	defaultAITimeout   = 30 * time.Second
	defaultTemperature = 0.7
	defaultMaxTokens   = 500
)

type FailureReason string

const (
	FailureNone          FailureReason = ""
	FailureNotConfigured FailureReason = "not_configured"
	FailureStatus        FailureReason = "bad_status"
	FailureTransport     FailureReason = "transport"
	FailureTimeout       FailureReason = "timeout"
	FailureDecode        FailureReason = "decode"
)

type Suggestion struct {
	Suggestion string `json:"suggestion"`
	Source     string `json:"source"`
}

// AIResult is the outcome of one AI call. A failed call has no
// recommendations, zero confidence, a Failure reason and a diagnostic in
// Reasoning.
type AIResult struct {
	Recommendations []Suggestion  `json:"recommendations"`
	Reasoning       string        `json:"reasoning"`
	Confidence      float64       `json:"confidence"`
	Failure         FailureReason `json:"failure,omitempty"`
}

type AIConfig struct {
	URL         string
	APIKey      string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// AIClient talks to a Flowise-style prediction endpoint. It never returns
// errors to the caller.
type AIClient struct {
	cfg     AIConfig
	http    *http.Client
	log     logrus.FieldLogger
	latency *metrics.Recorder
}

func NewAIClient(cfg AIConfig, log logrus.FieldLogger, latency *metrics.Recorder) *AIClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultAITimeout
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	return &AIClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     log,
		latency: latency,
	}
}

func (c *AIClient) Configured() bool {
	return c.cfg.URL != ""
}

type predictionRequest struct {
	Question       string         `json:"question"`
	OverrideConfig overrideConfig `json:"overrideConfig"`
}

type overrideConfig struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
}

type predictionResponse struct {
	Text string `json:"text"`
}

// Recommend asks the endpoint for products that go with product.
func (c *AIClient) Recommend(ctx context.Context, product models.Product, preferences []string) AIResult {
	if !c.Configured() {
		return AIResult{
			Recommendations: []Suggestion{},
			Reasoning:       "AI service not configured. Using fallback recommendations.",
			Confidence:      unconfiguredScore,
			Failure:         FailureNotConfigured,
		}
	}

	start := time.Now()
	defer c.latency.Since("ai.recommend", start)

	body := predictionRequest{
		Question:       BuildPrompt(product.Name, product.Category, preferences),
		OverrideConfig: overrideConfig{Temperature: c.cfg.Temperature, MaxTokens: c.cfg.MaxTokens},
	}
	var resp predictionResponse
	if reason, err := c.post(ctx, c.cfg.URL, body, &resp); err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{
			"product_id": product.ID,
			"failure":    reason,
		}).Warn("ai recommendation failed")
		return AIResult{
			Recommendations: []Suggestion{},
			Reasoning:       err.Error(),
			Confidence:      0,
			Failure:         reason,
		}
	}

	return AIResult{
		Recommendations: ParseSuggestions(resp.Text),
		Reasoning:       resp.Text,
		Confidence:      aiConfidence,
	}
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type searchResponse struct {
	Results []map[string]interface{} `json:"results"`
}

// Search runs a semantic product search through the endpoint's /search
// route. Any failure yields an empty result.
func (c *AIClient) Search(ctx context.Context, query string, topK int) []map[string]interface{} {
	empty := []map[string]interface{}{}
	if !c.Configured() || strings.TrimSpace(query) == "" {
		return empty
	}
	if topK <= 0 {
		topK = 5
	}

	start := time.Now()
	defer c.latency.Since("ai.search", start)

	var resp searchResponse
	url := strings.TrimRight(c.cfg.URL, "/") + "/search"
	if reason, err := c.post(ctx, url, searchRequest{Query: query, TopK: topK}, &resp); err != nil {
		c.log.WithError(err).WithField("failure", reason).Warn("semantic search failed")
		return empty
	}
	if resp.Results == nil {
		return empty
	}
	return resp.Results
}

func (c *AIClient) post(ctx context.Context, url string, in, out interface{}) (FailureReason, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	payload, err := json.Marshal(in)
	if err != nil {
		return FailureDecode, errors.Wrap(err, "encode AI request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return FailureTransport, errors.Wrap(err, "build AI request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	res, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return FailureTimeout, errors.Wrapf(err, "AI service timed out after %s", c.cfg.Timeout)
		}
		return FailureTransport, errors.Wrap(err, "error connecting to AI service")
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		io.Copy(io.Discard, res.Body)
		return FailureStatus, errors.Errorf("AI service error: %d", res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		if isTimeout(err) {
			return FailureTimeout, errors.Wrapf(err, "AI service timed out after %s", c.cfg.Timeout)
		}
		return FailureDecode, errors.Wrap(err, "decode AI response")
	}
	return FailureNone, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// BuildPrompt renders the question sent to the AI endpoint.
func BuildPrompt(name, category string, preferences []string) string {
	prefs := "None specified"
	if len(preferences) > 0 {
		prefs = strings.Join(preferences, ", ")
	}
	return fmt.Sprintf(`A customer is viewing: %s (Category: %s)

Suggest 3-5 similar or complementary products that would be good alternatives or additions.
Consider products in the same category, products that go well together, better value
alternatives and healthier options where they apply.

User preferences: %s

Give a brief reason for each suggestion, one suggestion per line.`, name, category, prefs)
}

// ParseSuggestions turns free text into at most five suggestions, one per
// non-empty line. Markdown headings are skipped.
func ParseSuggestions(text string) []Suggestion {
	out := []Suggestion{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, Suggestion{Suggestion: line, Source: "AI"})
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}
