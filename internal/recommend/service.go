package recommend

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"smartcart-backend/internal/catalog"
	"smartcart-backend/internal/models"
)

const (
	SourceAI    = "ai"
	SourceRules = "rules"

	DefaultThreshold = 0.5
)

// Advisor is the AI collaborator as the service sees it.
type Advisor interface {
	Recommend(ctx context.Context, product models.Product, preferences []string) AIResult
}

type Request struct {
	ProductID   string
	UserID      string
	Preferences []string
	Limit       int
}

type Response struct {
	ProductID       string           `json:"product_id"`
	Source          string           `json:"source"`
	Recommendations []models.Product `json:"recommendations"`
	Suggestions     []Suggestion     `json:"suggestions,omitempty"`
	Reason          string           `json:"reason"`
	Confidence      float64          `json:"confidence"`
	AIFailure       FailureReason    `json:"ai_failure,omitempty"`
	Diagnostic      string           `json:"diagnostic,omitempty"`
}

type Service struct {
	catalog   catalog.Provider
	selector  *Selector
	advisor   Advisor
	threshold float64
	log       logrus.FieldLogger
}

// NewService wires the selector and an optional advisor. A nil advisor means
// rule-based answers only.
func NewService(products catalog.Provider, advisor Advisor, threshold float64, log logrus.FieldLogger) *Service {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Service{
		catalog:   products,
		selector:  NewSelector(products),
		advisor:   advisor,
		threshold: threshold,
		log:       log,
	}
}

// Recommend answers from the advisor when it returns suggestions with
// confidence at or above the threshold, and from the rule-based selector
// otherwise. Only an unknown product or a catalog failure is an error.
func (s *Service) Recommend(ctx context.Context, req Request) (Response, error) {
	target, err := s.catalog.Get(ctx, req.ProductID)
	if err != nil {
		return Response{}, err
	}

	resp := Response{ProductID: target.ID, Confidence: unconfiguredScore, AIFailure: FailureNotConfigured}
	if s.advisor != nil {
		ai := s.advisor.Recommend(ctx, target, req.Preferences)
		if len(ai.Recommendations) > 0 && ai.Confidence >= s.threshold {
			return Response{
				ProductID:       target.ID,
				Source:          SourceAI,
				Recommendations: []models.Product{},
				Suggestions:     ai.Recommendations,
				Reason:          ai.Reasoning,
				Confidence:      ai.Confidence,
			}, nil
		}
		resp.Confidence = ai.Confidence
		resp.AIFailure = ai.Failure
		if ai.Failure != FailureNotConfigured {
			resp.Diagnostic = ai.Reasoning
			s.log.WithFields(logrus.Fields{
				"product_id": target.ID,
				"confidence": ai.Confidence,
				"failure":    ai.Failure,
			}).Info("falling back to rule-based recommendations")
		}
	}

	products, err := s.selector.Select(ctx, target, req.Limit)
	if err != nil {
		return Response{}, err
	}
	resp.Source = SourceRules
	resp.Recommendations = products
	resp.Reason = fmt.Sprintf("Customers who bought %s also liked these items", target.Name)
	return resp, nil
}
