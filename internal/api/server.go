// Package api maps HTTP requests onto the catalog, cart, analytics and
// recommendation components.
package api

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"smartcart-backend/internal/analytics"
	"smartcart-backend/internal/cart"
	"smartcart-backend/internal/catalog"
	"smartcart-backend/internal/metrics"
	"smartcart-backend/internal/recommend"
)

const (
	serviceName    = "SmartCart API"
	serviceVersion = "1.0.0"
)

// Searcher runs free-text product searches against the AI collaborator.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) []map[string]interface{}
}

type Deps struct {
	Catalog     catalog.Provider
	Carts       *cart.Store
	Analytics   *analytics.Aggregator
	Recommend   *recommend.Service
	Search      Searcher
	Latency     *metrics.Recorder
	Log         logrus.FieldLogger
	CORSOrigins []string
}

type Server struct {
	Deps
}

// NewServer also switches decimal JSON encoding to bare numbers, so money
// fields leave the service as JSON numbers.
func NewServer(deps Deps) *Server {
	decimal.MarshalJSONWithoutQuotes = true
	if deps.Latency == nil {
		deps.Latency = metrics.NewRecorder()
	}
	return &Server{Deps: deps}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.Use(cors.New(corsConfig(s.CORSOrigins)))

	r.GET("/", s.health)
	r.GET("/stats", s.stats)
	r.GET("/categories", s.listCategories)

	r.GET("/products", s.listProducts)
	r.GET("/products/:id", s.getProduct)

	r.POST("/cart/add", s.addToCart)
	r.GET("/cart/:user_id", s.getCart)
	r.DELETE("/cart/remove/:user_id/:product_id", s.removeFromCart)
	r.POST("/cart/clear/:user_id", s.clearCart)

	r.POST("/recommendations", s.recommendations)
	r.GET("/search/semantic", s.semanticSearch)
	r.GET("/analytics/:user_id", s.getAnalytics)
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}
