package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"smartcart-backend/internal/apperr"
	"smartcart-backend/internal/catalog"
	"smartcart-backend/internal/models"
	"smartcart-backend/internal/recommend"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": serviceName + " is running",
		"version": serviceVersion,
		"status":  "healthy",
	})
}

func (s *Server) stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"latency": s.Latency.Snapshot()})
}

// ----- Products -----

func (s *Server) listProducts(c *gin.Context) {
	filter := models.ProductFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
	}
	products, err := s.Catalog.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (s *Server) getProduct(c *gin.Context) {
	product, err := s.Catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (s *Server) listCategories(c *gin.Context) {
	categories, err := catalog.Categories(c.Request.Context(), s.Catalog)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// ----- Cart -----

type addToCartRequest struct {
	UserID    string `json:"user_id" binding:"required"`
	ProductID string `json:"product_id" binding:"required"`
	// Quantity defaults to 1 when omitted.
	Quantity *int `json:"quantity"`
}

func (s *Server) addToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.InvalidRequest("invalid input: %v", err))
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	count, err := s.Carts.Add(c.Request.Context(), req.UserID, req.ProductID, quantity)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Product added to cart successfully",
		"cart_items": count,
	})
}

func (s *Server) getCart(c *gin.Context) {
	snap, err := s.Carts.Read(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) removeFromCart(c *gin.Context) {
	if err := s.Carts.Remove(c.Request.Context(), c.Param("user_id"), c.Param("product_id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product removed from cart successfully"})
}

func (s *Server) clearCart(c *gin.Context) {
	if err := s.Carts.Clear(c.Request.Context(), c.Param("user_id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// ----- Recommendations -----

type recommendationRequest struct {
	ProductID   string   `json:"product_id" binding:"required"`
	UserID      string   `json:"user_id"`
	Preferences []string `json:"preferences"`
	Limit       int      `json:"limit" binding:"gte=0"`
}

func (s *Server) recommendations(c *gin.Context) {
	var req recommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.InvalidRequest("invalid input: %v", err))
		return
	}
	resp, err := s.Recommend.Recommend(c.Request.Context(), recommend.Request{
		ProductID:   req.ProductID,
		UserID:      req.UserID,
		Preferences: req.Preferences,
		Limit:       req.Limit,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) semanticSearch(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		fail(c, apperr.InvalidRequest("query parameter q is required"))
		return
	}
	topK := 5
	if v := c.Query("top_k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			fail(c, apperr.InvalidRequest("top_k must be a positive integer"))
			return
		}
		topK = n
	}
	c.JSON(http.StatusOK, gin.H{
		"query":   query,
		"results": s.Search.Search(c.Request.Context(), query, topK),
	})
}

// ----- Analytics -----

func (s *Server) getAnalytics(c *gin.Context) {
	summary, err := s.Analytics.Summarize(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
