package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/natalis-app/natalis-backend/internal/geocoding/domain"
	"github.com/natalis-app/natalis-backend/internal/geocoding/service"
)

// PlaceSearch is what the handler needs from the resolver.
type PlaceSearch interface {
	Search(ctx context.Context, query string) []domain.Candidate
}

type Handler struct {
	resolver PlaceSearch
	feed     *service.Feed
}

func New(resolver PlaceSearch, feed *service.Feed) *Handler {
	return &Handler{resolver: resolver, feed: feed}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/geo/search", h.Search)
}

// Search answers GET /geo/search?q=&session=. With a session id, responses to
// superseded queries come back flagged stale and without items.
func (h *Handler) Search(c *gin.Context) {
	q := c.Query("q")
	session := strings.TrimSpace(c.Query("session"))

	if session == "" || h.feed == nil {
		c.JSON(http.StatusOK, gin.H{"items": h.resolver.Search(c.Request.Context(), q)})
		return
	}

	seq := h.feed.Issue(session)
	items := h.resolver.Search(c.Request.Context(), q)
	if !h.feed.Deliver(session, seq, items) {
		c.JSON(http.StatusOK, gin.H{"items": []domain.Candidate{}, "seq": seq, "stale": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "seq": seq, "stale": false})
}
