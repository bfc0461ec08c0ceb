package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/natalis-app/natalis-backend/internal/auth"
	"github.com/natalis-app/natalis-backend/internal/charts/domain"
	"github.com/natalis-app/natalis-backend/internal/charts/service"
	"github.com/natalis-app/natalis-backend/internal/platform/logger"
	profiledomain "github.com/natalis-app/natalis-backend/internal/profiles/domain"
)

// ProfileAccess scopes chart access to the caller's own profiles.
type ProfileAccess interface {
	Get(ctx context.Context, ownerUID, id string) (*profiledomain.Profile, error)
	RequestChart(ctx context.Context, ownerUID, id string) error
}

type ChartReader interface {
	Chart(ctx context.Context, profileID string) (*service.ChartView, error)
}

type Handler struct {
	profiles ProfileAccess
	reader   ChartReader
}

func New(profiles ProfileAccess, reader ChartReader) *Handler {
	return &Handler{profiles: profiles, reader: reader}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/profiles/:id/chart", h.get)
	rg.POST("/profiles/:id/chart/rebuild", h.rebuild)
}

// get answers with the sanitized chart. ?format=svg returns the bare markup.
func (h *Handler) get(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	if _, err := h.profiles.Get(ctx, auth.UserFirebaseUID(c), id); err != nil {
		h.fail(c, "get_chart", err)
		return
	}

	view, err := h.reader.Chart(ctx, id)
	if err != nil {
		h.fail(c, "get_chart", err)
		return
	}

	if c.Query("format") == "svg" {
		if view.Status != service.StatusReady {
			c.JSON(http.StatusNotFound, gin.H{"error": "chart not ready", "status": view.Status})
			return
		}
		c.Data(http.StatusOK, "image/svg+xml; charset=utf-8", []byte(*view.ChartSVG))
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) rebuild(c *gin.Context) {
	err := h.profiles.RequestChart(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"))
	if err != nil {
		h.fail(c, "rebuild_chart", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": service.StatusPending})
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, profiledomain.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
	case errors.Is(err, domain.ErrQueueFull):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "chart queue is full, retry later"})
	default:
		logger.NewLogger(c.Request.Context()).LogErrorf(op, "%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
