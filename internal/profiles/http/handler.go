package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/natalis-app/natalis-backend/internal/auth"
	"github.com/natalis-app/natalis-backend/internal/platform/logger"
	"github.com/natalis-app/natalis-backend/internal/profiles/domain"
)

type ProfileService interface {
	Create(ctx context.Context, ownerUID string, p *domain.Profile) (*domain.Profile, error)
	Get(ctx context.Context, ownerUID, id string) (*domain.Profile, error)
	List(ctx context.Context, ownerUID string) ([]domain.Profile, error)
	Update(ctx context.Context, ownerUID, id string, p *domain.Profile) (*domain.Profile, error)
}

// Handler bundles the dependencies for profile endpoints.
type Handler struct {
	svc ProfileService
}

func New(svc ProfileService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) create(c *gin.Context) {
	var req profileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	p, err := h.svc.Create(c.Request.Context(), auth.UserFirebaseUID(c), req.toDomain())
	if err != nil {
		h.fail(c, "create_profile", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "profile": p})
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), auth.UserFirebaseUID(c))
	if err != nil {
		h.fail(c, "list_profiles", err)
		return
	}
	if items == nil {
		items = []domain.Profile{}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "profiles": items})
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"))
	if err != nil {
		h.fail(c, "get_profile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "profile": p})
}

func (h *Handler) update(c *gin.Context) {
	var req profileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	p, err := h.svc.Update(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), req.toDomain())
	if err != nil {
		h.fail(c, "update_profile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "profile": p})
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "profile not found"})
	case errors.Is(err, domain.ErrInvalidProfile):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	default:
		logger.NewLogger(c.Request.Context()).LogErrorf(op, "%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
	}
}
