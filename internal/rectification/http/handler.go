package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/natalis-app/natalis-backend/internal/auth"
	"github.com/natalis-app/natalis-backend/internal/platform/logger"
	profiledomain "github.com/natalis-app/natalis-backend/internal/profiles/domain"
	"github.com/natalis-app/natalis-backend/internal/rectification/domain"
)

type SessionService interface {
	Create(ctx context.Context, ownerUID, profileID string) (*domain.Session, error)
	Get(ctx context.Context, ownerUID, id string) (*domain.Session, error)
	Answer(ctx context.Context, ownerUID, id string, in domain.StepInput) (*domain.Session, error)
	Next(ctx context.Context, ownerUID, id string) (*domain.Session, error)
	Back(ctx context.Context, ownerUID, id string) (*domain.Session, error)
	Candidates(ctx context.Context, ownerUID, id string) ([]domain.Candidate, error)
	Accept(ctx context.Context, ownerUID, id string, archetype domain.Choice) (*profiledomain.Profile, error)
}

type Handler struct {
	svc SessionService
}

func New(svc SessionService) *Handler {
	return &Handler{svc: svc}
}

// Register attaches the wizard routes under /rectification/sessions.
func (h *Handler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/rectification/sessions")
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PUT("/:id/step", h.answer)
	g.POST("/:id/next", h.next)
	g.POST("/:id/back", h.back)
	g.GET("/:id/candidates", h.candidates)
	g.POST("/:id/accept", h.accept)
}

type createReq struct {
	ProfileID string `json:"profile_id" binding:"required"`
}

type acceptReq struct {
	Archetype domain.Choice `json:"archetype" binding:"required"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "profile_id is required"})
		return
	}
	s, err := h.svc.Create(c.Request.Context(), auth.UserFirebaseUID(c), req.ProfileID)
	h.respond(c, http.StatusCreated, "create_session", s, err)
}

func (h *Handler) get(c *gin.Context) {
	s, err := h.svc.Get(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"))
	h.respond(c, http.StatusOK, "get_session", s, err)
}

func (h *Handler) answer(c *gin.Context) {
	var in domain.StepInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	s, err := h.svc.Answer(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), in)
	h.respond(c, http.StatusOK, "answer_step", s, err)
}

func (h *Handler) next(c *gin.Context) {
	s, err := h.svc.Next(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"))
	h.respond(c, http.StatusOK, "next_step", s, err)
}

func (h *Handler) back(c *gin.Context) {
	s, err := h.svc.Back(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"))
	h.respond(c, http.StatusOK, "previous_step", s, err)
}

func (h *Handler) candidates(c *gin.Context) {
	items, err := h.svc.Candidates(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"))
	if err != nil {
		h.fail(c, "score_session", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": items})
}

func (h *Handler) accept(c *gin.Context) {
	var req acceptReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "archetype is required"})
		return
	}
	p, err := h.svc.Accept(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), req.Archetype)
	if err != nil {
		h.fail(c, "accept_candidate", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p})
}

func (h *Handler) respond(c *gin.Context, status int, op string, s *domain.Session, err error) {
	if err != nil {
		h.fail(c, op, err)
		return
	}
	c.JSON(status, gin.H{"session": s})
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, profiledomain.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrStepIncomplete), errors.Is(err, domain.ErrUnknownArchetype),
		errors.Is(err, profiledomain.ErrInvalidProfile):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrWrongStep):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.NewLogger(c.Request.Context()).LogErrorf(op, "%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
