package service

import (
	"context"
	"errors"
	"time"

	"github.com/natalis-app/natalis-backend/internal/charts/domain"
)

const (
	StatusReady   = "ready"
	StatusPending = "pending"
	StatusFailed  = "failed"
)

// ChartView is the display form of a stored artifact.
type ChartView struct {
	Status      string     `json:"status"`
	ChartSVG    *string    `json:"chart_svg"`
	Signature   string     `json:"signature,omitempty"`
	GeneratedAt *time.Time `json:"generated_at,omitempty"`
}

type ArtifactLoader interface {
	Load(ctx context.Context, profileID string) (*domain.Artifact, error)
}

// MarkupSanitizer is the display transform applied on read.
type MarkupSanitizer interface {
	Sanitize(markup string) string
}

// Reader serves sanitized charts. A missing chart is pending, not an error.
type Reader struct {
	artifacts ArtifactLoader
	sanitizer MarkupSanitizer
}

func NewReader(artifacts ArtifactLoader, sanitizer MarkupSanitizer) *Reader {
	return &Reader{artifacts: artifacts, sanitizer: sanitizer}
}

func (r *Reader) Chart(ctx context.Context, profileID string) (*ChartView, error) {
	a, err := r.artifacts.Load(ctx, profileID)
	if errors.Is(err, domain.ErrArtifactNotFound) {
		return &ChartView{Status: StatusPending}, nil
	}
	if err != nil {
		return nil, err
	}

	view := &ChartView{Signature: a.Signature, GeneratedAt: &a.GeneratedAt}
	if !a.Ready() {
		view.Status = StatusFailed
		return view, nil
	}
	clean := r.sanitizer.Sanitize(*a.Markup)
	view.Status = StatusReady
	view.ChartSVG = &clean
	return view, nil
}
