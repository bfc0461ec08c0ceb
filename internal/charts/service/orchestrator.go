package service

import (
	"context"
	"errors"
	"time"

	"github.com/natalis-app/natalis-backend/internal/charts/domain"
	"github.com/natalis-app/natalis-backend/internal/charts/renderer"
	"github.com/natalis-app/natalis-backend/internal/charts/request"
	"github.com/natalis-app/natalis-backend/internal/charts/signature"
	"github.com/natalis-app/natalis-backend/internal/platform/logger"
	"github.com/natalis-app/natalis-backend/internal/platform/metrics"
	profiledomain "github.com/natalis-app/natalis-backend/internal/profiles/domain"
)

// Outcome says how an EnsureChart run ended. None of them is an error for the caller.
type Outcome string

const (
	OutcomeFresh          Outcome = "fresh"
	OutcomeSkipped        Outcome = "skipped"
	OutcomeRendered       Outcome = "rendered"
	OutcomeNoMarkup       Outcome = "no_markup"
	OutcomeFailed         Outcome = "failed"
	OutcomeMissingProfile Outcome = "missing_profile"
)

type ProfileLoader interface {
	Get(ctx context.Context, id string) (*profiledomain.Profile, error)
}

type ArtifactStore interface {
	Load(ctx context.Context, profileID string) (*domain.Artifact, error)
	Save(ctx context.Context, a *domain.Artifact) error
	MarkAttempt(ctx context.Context, profileID, outcome string, at time.Time) error
}

type Renderer interface {
	Render(ctx context.Context, req *request.ChartRequest) (*renderer.Response, error)
}

// Orchestrator regenerates a profile's chart only when its signature changed.
type Orchestrator struct {
	profiles  ProfileLoader
	artifacts ArtifactStore
	builder   *request.Builder
	renderer  Renderer
	locker    Locker
	settings  domain.Settings
	now       func() time.Time
}

func NewOrchestrator(
	profiles ProfileLoader,
	artifacts ArtifactStore,
	builder *request.Builder,
	r Renderer,
	locker Locker,
	settings domain.Settings,
) *Orchestrator {
	if locker == nil {
		locker = NewMemoryLocker()
	}
	return &Orchestrator{
		profiles:  profiles,
		artifacts: artifacts,
		builder:   builder,
		renderer:  r,
		locker:    locker,
		settings:  settings,
		now:       time.Now,
	}
}

// EnsureChart brings the stored artifact in line with the profile. Failures
// are logged and reported through the outcome only.
func (o *Orchestrator) EnsureChart(ctx context.Context, profileID string) Outcome {
	log := logger.NewLogger(ctx)

	unlock, err := o.locker.Lock(ctx, profileID)
	if err != nil {
		log.LogWarnf("ensure_chart", "profile_id=%s lock failed: %v", profileID, err)
		metrics.RecordChartBuild(string(OutcomeFailed))
		return OutcomeFailed
	}
	defer unlock()

	outcome := o.ensure(ctx, log, profileID)
	metrics.RecordChartBuild(string(outcome))
	if outcome != OutcomeMissingProfile {
		if err := o.artifacts.MarkAttempt(ctx, profileID, string(outcome), o.now().UTC()); err != nil {
			log.LogWarnf("ensure_chart", "profile_id=%s attempt not recorded: %v", profileID, err)
		}
	}
	return outcome
}

func (o *Orchestrator) ensure(ctx context.Context, log *logger.Logger, profileID string) Outcome {
	profile, err := o.profiles.Get(ctx, profileID)
	if errors.Is(err, profiledomain.ErrProfileNotFound) {
		log.LogInfof("ensure_chart", "profile_id=%s no longer exists", profileID)
		return OutcomeMissingProfile
	}
	if err != nil {
		log.LogError("ensure_chart", err)
		return OutcomeFailed
	}

	sig := signature.ForProfile(profile, o.settings)

	existing, err := o.artifacts.Load(ctx, profileID)
	if err != nil && !errors.Is(err, domain.ErrArtifactNotFound) {
		log.LogError("ensure_chart", err)
		return OutcomeFailed
	}
	if existing.Ready() && existing.Signature == sig {
		return OutcomeFresh
	}

	res := o.builder.Build(profile)
	if res.Skipped() {
		log.LogInfof("ensure_chart", "profile_id=%s skipped: %s", profileID, res.SkipReason)
		return OutcomeSkipped
	}

	resp, err := o.renderer.Render(ctx, res.Request)
	if err != nil {
		log.LogError("ensure_chart", err)
		return OutcomeFailed
	}

	artifact := &domain.Artifact{
		ProfileID:   profileID,
		Signature:   sig,
		Subject:     res.Request.Echo(),
		GeneratedAt: o.now().UTC(),
	}

	markup, ok := renderer.ExtractMarkup(resp)
	if !ok {
		artifact.Debug = renderer.DebugPayload(resp)
		if err := o.artifacts.Save(ctx, artifact); err != nil {
			log.LogError("ensure_chart", err)
			return OutcomeFailed
		}
		log.LogWarnf("ensure_chart", "profile_id=%s renderer answered status=%d without markup", profileID, resp.StatusCode)
		return OutcomeNoMarkup
	}

	artifact.Markup = &markup
	if err := o.artifacts.Save(ctx, artifact); err != nil {
		log.LogError("ensure_chart", err)
		return OutcomeFailed
	}
	log.LogInfof("ensure_chart", "profile_id=%s chart rendered mode=%s", profileID, res.Request.Mode)
	return OutcomeRendered
}
