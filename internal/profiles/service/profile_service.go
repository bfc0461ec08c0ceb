package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/natalis-app/natalis-backend/internal/platform/logger"
	"github.com/natalis-app/natalis-backend/internal/profiles/domain"
)

type Repository interface {
	Create(ctx context.Context, p *domain.Profile) error
	Get(ctx context.Context, id string) (*domain.Profile, error)
	Update(ctx context.Context, p *domain.Profile) error
	ListByOwner(ctx context.Context, ownerUID string) ([]domain.Profile, error)
}

// ChartEnqueuer receives a profile id after every successful save.
type ChartEnqueuer interface {
	Submit(profileID string) error
}

// ProfileService stores birth profiles and schedules chart builds. Saving
// never waits for the chart.
type ProfileService struct {
	repo   Repository
	charts ChartEnqueuer
	now    func() time.Time
}

func NewProfileService(repo Repository, charts ChartEnqueuer) *ProfileService {
	return &ProfileService{repo: repo, charts: charts, now: time.Now}
}

func (s *ProfileService) Create(ctx context.Context, ownerUID string, p *domain.Profile) (*domain.Profile, error) {
	if ownerUID == "" {
		return nil, fmt.Errorf("%w: owner required", domain.ErrInvalidProfile)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p.ID = uuid.NewString()
	p.OwnerUID = ownerUID
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.enqueue(ctx, p.ID)
	return p, nil
}

// Get returns domain.ErrProfileNotFound for profiles of other owners.
func (s *ProfileService) Get(ctx context.Context, ownerUID, id string) (*domain.Profile, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerUID != ownerUID {
		return nil, domain.ErrProfileNotFound
	}
	return p, nil
}

func (s *ProfileService) List(ctx context.Context, ownerUID string) ([]domain.Profile, error) {
	return s.repo.ListByOwner(ctx, ownerUID)
}

// Update replaces the editable fields of an owned profile.
func (s *ProfileService) Update(ctx context.Context, ownerUID, id string, p *domain.Profile) (*domain.Profile, error) {
	existing, err := s.Get(ctx, ownerUID, id)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	p.ID = existing.ID
	p.OwnerUID = existing.OwnerUID
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.enqueue(ctx, p.ID)
	return p, nil
}

// SetBirthTime records a birth time chosen outside the profile form.
func (s *ProfileService) SetBirthTime(ctx context.Context, id, clock string) (*domain.Profile, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	zero := 0
	p.TimeKnown = true
	p.BirthTime = clock
	p.Seconds = &zero
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.enqueue(ctx, p.ID)
	return p, nil
}

// RequestChart queues a chart build for an owned profile.
func (s *ProfileService) RequestChart(ctx context.Context, ownerUID, id string) error {
	if _, err := s.Get(ctx, ownerUID, id); err != nil {
		return err
	}
	return s.charts.Submit(id)
}

func (s *ProfileService) enqueue(ctx context.Context, id string) {
	if s.charts == nil {
		return
	}
	if err := s.charts.Submit(id); err != nil {
		logger.NewLogger(ctx).LogWarnf("enqueue_chart", "profile_id=%s not queued: %v", id, err)
	}
}
