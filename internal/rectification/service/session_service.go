package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/natalis-app/natalis-backend/internal/platform/logger"
	"github.com/natalis-app/natalis-backend/internal/platform/metrics"
	profiledomain "github.com/natalis-app/natalis-backend/internal/profiles/domain"
	"github.com/natalis-app/natalis-backend/internal/rectification/domain"
	"github.com/natalis-app/natalis-backend/internal/rectification/engine"
)

// ProfileAccess is the slice of the profile service rectification needs.
type ProfileAccess interface {
	Get(ctx context.Context, ownerUID, id string) (*profiledomain.Profile, error)
	SetBirthTime(ctx context.Context, id, clock string) (*profiledomain.Profile, error)
}

type SessionStore interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, s *domain.Session) error
	Delete(ctx context.Context, id string) error
}

type SessionService struct {
	profiles ProfileAccess
	store    SessionStore
	engine   *engine.Engine
	now      func() time.Time
}

func NewSessionService(profiles ProfileAccess, store SessionStore, eng *engine.Engine) *SessionService {
	return &SessionService{profiles: profiles, store: store, engine: eng, now: time.Now}
}

// Create opens a session for an owned profile with the default window.
func (s *SessionService) Create(ctx context.Context, ownerUID, profileID string) (*domain.Session, error) {
	p, err := s.profiles.Get(ctx, ownerUID, profileID)
	if err != nil {
		return nil, err
	}

	sess := &domain.Session{
		ID:        uuid.NewString(),
		ProfileID: p.ID,
		OwnerUID:  ownerUID,
		Step:      domain.StepWindow,
		Window:    engine.DefaultWindow(p),
		Choices:   map[int]domain.Choice{},
		Ratings:   map[string]int{},
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get hides sessions of other owners behind ErrSessionNotFound.
func (s *SessionService) Get(ctx context.Context, ownerUID, id string) (*domain.Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.OwnerUID != ownerUID {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

func (s *SessionService) Answer(ctx context.Context, ownerUID, id string, in domain.StepInput) (*domain.Session, error) {
	return s.mutate(ctx, ownerUID, id, func(sess *domain.Session) error {
		return s.engine.Apply(sess, in)
	})
}

func (s *SessionService) Next(ctx context.Context, ownerUID, id string) (*domain.Session, error) {
	return s.mutate(ctx, ownerUID, id, func(sess *domain.Session) error {
		return s.engine.Next(ctx, sess)
	})
}

func (s *SessionService) Back(ctx context.Context, ownerUID, id string) (*domain.Session, error) {
	return s.mutate(ctx, ownerUID, id, func(sess *domain.Session) error {
		s.engine.Back(sess)
		return nil
	})
}

// Candidates scores a session that reached the last step.
func (s *SessionService) Candidates(ctx context.Context, ownerUID, id string) ([]domain.Candidate, error) {
	_, candidates, err := s.scored(ctx, ownerUID, id)
	return candidates, err
}

func (s *SessionService) scored(ctx context.Context, ownerUID, id string) (*domain.Session, []domain.Candidate, error) {
	sess, err := s.Get(ctx, ownerUID, id)
	if err != nil {
		return nil, nil, err
	}
	if sess.Step != domain.StepScoring {
		return nil, nil, fmt.Errorf("%w: scoring is not reached yet", domain.ErrWrongStep)
	}
	metrics.RecordRectificationScored()
	return sess, s.engine.Score(sess), nil
}

// Accept writes the chosen candidate's time into the profile and discards
// the session.
func (s *SessionService) Accept(ctx context.Context, ownerUID, id string, archetype domain.Choice) (*profiledomain.Profile, error) {
	sess, candidates, err := s.scored(ctx, ownerUID, id)
	if err != nil {
		return nil, err
	}

	var chosen *domain.Candidate
	for i := range candidates {
		if candidates[i].Archetype == archetype {
			chosen = &candidates[i]
			break
		}
	}
	if chosen == nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownArchetype, archetype)
	}

	p, err := s.profiles.SetBirthTime(ctx, sess.ProfileID, chosen.Time)
	if err != nil {
		return nil, err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		logger.NewLogger(ctx).LogWarnf("accept_rectification", "session_id=%s not deleted: %v", id, err)
	}
	logger.NewLogger(ctx).LogInfof("accept_rectification", "profile_id=%s birth_time=%s archetype=%s score=%d",
		p.ID, chosen.Time, chosen.Archetype, chosen.Score)
	return p, nil
}

func (s *SessionService) mutate(ctx context.Context, ownerUID, id string, fn func(*domain.Session) error) (*domain.Session, error) {
	sess, err := s.Get(ctx, ownerUID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}
