package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	profiledomain "github.com/natalis-app/natalis-backend/internal/profiles/domain"
	"github.com/natalis-app/natalis-backend/internal/rectification/domain"
	"github.com/natalis-app/natalis-backend/internal/rectification/engine"
)

type fakeProfiles struct {
	items map[string]*profiledomain.Profile
	set   map[string]string
}

func (f *fakeProfiles) Get(_ context.Context, owner, id string) (*profiledomain.Profile, error) {
	p, ok := f.items[id]
	if !ok || p.OwnerUID != owner {
		return nil, profiledomain.ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeProfiles) SetBirthTime(_ context.Context, id, clock string) (*profiledomain.Profile, error) {
	p, ok := f.items[id]
	if !ok {
		return nil, profiledomain.ErrProfileNotFound
	}
	f.set[id] = clock
	p.TimeKnown = true
	p.BirthTime = clock
	return p, nil
}

type memStore map[string]domain.Session

func (m memStore) Get(_ context.Context, id string) (*domain.Session, error) {
	s, ok := m[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &s, nil
}

func (m memStore) Save(_ context.Context, s *domain.Session) error {
	m[s.ID] = *s
	return nil
}

func (m memStore) Delete(_ context.Context, id string) error {
	delete(m, id)
	return nil
}

func setupService() (*SessionService, *fakeProfiles, memStore) {
	profiles := &fakeProfiles{
		items: map[string]*profiledomain.Profile{
			"known":   {ID: "known", OwnerUID: "u1", BirthDate: "1990-05-17", TimeKnown: true, BirthTime: "10:00"},
			"unknown": {ID: "unknown", OwnerUID: "u1", BirthDate: "1990-05-17"},
		},
		set: map[string]string{},
	}
	store := memStore{}
	svc := NewSessionService(profiles, store, engine.New(nil, engine.DefaultWeights()))
	svc.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return svc, profiles, store
}

func TestCreate(t *testing.T) {
	svc, _, store := setupService()
	ctx := context.Background()

	s, err := svc.Create(ctx, "u1", "known")
	require.NoError(t, err)
	assert.Equal(t, domain.StepWindow, s.Step)
	assert.Equal(t, domain.Window{Center: "10:00", HalfWidthMinutes: 40}, s.Window)
	assert.Contains(t, store, s.ID)

	s, err = svc.Create(ctx, "u1", "unknown")
	require.NoError(t, err)
	assert.Equal(t, domain.Window{Center: "12:00", HalfWidthMinutes: 720}, s.Window)

	_, err = svc.Create(ctx, "u2", "known")
	assert.ErrorIs(t, err, profiledomain.ErrProfileNotFound)
}

func TestGet_OtherOwner(t *testing.T) {
	svc, _, _ := setupService()
	ctx := context.Background()

	s, err := svc.Create(ctx, "u1", "known")
	require.NoError(t, err)

	_, err = svc.Get(ctx, "u2", s.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = svc.Next(ctx, "u2", s.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestWizardAndAccept(t *testing.T) {
	svc, profiles, store := setupService()
	ctx := context.Background()

	s, err := svc.Create(ctx, "u1", "unknown")
	require.NoError(t, err)

	_, err = svc.Candidates(ctx, "u1", s.ID)
	assert.ErrorIs(t, err, domain.ErrWrongStep)

	_, err = svc.Answer(ctx, "u1", s.ID, domain.StepInput{Window: &domain.Window{Center: "14:00", HalfWidthMinutes: 60}})
	require.NoError(t, err)

	// on to predispositions
	for i := 0; i < 3; i++ {
		_, err = svc.Next(ctx, "u1", s.ID)
		require.NoError(t, err)
	}
	_, err = svc.Answer(ctx, "u1", s.ID, domain.StepInput{Ratings: map[string]int{"late_marriage": 5, "success_in_business": 4}})
	require.NoError(t, err)

	back, err := svc.Back(ctx, "u1", s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StepTraits, back.Step)

	for i := 0; i < 3; i++ {
		_, err = svc.Next(ctx, "u1", s.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, domain.StepScoring, store[s.ID].Step)

	candidates, err := svc.Candidates(ctx, "u1", s.ID)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, domain.ChoiceB, candidates[0].Archetype)
	assert.Equal(t, 19, candidates[0].Score)
	assert.Equal(t, "14:30", candidates[0].Time)

	_, err = svc.Accept(ctx, "u1", s.ID, "C")
	assert.ErrorIs(t, err, domain.ErrUnknownArchetype)

	p, err := svc.Accept(ctx, "u1", s.ID, domain.ChoiceB)
	require.NoError(t, err)
	assert.Equal(t, "14:30", p.BirthTime)
	assert.Equal(t, "14:30", profiles.set["unknown"])
	assert.NotContains(t, store, s.ID)

	_, err = svc.Get(ctx, "u1", s.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
