package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	profiledomain "github.com/natalis-app/natalis-backend/internal/profiles/domain"
	"github.com/natalis-app/natalis-backend/internal/rectification/domain"
)

var forward = map[domain.Step]domain.Step{
	domain.StepWindow:          domain.StepTransitions,
	domain.StepTransitions:     domain.StepTraits,
	domain.StepTraits:          domain.StepPredispositions,
	domain.StepPredispositions: domain.StepEvents,
	domain.StepEvents:          domain.StepScoring,
}

var backward = map[domain.Step]domain.Step{
	domain.StepTransitions:     domain.StepWindow,
	domain.StepTraits:          domain.StepTransitions,
	domain.StepPredispositions: domain.StepTraits,
	domain.StepEvents:          domain.StepPredispositions,
	domain.StepScoring:         domain.StepEvents,
}

// TransitionFinder reports ascendant sign changes inside a session's window.
type TransitionFinder interface {
	Find(ctx context.Context, s *domain.Session) ([]domain.Transition, error)
}

// NoTransitions is the finder used when no ephemeris is wired.
type NoTransitions struct{}

func (NoTransitions) Find(context.Context, *domain.Session) ([]domain.Transition, error) {
	return nil, nil
}

// Engine drives the wizard and scores finished sessions.
type Engine struct {
	finder  TransitionFinder
	weights Weights
	now     func() time.Time
}

func New(finder TransitionFinder, weights Weights) *Engine {
	if finder == nil {
		finder = NoTransitions{}
	}
	return &Engine{finder: finder, weights: weights, now: time.Now}
}

// DefaultWindow centers on the known birth time, or spans the whole day.
func DefaultWindow(p *profiledomain.Profile) domain.Window {
	if p != nil && p.TimeKnown {
		if h, m, ok := profiledomain.ParseClock(p.BirthTime); ok {
			return domain.Window{Center: profiledomain.FormatClock(h*60 + m), HalfWidthMinutes: domain.DefaultHalfWidth}
		}
	}
	return domain.Window{
		Center:           profiledomain.FormatClock(profiledomain.DefaultHour*60 + profiledomain.DefaultMinute),
		HalfWidthMinutes: domain.MaxHalfWidth,
	}
}

// Apply stores the current step's answers after validating them.
func (e *Engine) Apply(s *domain.Session, in domain.StepInput) error {
	switch s.Step {
	case domain.StepWindow:
		if in.Window == nil {
			return fmt.Errorf("%w: window is required", domain.ErrStepIncomplete)
		}
		w := *in.Window
		if err := validateWindow(w); err != nil {
			return err
		}
		h, m, _ := profiledomain.ParseClock(w.Center)
		w.Center = profiledomain.FormatClock(h*60 + m)
		s.Window = w
	case domain.StepTransitions:
		if err := validateChoices(s.Transitions, in.Choices); err != nil {
			return err
		}
		s.Choices = copyChoices(in.Choices)
	case domain.StepTraits:
		if in.Traits != nil {
			s.Traits = trimTraits(*in.Traits)
		}
	case domain.StepPredispositions:
		if err := validateRatings(in.Ratings); err != nil {
			return err
		}
		s.Ratings = copyRatings(in.Ratings)
	case domain.StepEvents:
		if err := e.validateEvents(in.Events); err != nil {
			return err
		}
		s.Events = append([]domain.LifeEvent(nil), in.Events...)
	default:
		return fmt.Errorf("%w: %s takes no answers", domain.ErrWrongStep, s.Step)
	}
	return nil
}

// Next validates the current step and advances. Entering the transitions
// step asks the finder for the transitions inside the window.
func (e *Engine) Next(ctx context.Context, s *domain.Session) error {
	to, ok := forward[s.Step]
	if !ok {
		return fmt.Errorf("%w: %s is the last step", domain.ErrWrongStep, s.Step)
	}
	if err := e.validate(s); err != nil {
		return err
	}

	if to == domain.StepTransitions {
		found, err := e.finder.Find(ctx, s)
		if err != nil {
			return fmt.Errorf("failed to find transitions: %w", err)
		}
		transitions := inWindow(s.Window, found)
		if !sameTransitions(s.Transitions, transitions) {
			s.Choices = map[int]domain.Choice{}
		}
		s.Transitions = transitions
	}
	if to == domain.StepPredispositions && s.Ratings == nil {
		s.Ratings = map[string]int{}
	}
	s.Step = to
	return nil
}

// Back is always permitted and does nothing at the first step.
func (e *Engine) Back(s *domain.Session) {
	if to, ok := backward[s.Step]; ok {
		s.Step = to
	}
}

func (e *Engine) validate(s *domain.Session) error {
	switch s.Step {
	case domain.StepWindow:
		return validateWindow(s.Window)
	case domain.StepTransitions:
		return validateChoices(s.Transitions, s.Choices)
	case domain.StepPredispositions:
		return validateRatings(s.Ratings)
	case domain.StepEvents:
		return e.validateEvents(s.Events)
	}
	return nil
}

func validateWindow(w domain.Window) error {
	if _, _, ok := profiledomain.ParseClock(w.Center); !ok {
		return fmt.Errorf("%w: window center must be HH:mm", domain.ErrStepIncomplete)
	}
	if w.HalfWidthMinutes < 1 || w.HalfWidthMinutes > domain.MaxHalfWidth {
		return fmt.Errorf("%w: half width must be within 1..%d minutes", domain.ErrStepIncomplete, domain.MaxHalfWidth)
	}
	return nil
}

func validateChoices(transitions []domain.Transition, choices map[int]domain.Choice) error {
	for i := range transitions {
		switch choices[i] {
		case domain.ChoiceA, domain.ChoiceB:
		default:
			return fmt.Errorf("%w: transition %d needs a choice of A or B", domain.ErrStepIncomplete, i+1)
		}
	}
	for i := range choices {
		if i < 0 || i >= len(transitions) {
			return fmt.Errorf("%w: no transition %d", domain.ErrStepIncomplete, i+1)
		}
	}
	return nil
}

func validateRatings(ratings map[string]int) error {
	for key, r := range ratings {
		if !domain.IsPredisposition(key) {
			return fmt.Errorf("%w: unknown predisposition %q", domain.ErrStepIncomplete, key)
		}
		if r < domain.MinRating || r > domain.MaxRating {
			return fmt.Errorf("%w: rating for %s must be within 1..5", domain.ErrStepIncomplete, key)
		}
	}
	return nil
}

func (e *Engine) validateEvents(events []domain.LifeEvent) error {
	maxYear := e.now().Year() + 1
	for _, ev := range events {
		if !domain.IsEventKind(ev.Kind) {
			return fmt.Errorf("%w: unknown event kind %q", domain.ErrStepIncomplete, ev.Kind)
		}
		if ev.Month != nil && (*ev.Month < 1 || *ev.Month > 12) {
			return fmt.Errorf("%w: %s month must be within 1..12", domain.ErrStepIncomplete, ev.Kind)
		}
		if ev.Year != nil && (*ev.Year < domain.MinEventYear || *ev.Year > maxYear) {
			return fmt.Errorf("%w: %s year must be within %d..%d", domain.ErrStepIncomplete, ev.Kind, domain.MinEventYear, maxYear)
		}
	}
	return nil
}

// inWindow keeps parseable transitions inside the window, ordered from the
// window start. A window may cross midnight.
func inWindow(w domain.Window, found []domain.Transition) []domain.Transition {
	type placed struct {
		t   domain.Transition
		off int
	}
	var out []placed
	for _, t := range found {
		off, ok := offset(w, t.At)
		if !ok {
			continue
		}
		h, m, _ := profiledomain.ParseClock(t.At)
		t.At = profiledomain.FormatClock(h*60 + m)
		out = append(out, placed{t: t, off: off})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].off < out[j].off })

	res := make([]domain.Transition, 0, len(out))
	for _, p := range out {
		res = append(res, p.t)
	}
	return res
}

// offset is the distance in minutes from the window start to clock.
func offset(w domain.Window, clock string) (int, bool) {
	h, m, ok := profiledomain.ParseClock(clock)
	if !ok {
		return 0, false
	}
	off := ((h*60+m)-windowStart(w))%minutesPerDay + minutesPerDay
	off %= minutesPerDay
	if off > 2*w.HalfWidthMinutes {
		return 0, false
	}
	return off, true
}

const minutesPerDay = 24 * 60

func windowStart(w domain.Window) int {
	h, m, _ := profiledomain.ParseClock(w.Center)
	return h*60 + m - w.HalfWidthMinutes
}

func sameTransitions(a, b []domain.Transition) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func trimTraits(t domain.Traits) domain.Traits {
	return domain.Traits{
		Psychology: strings.TrimSpace(t.Psychology),
		Appearance: strings.TrimSpace(t.Appearance),
		Altruism:   strings.TrimSpace(t.Altruism),
		Values:     strings.TrimSpace(t.Values),
	}
}

func copyChoices(in map[int]domain.Choice) map[int]domain.Choice {
	out := make(map[int]domain.Choice, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyRatings(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
