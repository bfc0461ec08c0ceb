package engine

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"

	profiledomain "github.com/natalis-app/natalis-backend/internal/profiles/domain"
	"github.com/natalis-app/natalis-backend/internal/rectification/domain"
)

// Weights are the scoring constants.
type Weights struct {
	Base       int
	SliceBonus int
	MaxSlices  int
	// Keys lists the predispositions whose ratings count for each archetype.
	Keys        map[domain.Choice][]string
	EventModulo uint32
}

func DefaultWeights() Weights {
	return Weights{
		Base:       10,
		SliceBonus: 3,
		MaxSlices:  2,
		Keys: map[domain.Choice][]string{
			domain.ChoiceA: {"early_marriage", "success_in_law"},
			domain.ChoiceB: {"late_marriage", "success_in_business"},
		},
		EventModulo: 3,
	}
}

// Score ranks both archetypes for a session. It reads no clock and has no
// randomness, so equal answers always give equal results.
func (e *Engine) Score(s *domain.Session) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(domain.Archetypes))
	for _, arch := range domain.Archetypes {
		score, reasons := e.scoreArchetype(s, arch)
		out = append(out, domain.Candidate{
			Archetype: arch,
			Time:      candidateTime(s, arch),
			Score:     score,
			Reasons:   reasons,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func (e *Engine) scoreArchetype(s *domain.Session, arch domain.Choice) (int, []string) {
	w := e.weights
	score := w.Base
	reasons := []string{fmt.Sprintf("base %d", w.Base)}

	for i, t := range s.Transitions {
		if i >= w.MaxSlices {
			break
		}
		if s.Choices[i] == arch {
			score += w.SliceBonus
			reasons = append(reasons, fmt.Sprintf("transition at %s (%s to %s) chose %s: +%d", t.At, t.From, t.To, arch, w.SliceBonus))
		}
	}

	for _, key := range w.Keys[arch] {
		r, ok := s.Ratings[key]
		if !ok || r < domain.MinRating || r > domain.MaxRating {
			r = domain.NeutralRating
		}
		score += r
		reasons = append(reasons, fmt.Sprintf("%s rated %d: +%d", key, r, r))
	}

	if len(s.Events) > 0 {
		off := eventsOffset(arch, s.Events, w.EventModulo)
		score += off
		reasons = append(reasons, fmt.Sprintf("life events: +%d", off))
	}
	return score, reasons
}

// eventsOffset folds events into a per-archetype offset. Each event
// contributes independently so the sum does not depend on order. It is a
// content hash, not a calendar computation.
func eventsOffset(arch domain.Choice, events []domain.LifeEvent, modulo uint32) int {
	if modulo == 0 {
		return 0
	}
	total := 0
	for _, ev := range events {
		h := fnv.New32a()
		_, _ = h.Write([]byte(string(arch) + "|" + ev.Kind + "|" + optInt(ev.Year) + "|" + optInt(ev.Month)))
		total += int(h.Sum32() % modulo)
	}
	return total
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// candidateTime places A before the first transition and B after the last,
// at the midpoint of the remaining span. Without transitions they sit at a
// quarter of the window either side of the center.
func candidateTime(s *domain.Session, arch domain.Choice) string {
	start := windowStart(s.Window)
	span := 2 * s.Window.HalfWidthMinutes

	first, last := -1, -1
	for _, t := range s.Transitions {
		off, ok := offset(s.Window, t.At)
		if !ok {
			continue
		}
		if first < 0 || off < first {
			first = off
		}
		if off > last {
			last = off
		}
	}

	var mid int
	switch {
	case arch == domain.ChoiceA && first >= 0:
		mid = first / 2
	case arch == domain.ChoiceA:
		mid = s.Window.HalfWidthMinutes / 2
	case last >= 0:
		mid = (last + span) / 2
	default:
		mid = s.Window.HalfWidthMinutes + s.Window.HalfWidthMinutes/2
	}
	return profiledomain.FormatClock(start + mid)
}
