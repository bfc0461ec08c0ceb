package domain

import "time"

// Step is a wizard state. Transitions between steps live in the engine.
type Step string

const (
	StepWindow          Step = "window"
	StepTransitions     Step = "transitions"
	StepTraits          Step = "traits"
	StepPredispositions Step = "predispositions"
	StepEvents          Step = "events"
	StepScoring         Step = "scoring"
)

type Choice string

const (
	ChoiceA Choice = "A"
	ChoiceB Choice = "B"
)

// Archetypes are scored in this order; ties keep it.
var Archetypes = []Choice{ChoiceA, ChoiceB}

const (
	DefaultHalfWidth = 40
	MaxHalfWidth     = 12 * 60
	NeutralRating    = 3
	MinRating        = 1
	MaxRating        = 5
	MinEventYear     = 1900
)

// Window is the searched span: Center ± HalfWidthMinutes.
type Window struct {
	Center           string `json:"center"`
	HalfWidthMinutes int    `json:"half_width_minutes"`
}

// Transition is a point inside the window where the ascendant changes sign.
type Transition struct {
	At   string `json:"at"`
	From string `json:"from"`
	To   string `json:"to"`
}

type Traits struct {
	Psychology string `json:"psychology"`
	Appearance string `json:"appearance"`
	Altruism   string `json:"altruism"`
	Values     string `json:"values"`
}

type LifeEvent struct {
	Kind  string `json:"kind"`
	Month *int   `json:"month,omitempty"`
	Year  *int   `json:"year,omitempty"`
}

const (
	EventMarriage        = "marriage"
	EventDivorce         = "divorce"
	EventChildbirth      = "childbirth"
	EventBereavement     = "bereavement"
	EventHospitalization = "hospitalization"
	EventInjury          = "injury"
	EventExtremeIncident = "extreme_incident"
)

var EventKinds = []string{
	EventMarriage, EventDivorce, EventChildbirth, EventBereavement,
	EventHospitalization, EventInjury, EventExtremeIncident,
}

// Predisposition is one statement of the ratings step.
type Predisposition struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

var Predispositions = []Predisposition{
	{Key: "early_marriage", Label: "Early marriage"},
	{Key: "late_marriage", Label: "Late marriage"},
	{Key: "success_in_law", Label: "Success in law or public service"},
	{Key: "success_in_business", Label: "Success in business"},
	{Key: "frequent_relocation", Label: "Frequent relocation"},
	{Key: "large_family", Label: "Large family"},
}

func IsPredisposition(key string) bool {
	for _, p := range Predispositions {
		if p.Key == key {
			return true
		}
	}
	return false
}

func IsEventKind(kind string) bool {
	for _, k := range EventKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Session is the transient wizard state. Choices are keyed by transition index.
type Session struct {
	ID          string         `json:"id"`
	ProfileID   string         `json:"profile_id"`
	OwnerUID    string         `json:"owner_uid"`
	Step        Step           `json:"step"`
	Window      Window         `json:"window"`
	Transitions []Transition   `json:"transitions"`
	Choices     map[int]Choice `json:"choices"`
	Traits      Traits         `json:"traits"`
	Ratings     map[string]int `json:"ratings"`
	Events      []LifeEvent    `json:"events"`
	CreatedAt   time.Time      `json:"created_at"`
}

// StepInput carries answers for one step. Only the part matching the
// session's current step is read.
type StepInput struct {
	Window  *Window        `json:"window,omitempty"`
	Choices map[int]Choice `json:"choices,omitempty"`
	Traits  *Traits        `json:"traits,omitempty"`
	Ratings map[string]int `json:"ratings,omitempty"`
	Events  []LifeEvent    `json:"events,omitempty"`
}

// Candidate is a ranked birth time with the reasons behind its score.
type Candidate struct {
	Archetype Choice   `json:"archetype"`
	Time      string   `json:"time"`
	Score     int      `json:"score"`
	Reasons   []string `json:"reasons"`
}
