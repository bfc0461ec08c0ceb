package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"

	// DefaultHour and DefaultMinute stand in for an unknown birth time.
	DefaultHour   = 12
	DefaultMinute = 0
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

var (
	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)
)

// Geo is the resolved birth place picked from geocoding candidates.
type Geo struct {
	City        string   `json:"city"`
	Nation      *string  `json:"nation,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
	TZ          *string  `json:"tz,omitempty"`
	DisplayName string   `json:"display_name,omitempty"`
}

// Profile is a user's birth data.
type Profile struct {
	ID             string    `json:"id"`
	OwnerUID       string    `json:"owner_uid"`
	Name           string    `json:"name"`
	BirthDate      string    `json:"birth_date"`
	TimeKnown      bool      `json:"time_known"`
	BirthTime      string    `json:"birth_time,omitempty"`
	Seconds        *int      `json:"seconds,omitempty"`
	Place          string    `json:"place"`
	Geo            *Geo      `json:"geo,omitempty"`
	Gender         *string   `json:"gender,omitempty"`
	LivesElsewhere bool      `json:"lives_elsewhere"`
	CurrentCity    string    `json:"current_city,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Validate applies the onboarding rules. Errors wrap ErrInvalidProfile.
func (p *Profile) Validate() error {
	if _, _, _, ok := p.DateParts(); !ok {
		return fmt.Errorf("%w: birth_date must be a real YYYY-MM-DD date", ErrInvalidProfile)
	}
	if p.TimeKnown && !timeRe.MatchString(p.BirthTime) {
		return fmt.Errorf("%w: birth_time must be HH:mm when the time is known", ErrInvalidProfile)
	}
	if p.Seconds != nil && (*p.Seconds < 0 || *p.Seconds > 59) {
		return fmt.Errorf("%w: seconds must be within 0..59", ErrInvalidProfile)
	}
	if p.Gender != nil {
		switch *p.Gender {
		case GenderMale, GenderFemale, GenderOther:
		default:
			return fmt.Errorf("%w: unknown gender %q", ErrInvalidProfile, *p.Gender)
		}
	}
	if g := p.Geo; g != nil {
		if (g.Lat == nil) != (g.Lng == nil) {
			return fmt.Errorf("%w: lat and lng must be set together", ErrInvalidProfile)
		}
		if g.Lat != nil && (*g.Lat < -90 || *g.Lat > 90 || *g.Lng < -180 || *g.Lng > 180) {
			return fmt.Errorf("%w: coordinates out of range", ErrInvalidProfile)
		}
	}
	if p.LivesElsewhere && strings.TrimSpace(p.CurrentCity) == "" {
		return fmt.Errorf("%w: current_city is required when living elsewhere", ErrInvalidProfile)
	}
	return nil
}

// DateParts parses BirthDate. ok is false for malformed or impossible dates.
func (p *Profile) DateParts() (year, month, day int, ok bool) {
	if !dateRe.MatchString(p.BirthDate) {
		return 0, 0, 0, false
	}
	t, err := time.Parse(DateLayout, p.BirthDate)
	if err != nil {
		return 0, 0, 0, false
	}
	return t.Year(), int(t.Month()), t.Day(), true
}

// ClockTime is the time used for the chart: BirthTime when known and well
// formed, 12:00 otherwise.
func (p *Profile) ClockTime() (hour, minute int) {
	if !p.TimeKnown {
		return DefaultHour, DefaultMinute
	}
	h, m, ok := ParseClock(p.BirthTime)
	if !ok {
		return DefaultHour, DefaultMinute
	}
	return h, m
}

// CityName prefers the resolved city and falls back to the first segment of
// the typed place.
func (p *Profile) CityName() string {
	if p.Geo != nil && strings.TrimSpace(p.Geo.City) != "" {
		return strings.TrimSpace(p.Geo.City)
	}
	first, _, _ := strings.Cut(p.Place, ",")
	return strings.TrimSpace(first)
}

// RawNation is the nation as stored, before any normalisation.
func (p *Profile) RawNation() string {
	if p.Geo == nil || p.Geo.Nation == nil {
		return ""
	}
	return strings.TrimSpace(*p.Geo.Nation)
}

// ParseClock parses "HH:mm", tolerating a trailing ":ss".
func ParseClock(s string) (hour, minute int, ok bool) {
	s = strings.TrimSpace(s)
	if len(s) == 8 && s[5] == ':' {
		s = s[:5]
	}
	m := timeRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	return hour, minute, true
}

// FormatClock renders minutes-since-midnight as "HH:mm", wrapping into a single day.
func FormatClock(minutes int) string {
	minutes %= 24 * 60
	if minutes < 0 {
		minutes += 24 * 60
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
