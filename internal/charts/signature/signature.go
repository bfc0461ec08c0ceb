// Package signature fingerprints the chart-relevant inputs of a birth profile.
// Two profiles with the same signature render the same chart.
package signature

import (
	"strconv"
	"strings"

	chartdomain "github.com/natalis-app/natalis-backend/internal/charts/domain"
	profiledomain "github.com/natalis-app/natalis-backend/internal/profiles/domain"
)

const separator = "|"

// Fields are the inputs that change the rendered chart. Nil means absent.
type Fields struct {
	Year        *int
	Month       *int
	Day         *int
	Hour        int
	Minute      int
	Latitude    *float64
	Longitude   *float64
	Timezone    string
	Theme       string
	ZodiacType  string
	HouseSystem string
	City        string
	Nation      string
}

// Compute joins the normalised fields in a fixed order.
func Compute(f Fields) string {
	parts := []string{
		intPtr(f.Year),
		intPtr(f.Month),
		intPtr(f.Day),
		strconv.Itoa(f.Hour),
		strconv.Itoa(f.Minute),
		floatPtr(f.Latitude),
		floatPtr(f.Longitude),
		f.Timezone,
		f.Theme,
		f.ZodiacType,
		f.HouseSystem,
		f.City,
		f.Nation,
	}
	return strings.Join(parts, separator)
}

// FromProfile extracts the signature fields, applying the 12:00 default for an
// unknown birth time.
func FromProfile(p *profiledomain.Profile, s chartdomain.Settings) Fields {
	f := Fields{
		Theme:       s.Theme,
		ZodiacType:  s.ZodiacType,
		HouseSystem: s.HouseSystem,
		City:        p.CityName(),
		Nation:      p.RawNation(),
	}
	if y, m, d, ok := p.DateParts(); ok {
		f.Year, f.Month, f.Day = &y, &m, &d
	}
	f.Hour, f.Minute = p.ClockTime()
	if g := p.Geo; g != nil {
		f.Latitude, f.Longitude = g.Lat, g.Lng
		if g.TZ != nil {
			f.Timezone = *g.TZ
		}
	}
	return f
}

// ForProfile is Compute(FromProfile(p, s)).
func ForProfile(p *profiledomain.Profile, s chartdomain.Settings) string {
	return Compute(FromProfile(p, s))
}

func intPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func floatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
