// Package request builds the outbound chart-rendering request for a birth profile.
package request

import (
	chartdomain "github.com/natalis-app/natalis-backend/internal/charts/domain"
	profiledomain "github.com/natalis-app/natalis-backend/internal/profiles/domain"
)

const (
	SkipInvalidDate       = "invalid birth date"
	SkipInsufficientPlace = "insufficient location data"
)

// Subject is the birth-data part of the rendering request.
type Subject struct {
	Name             string   `json:"name"`
	Year             int      `json:"year"`
	Month            int      `json:"month"`
	Day              int      `json:"day"`
	Hour             int      `json:"hour"`
	Minute           int      `json:"minute"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	Timezone         string   `json:"timezone,omitempty"`
	City             string   `json:"city,omitempty"`
	Nation           string   `json:"nation,omitempty"`
	GeonamesUsername string   `json:"geonames_username,omitempty"`
	ZodiacType       string   `json:"zodiac_type,omitempty"`
	HouseSystem      string   `json:"houses_system_identifier,omitempty"`
}

// ChartRequest is the body sent to the rendering service.
type ChartRequest struct {
	Subject  Subject                  `json:"subject"`
	Theme    string                   `json:"theme,omitempty"`
	Language string                   `json:"language,omitempty"`
	Mode     chartdomain.LocationMode `json:"-"`
}

// Echo returns the subject as it is stored next to the artifact.
func (r *ChartRequest) Echo() *chartdomain.SubjectEcho {
	return &chartdomain.SubjectEcho{
		Year:        r.Subject.Year,
		Month:       r.Subject.Month,
		Day:         r.Subject.Day,
		Hour:        r.Subject.Hour,
		Minute:      r.Subject.Minute,
		Lat:         r.Subject.Latitude,
		Lng:         r.Subject.Longitude,
		TZ:          r.Subject.Timezone,
		City:        r.Subject.City,
		Nation:      r.Subject.Nation,
		Theme:       r.Theme,
		ZodiacType:  r.Subject.ZodiacType,
		HouseSystem: r.Subject.HouseSystem,
		Mode:        r.Mode,
	}
}

// Result is either a request or a skip. A skip is an expected outcome, not an error.
type Result struct {
	Request    *ChartRequest
	SkipReason string
}

func (r Result) Skipped() bool {
	return r.Request == nil
}

func skip(reason string) Result {
	return Result{SkipReason: reason}
}

type Builder struct {
	settings chartdomain.Settings
	nations  NationTable
}

func NewBuilder(settings chartdomain.Settings, nations NationTable) *Builder {
	if nations == nil {
		nations = DefaultNationTable()
	}
	return &Builder{settings: settings, nations: nations}
}

// Build tries coordinates first, then city/nation through the geocoding
// account, and skips when neither is possible.
func (b *Builder) Build(p *profiledomain.Profile) Result {
	year, month, day, ok := p.DateParts()
	if !ok {
		return skip(SkipInvalidDate)
	}
	hour, minute := p.ClockTime()

	req := &ChartRequest{
		Subject: Subject{
			Name:        p.Name,
			Year:        year,
			Month:       month,
			Day:         day,
			Hour:        hour,
			Minute:      minute,
			City:        p.CityName(),
			Nation:      b.nations.Normalize(p.RawNation()),
			ZodiacType:  b.settings.ZodiacType,
			HouseSystem: b.settings.HouseSystem,
		},
		Theme:    b.settings.Theme,
		Language: b.settings.Language,
	}

	if g := p.Geo; g != nil && g.Lat != nil && g.Lng != nil && g.TZ != nil && *g.TZ != "" {
		req.Mode = chartdomain.ModeCoordinates
		req.Subject.Latitude = g.Lat
		req.Subject.Longitude = g.Lng
		req.Subject.Timezone = *g.TZ
		return Result{Request: req}
	}

	if b.settings.GeonamesUsername != "" && req.Subject.City != "" {
		req.Mode = chartdomain.ModeCityNation
		req.Subject.GeonamesUsername = b.settings.GeonamesUsername
		return Result{Request: req}
	}

	return skip(SkipInsufficientPlace)
}
