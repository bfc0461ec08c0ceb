package domain

import (
	"encoding/json"
	"time"
)

// Settings are the chart options that are not part of the birth profile.
type Settings struct {
	Theme            string `json:"theme"`
	ZodiacType       string `json:"zodiac_type"`
	HouseSystem      string `json:"house_system"`
	Language         string `json:"language"`
	GeonamesUsername string `json:"-"`
}

// LocationMode records how the rendering service was told where the birth happened.
type LocationMode string

const (
	ModeCoordinates LocationMode = "coordinates"
	ModeCityNation  LocationMode = "city_nation"
)

// SubjectEcho is the subject that was sent for a render, kept next to the artifact.
type SubjectEcho struct {
	Year        int          `json:"year"`
	Month       int          `json:"month"`
	Day         int          `json:"day"`
	Hour        int          `json:"hour"`
	Minute      int          `json:"minute"`
	Lat         *float64     `json:"lat,omitempty"`
	Lng         *float64     `json:"lng,omitempty"`
	TZ          string       `json:"tz,omitempty"`
	City        string       `json:"city,omitempty"`
	Nation      string       `json:"nation,omitempty"`
	Theme       string       `json:"theme"`
	ZodiacType  string       `json:"zodiac_type"`
	HouseSystem string       `json:"house_system"`
	Mode        LocationMode `json:"mode"`
}

// Artifact is the stored result of one chart generation. Markup is nil when
// the rendering service answered without usable markup; Debug then holds the
// raw payload.
type Artifact struct {
	ProfileID   string          `json:"profile_id"`
	Signature   string          `json:"signature"`
	Markup      *string         `json:"markup,omitempty"`
	Subject     *SubjectEcho    `json:"subject,omitempty"`
	Debug       json.RawMessage `json:"debug,omitempty"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// Ready reports whether the artifact carries displayable markup.
func (a *Artifact) Ready() bool {
	return a != nil && a.Markup != nil && *a.Markup != ""
}
