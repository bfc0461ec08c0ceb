package http

import (
	"strings"

	"github.com/natalis-app/natalis-backend/internal/profiles/domain"
)

type geoReq struct {
	City        string   `json:"city"`
	Nation      *string  `json:"nation"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	TZ          *string  `json:"tz"`
	DisplayName string   `json:"displayName"`
}

// profileReq is the onboarding form body.
type profileReq struct {
	Name           string  `json:"name"`
	BirthDate      string  `json:"birth_date" binding:"required"`
	TimeKnown      bool    `json:"time_known"`
	BirthTime      string  `json:"birth_time"`
	Seconds        *int    `json:"seconds"`
	Place          string  `json:"place"`
	Geo            *geoReq `json:"geo"`
	Gender         *string `json:"gender"`
	LivesElsewhere bool    `json:"lives_elsewhere"`
	CurrentCity    string  `json:"current_city"`
}

func (r profileReq) toDomain() *domain.Profile {
	p := &domain.Profile{
		Name:           strings.TrimSpace(r.Name),
		BirthDate:      strings.TrimSpace(r.BirthDate),
		TimeKnown:      r.TimeKnown,
		Seconds:        r.Seconds,
		Place:          strings.TrimSpace(r.Place),
		Gender:         r.Gender,
		LivesElsewhere: r.LivesElsewhere,
		CurrentCity:    strings.TrimSpace(r.CurrentCity),
	}
	if r.TimeKnown {
		p.BirthTime = strings.TrimSpace(r.BirthTime)
	}
	if r.Geo != nil {
		p.Geo = &domain.Geo{
			City:        strings.TrimSpace(r.Geo.City),
			Nation:      r.Geo.Nation,
			Lat:         r.Geo.Lat,
			Lng:         r.Geo.Lng,
			TZ:          r.Geo.TZ,
			DisplayName: r.Geo.DisplayName,
		}
	}
	return p
}
