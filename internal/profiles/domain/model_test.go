package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestProfile_Validate(t *testing.T) {
	valid := func() *Profile {
		return &Profile{BirthDate: "1988-02-29", TimeKnown: true, BirthTime: "23:59"}
	}

	assert.NoError(t, valid().Validate())

	cases := map[string]func(p *Profile){
		"impossible date":   func(p *Profile) { p.BirthDate = "1989-02-29" },
		"wrong date format": func(p *Profile) { p.BirthDate = "29.02.1988" },
		"bad known time":    func(p *Profile) { p.BirthTime = "24:00" },
		"seconds range":     func(p *Profile) { p.Seconds = ptr(60) },
		"gender":            func(p *Profile) { p.Gender = ptr("unknown") },
		"half coordinates":  func(p *Profile) { p.Geo = &Geo{Lat: ptr(10.0)} },
		"lat range":         func(p *Profile) { p.Geo = &Geo{Lat: ptr(91.0), Lng: ptr(0.0)} },
		"current city":      func(p *Profile) { p.LivesElsewhere = true },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := valid()
			mutate(p)
			err := p.Validate()
			assert.True(t, errors.Is(err, ErrInvalidProfile), "got %v", err)
		})
	}

	t.Run("unknown time ignores malformed time", func(t *testing.T) {
		p := valid()
		p.TimeKnown = false
		p.BirthTime = "soon"
		assert.NoError(t, p.Validate())
	})
}

func TestProfile_ClockTime(t *testing.T) {
	p := &Profile{TimeKnown: true, BirthTime: "06:05"}
	h, m := p.ClockTime()
	assert.Equal(t, 6, h)
	assert.Equal(t, 5, m)

	p.BirthTime = "06:05:30"
	h, m = p.ClockTime()
	assert.Equal(t, []int{6, 5}, []int{h, m})

	p.TimeKnown = false
	h, m = p.ClockTime()
	assert.Equal(t, []int{12, 0}, []int{h, m})
}

func TestProfile_CityName(t *testing.T) {
	p := &Profile{Place: " Paris , Île-de-France, France"}
	assert.Equal(t, "Paris", p.CityName())

	p.Geo = &Geo{City: "Paris 1er"}
	assert.Equal(t, "Paris 1er", p.CityName())
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "00:00", FormatClock(0))
	assert.Equal(t, "23:59", FormatClock(-1))
	assert.Equal(t, "01:30", FormatClock(24*60+90))
}
