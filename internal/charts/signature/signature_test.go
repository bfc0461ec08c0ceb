package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"

	chartdomain "github.com/natalis-app/natalis-backend/internal/charts/domain"
	profiledomain "github.com/natalis-app/natalis-backend/internal/profiles/domain"
)

func ptr[T any](v T) *T { return &v }

var settings = chartdomain.Settings{Theme: "dark", ZodiacType: "Tropic", HouseSystem: "P"}

func kyivProfile() *profiledomain.Profile {
	return &profiledomain.Profile{
		Name:      "Anna",
		BirthDate: "1990-05-17",
		TimeKnown: true,
		BirthTime: "07:45",
		Place:     "Kyiv, Ukraine",
		Geo: &profiledomain.Geo{
			City:   "Kyiv",
			Nation: ptr("UA"),
			Lat:    ptr(50.4501),
			Lng:    ptr(30.5234),
			TZ:     ptr("Europe/Kyiv"),
		},
	}
}

func TestCompute_FixedOrder(t *testing.T) {
	sig := ForProfile(kyivProfile(), settings)
	assert.Equal(t, "1990|5|17|7|45|50.4501|30.5234|Europe/Kyiv|dark|Tropic|P|Kyiv|UA", sig)
}

func TestCompute_NilFieldsBecomeEmpty(t *testing.T) {
	assert.Equal(t, "|||0|0||||||||", Compute(Fields{}))
}

func TestForProfile_IgnoresNonChartFields(t *testing.T) {
	a := kyivProfile()
	b := kyivProfile()
	b.Name = "Someone else"
	b.Gender = ptr(profiledomain.GenderOther)
	b.CurrentCity = "Lviv"
	b.LivesElsewhere = true
	b.Seconds = ptr(30)

	assert.Equal(t, ForProfile(a, settings), ForProfile(b, settings))
}

func TestForProfile_ChartFieldsChangeSignature(t *testing.T) {
	base := ForProfile(kyivProfile(), settings)

	mutations := map[string]func(p *profiledomain.Profile, s *chartdomain.Settings){
		"date":   func(p *profiledomain.Profile, _ *chartdomain.Settings) { p.BirthDate = "1990-05-18" },
		"time":   func(p *profiledomain.Profile, _ *chartdomain.Settings) { p.BirthTime = "07:46" },
		"lat":    func(p *profiledomain.Profile, _ *chartdomain.Settings) { p.Geo.Lat = ptr(50.45) },
		"tz":     func(p *profiledomain.Profile, _ *chartdomain.Settings) { p.Geo.TZ = ptr("Europe/Warsaw") },
		"theme":  func(_ *profiledomain.Profile, s *chartdomain.Settings) { s.Theme = "light" },
		"house":  func(_ *profiledomain.Profile, s *chartdomain.Settings) { s.HouseSystem = "W" },
		"zodiac": func(_ *profiledomain.Profile, s *chartdomain.Settings) { s.ZodiacType = "Sidereal" },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			p := kyivProfile()
			s := settings
			mutate(p, &s)
			assert.NotEqual(t, base, ForProfile(p, s))
		})
	}
}

func TestForProfile_UnknownTimeUsesNoon(t *testing.T) {
	p := kyivProfile()
	p.TimeKnown = false
	p.BirthTime = "03:10"

	f := FromProfile(p, settings)
	assert.Equal(t, 12, f.Hour)
	assert.Equal(t, 0, f.Minute)

	q := kyivProfile()
	q.BirthTime = "12:00"
	assert.Equal(t, ForProfile(q, settings), ForProfile(p, settings))
}

func TestForProfile_WithoutGeo(t *testing.T) {
	p := &profiledomain.Profile{BirthDate: "not-a-date", Place: "Paris, France"}
	assert.Equal(t, "|||12|0|||||||Paris|", ForProfile(p, chartdomain.Settings{}))
}
