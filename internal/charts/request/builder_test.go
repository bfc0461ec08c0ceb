package request

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chartdomain "github.com/natalis-app/natalis-backend/internal/charts/domain"
	profiledomain "github.com/natalis-app/natalis-backend/internal/profiles/domain"
)

func ptr[T any](v T) *T { return &v }

func settings(geonames string) chartdomain.Settings {
	return chartdomain.Settings{
		Theme:            "dark",
		ZodiacType:       "Tropic",
		HouseSystem:      "P",
		Language:         "RU",
		GeonamesUsername: geonames,
	}
}

func TestBuild_CoordinatesMode(t *testing.T) {
	p := &profiledomain.Profile{
		Name:      "Ivan",
		BirthDate: "1985-11-03",
		TimeKnown: true,
		BirthTime: "21:07",
		Geo: &profiledomain.Geo{
			City:   "Moscow",
			Nation: ptr("ru"),
			Lat:    ptr(55.7558),
			Lng:    ptr(37.6173),
			TZ:     ptr("Europe/Moscow"),
		},
	}

	res := NewBuilder(settings("account"), nil).Build(p)
	require.False(t, res.Skipped())

	req := res.Request
	assert.Equal(t, chartdomain.ModeCoordinates, req.Mode)
	assert.Equal(t, 1985, req.Subject.Year)
	assert.Equal(t, 11, req.Subject.Month)
	assert.Equal(t, 3, req.Subject.Day)
	assert.Equal(t, 21, req.Subject.Hour)
	assert.Equal(t, 7, req.Subject.Minute)
	assert.Equal(t, 55.7558, *req.Subject.Latitude)
	assert.Equal(t, "Europe/Moscow", req.Subject.Timezone)
	assert.Equal(t, "RU", req.Subject.Nation)
	assert.Empty(t, req.Subject.GeonamesUsername)
	assert.Equal(t, "dark", req.Theme)
	assert.Equal(t, "P", req.Subject.HouseSystem)
}

func TestBuild_UnknownTimeDefaultsToNoon(t *testing.T) {
	p := &profiledomain.Profile{
		BirthDate: "2001-01-01",
		BirthTime: "05:30",
		Geo:       &profiledomain.Geo{Lat: ptr(1.0), Lng: ptr(2.0), TZ: ptr("UTC")},
	}

	res := NewBuilder(settings(""), nil).Build(p)
	require.False(t, res.Skipped())
	assert.Equal(t, 12, res.Request.Subject.Hour)
	assert.Equal(t, 0, res.Request.Subject.Minute)
}

func TestBuild_CityNationMode(t *testing.T) {
	p := &profiledomain.Profile{
		BirthDate: "1970-07-01",
		Place:     "Одесса, Украина",
		Geo:       &profiledomain.Geo{Nation: ptr("Украина"), Lat: ptr(46.48), Lng: ptr(30.72)},
	}

	res := NewBuilder(settings("natalis"), nil).Build(p)
	require.False(t, res.Skipped())
	assert.Equal(t, chartdomain.ModeCityNation, res.Request.Mode)
	assert.Equal(t, "Одесса", res.Request.Subject.City)
	assert.Equal(t, "UA", res.Request.Subject.Nation)
	assert.Equal(t, "natalis", res.Request.Subject.GeonamesUsername)
	assert.Nil(t, res.Request.Subject.Latitude)
}

func TestBuild_Skips(t *testing.T) {
	t.Run("no coordinates and no geocoding account", func(t *testing.T) {
		p := &profiledomain.Profile{BirthDate: "1970-07-01", Place: "Odessa"}
		res := NewBuilder(settings(""), nil).Build(p)
		assert.True(t, res.Skipped())
		assert.Equal(t, SkipInsufficientPlace, res.SkipReason)
	})

	t.Run("account but no city", func(t *testing.T) {
		p := &profiledomain.Profile{BirthDate: "1970-07-01"}
		res := NewBuilder(settings("natalis"), nil).Build(p)
		assert.True(t, res.Skipped())
	})

	t.Run("coordinates without timezone fall through", func(t *testing.T) {
		p := &profiledomain.Profile{
			BirthDate: "1970-07-01",
			Geo:       &profiledomain.Geo{Lat: ptr(1.0), Lng: ptr(2.0)},
		}
		res := NewBuilder(settings(""), nil).Build(p)
		assert.True(t, res.Skipped())
	})

	t.Run("invalid date", func(t *testing.T) {
		p := &profiledomain.Profile{BirthDate: "1970-13-01", Geo: &profiledomain.Geo{Lat: ptr(1.0), Lng: ptr(2.0), TZ: ptr("UTC")}}
		res := NewBuilder(settings(""), nil).Build(p)
		assert.True(t, res.Skipped())
		assert.Equal(t, SkipInvalidDate, res.SkipReason)
	})
}

func TestNationTable_Normalize(t *testing.T) {
	table := DefaultNationTable()
	assert.Equal(t, "DE", table.Normalize("de"))
	assert.Equal(t, "RU", table.Normalize("  РОССИЯ "))
	assert.Equal(t, "GB", table.Normalize("United   Kingdom"))
	assert.Equal(t, "", table.Normalize("Atlantis"))
	assert.Equal(t, "", table.Normalize(""))
}

func TestLoadNationTable(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "nations.yaml")
	require.NoError(t, os.WriteFile(good, []byte("Atlantis: at\n"), 0o600))

	table, err := LoadNationTable(good)
	require.NoError(t, err)
	assert.Equal(t, "AT", table.Normalize("atlantis"))
	assert.Equal(t, "RU", table.Normalize("Russia"))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("Atlantis: Atlantis\n"), 0o600))
	_, err = LoadNationTable(bad)
	assert.Error(t, err)
}

func TestChartRequest_Echo(t *testing.T) {
	p := &profiledomain.Profile{BirthDate: "1999-09-09", Geo: &profiledomain.Geo{City: "Riga", Lat: ptr(56.95), Lng: ptr(24.1), TZ: ptr("Europe/Riga")}}
	res := NewBuilder(settings(""), nil).Build(p)
	require.False(t, res.Skipped())

	echo := res.Request.Echo()
	assert.Equal(t, "Riga", echo.City)
	assert.Equal(t, chartdomain.ModeCoordinates, echo.Mode)
	assert.Equal(t, "Europe/Riga", echo.TZ)
}
