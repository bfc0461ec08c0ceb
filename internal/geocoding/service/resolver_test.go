package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/natalis-app/natalis-backend/internal/geocoding/nominatim"
	"github.com/natalis-app/natalis-backend/internal/geocoding/tz"
)

type fakeSearcher struct {
	calls  atomic.Int32
	places []nominatim.Place
	err    error
	delay  time.Duration
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]nominatim.Place, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.places, f.err
}

var berlinLocator = tz.LocatorFunc(func(lat, lng float64) (string, error) {
	if lat > 50 {
		return "Europe/Berlin", nil
	}
	return "", tz.ErrNoTimezone
})

func londonPlaces() []nominatim.Place {
	return []nominatim.Place{
		{
			PlaceID:     1,
			Lat:         "51.5073",
			Lon:         "-0.1276",
			DisplayName: "London, Greater London, England, United Kingdom",
			Address:     nominatim.Address{City: "London", State: "England", Country: "United Kingdom", CountryCode: "gb"},
		},
		{
			PlaceID:     2,
			Lat:         "42.98",
			Lon:         "-81.24",
			DisplayName: "London, Ontario, Canada",
			Address:     nominatim.Address{Town: "London", State: "Ontario", Country: "Canada", CountryCode: "ca"},
		},
		{
			PlaceID:     3,
			Lat:         "n/a",
			Lon:         "0",
			DisplayName: "Broken",
		},
		{
			PlaceID:     4,
			Lat:         "60.1",
			Lon:         "10.2",
			DisplayName: "Londonderry Farm, Nowhere",
			Address:     nominatim.Address{Country: "Londonderry Farm", CountryCode: "xyz"},
		},
	}
}

func TestResolver_Search_MapsCandidates(t *testing.T) {
	searcher := &fakeSearcher{places: londonPlaces()}
	r := NewResolver(searcher, nil, berlinLocator, ResolverOptions{})

	items := r.Search(context.Background(), "  London ")
	require.Len(t, items, 3)

	uk := items[0]
	assert.Equal(t, "1", uk.ID)
	assert.Equal(t, "London", uk.City)
	assert.Equal(t, "GB", *uk.Nation)
	assert.Equal(t, 51.5073, uk.Lat)
	assert.Equal(t, "Europe/Berlin", *uk.TZ)
	assert.Equal(t, "London, England, United Kingdom", uk.DisplayName)

	ca := items[1]
	assert.Equal(t, "London", ca.City)
	assert.Nil(t, ca.TZ, "locator failure leaves tz null")

	farm := items[2]
	assert.Equal(t, "Londonderry Farm", farm.City)
	assert.Nil(t, farm.Nation)
	assert.Equal(t, "Londonderry Farm", farm.DisplayName)
}

func TestResolver_Search_ShortQuery(t *testing.T) {
	searcher := &fakeSearcher{places: londonPlaces()}
	r := NewResolver(searcher, nil, berlinLocator, ResolverOptions{})

	assert.Empty(t, r.Search(context.Background(), "L"))
	assert.Empty(t, r.Search(context.Background(), "  "))
	assert.NotNil(t, r.Search(context.Background(), "Ж"))
	assert.Equal(t, int32(0), searcher.calls.Load())
}

func TestResolver_Search_SingleLookupPerDistinctQuery(t *testing.T) {
	searcher := &fakeSearcher{places: londonPlaces()}
	r := NewResolver(searcher, nil, berlinLocator, ResolverOptions{})

	first := r.Search(context.Background(), "London")
	second := r.Search(context.Background(), "london")
	third := r.Search(context.Background(), "LONDON  ")

	assert.Equal(t, first, second)
	assert.Equal(t, first, third)
	assert.Equal(t, int32(1), searcher.calls.Load())
}

func TestResolver_Search_CollapsesConcurrentQueries(t *testing.T) {
	searcher := &fakeSearcher{places: londonPlaces(), delay: 50 * time.Millisecond}
	r := NewResolver(searcher, nil, berlinLocator, ResolverOptions{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Len(t, r.Search(context.Background(), "London"), 3)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), searcher.calls.Load())
}

func TestResolver_Search_FailuresYieldEmptyAndAreNotCached(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("connection refused")}
	r := NewResolver(searcher, nil, berlinLocator, ResolverOptions{})

	items := r.Search(context.Background(), "London")
	assert.NotNil(t, items)
	assert.Empty(t, items)

	searcher.err = nil
	searcher.places = londonPlaces()
	assert.Len(t, r.Search(context.Background(), "London"), 3)
	assert.Equal(t, int32(2), searcher.calls.Load())
}

func TestResolver_Search_Timeout(t *testing.T) {
	searcher := &fakeSearcher{places: londonPlaces(), delay: time.Second}
	r := NewResolver(searcher, nil, berlinLocator, ResolverOptions{Timeout: 20 * time.Millisecond})

	start := time.Now()
	items := r.Search(context.Background(), "London")
	assert.Empty(t, items)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestMemoryCache_Expires(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(context.Background(), "k", nil))
	_, ok, _ := c.Get(context.Background(), "k")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = c.Get(context.Background(), "k")
	assert.False(t, ok)
}
