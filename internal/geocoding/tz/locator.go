// Package tz maps coordinates to IANA timezone names.
package tz

import (
	"errors"
	"fmt"
	"math"

	"github.com/ringsaturn/tzf"
)

var ErrNoTimezone = errors.New("no timezone for coordinates")

// Locator derives a timezone from coordinates. Implementations must be deterministic.
type Locator interface {
	Locate(lat, lng float64) (string, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(lat, lng float64) (string, error)

func (f LocatorFunc) Locate(lat, lng float64) (string, error) {
	return f(lat, lng)
}

// FinderLocator uses the polygon data embedded in tzf.
type FinderLocator struct {
	finder tzf.F
}

func NewFinderLocator() (*FinderLocator, error) {
	finder, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("load timezone finder: %w", err)
	}
	return &FinderLocator{finder: finder}, nil
}

func (l *FinderLocator) Locate(lat, lng float64) (string, error) {
	if math.IsNaN(lat) || math.IsNaN(lng) || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return "", fmt.Errorf("%w: %v,%v out of range", ErrNoTimezone, lat, lng)
	}
	name := l.finder.GetTimezoneName(lng, lat)
	if name == "" {
		return "", fmt.Errorf("%w: %v,%v", ErrNoTimezone, lat, lng)
	}
	return name, nil
}
