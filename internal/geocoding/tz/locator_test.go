package tz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinderLocator(t *testing.T) {
	loc, err := NewFinderLocator()
	require.NoError(t, err)

	name, err := loc.Locate(52.52, 13.405)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", name)

	again, err := loc.Locate(52.52, 13.405)
	require.NoError(t, err)
	assert.Equal(t, name, again)

	_, err = loc.Locate(120, 0)
	assert.True(t, errors.Is(err, ErrNoTimezone))
}

func TestLocatorFunc(t *testing.T) {
	var l Locator = LocatorFunc(func(lat, lng float64) (string, error) { return "UTC", nil })
	name, err := l.Locate(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "UTC", name)
}
