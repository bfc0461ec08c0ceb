package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/natalis-app/natalis-backend/internal/charts/domain"
)

type upperSanitizer struct{}

func (upperSanitizer) Sanitize(s string) string { return strings.ToUpper(s) }

type failingLoader struct{}

func (failingLoader) Load(context.Context, string) (*domain.Artifact, error) {
	return nil, errors.New("db down")
}

func TestReader_Chart(t *testing.T) {
	store := newMemArtifacts()
	r := NewReader(store, upperSanitizer{})
	ctx := context.Background()

	view, err := r.Chart(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, view.Status)
	assert.Nil(t, view.ChartSVG)

	require.NoError(t, store.Save(ctx, &domain.Artifact{ProfileID: "p-1", Signature: "s", Debug: []byte(`{}`)}))
	view, err = r.Chart(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, view.Status)

	markup := "<svg>x</svg>"
	require.NoError(t, store.Save(ctx, &domain.Artifact{ProfileID: "p-1", Signature: "s", Markup: &markup}))
	view, err = r.Chart(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, StatusReady, view.Status)
	assert.Equal(t, "<SVG>X</SVG>", *view.ChartSVG)

	_, err = NewReader(failingLoader{}, upperSanitizer{}).Chart(ctx, "p-1")
	assert.Error(t, err)
}
