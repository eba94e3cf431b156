package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishicodesforfun/menta-question/internal/domain"
)

var stressBands = []domain.Band{
	{Label: "Low", Min: 0, Max: 13, Severity: 0},
	{Label: "Moderate", Min: 14, Max: 26, Severity: 1},
	{Label: "High", Min: 27, Max: 40, Severity: 2},
}

func TestClassify(t *testing.T) {
	tests := []struct {
		score float64
		label string
	}{
		{0, "Low"},
		{13, "Low"},
		{14, "Moderate"},
		{26, "Moderate"},
		{27, "High"},
		{40, "High"},
	}
	for _, tt := range tests {
		band, err := Classify(tt.score, stressBands)
		require.NoError(t, err)
		assert.Equal(t, tt.label, band.Label, "score %v", tt.score)
	}
}

func TestClassifyAverageAxis(t *testing.T) {
	bands := []domain.Band{
		{Label: "Low", Min: 1, Max: 2.99},
		{Label: "Moderate", Min: 3, Max: 4.99},
		{Label: "High", Min: 5, Max: 7},
	}

	band, err := Classify(domain.RoundHundredths(17.0/6.0), bands)
	require.NoError(t, err)
	assert.Equal(t, "Low", band.Label)

	band, err = Classify(2.99, bands)
	require.NoError(t, err)
	assert.Equal(t, "Low", band.Label)

	band, err = Classify(4.99, bands)
	require.NoError(t, err)
	assert.Equal(t, "Moderate", band.Label)
}

func TestClassifyMiss(t *testing.T) {
	_, err := Classify(41, stressBands)
	require.Error(t, err)

	var cfg *domain.ConfigError
	require.ErrorAs(t, err, &cfg)
	assert.Contains(t, cfg.Message, "41")

	_, err = Classify(2.5, []domain.Band{{Label: "a", Min: 0, Max: 2}, {Label: "b", Min: 3, Max: 4}})
	assert.Error(t, err)
}

func TestMustClassifyPanics(t *testing.T) {
	assert.Equal(t, "High", MustClassify("pss-10", 40, stressBands).Label)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		cfg, ok := r.(*domain.ConfigError)
		require.True(t, ok)
		assert.Equal(t, "pss-10", cfg.InstrumentID)
	}()
	MustClassify("pss-10", -1, stressBands)
}
