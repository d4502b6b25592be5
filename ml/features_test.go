package ml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	assert.Equal(t, "MKLV", Clean(" mk\nl\r\nv "))
	assert.Equal(t, "", Clean(" \n\r "))
}

func TestFeaturize(t *testing.T) {
	extractor := NewExtractor(InferenceNTermWindow)

	vector, summary := extractor.Featurize("MKKLLLLLLLLLALALALAAAGAGA")
	assert.InDelta(t, 0.84, vector[0], 1e-12)
	assert.InDelta(t, 0.9, vector[1], 1e-12)
	assert.Equal(t, 25.0, vector[2])
	assert.Equal(t, FeatureSummary{
		Length:                   25,
		HydrophobicFraction:      0.84,
		NTermHydrophobicFraction: 0.9,
	}, summary)
}

func TestFeaturizeEmpty(t *testing.T) {
	vector, summary := NewExtractor(0).Featurize("")
	assert.Equal(t, FeatureVector{0, 0, 0}, vector)
	assert.Equal(t, 0, summary.Length)
}

func TestFeaturizeWindow(t *testing.T) {
	seq := strings.Repeat("L", 10) + strings.Repeat("S", 10)

	inference, _ := NewExtractor(InferenceNTermWindow).Featurize(seq)
	training, _ := NewExtractor(TrainingNTermWindow).Featurize(seq)

	assert.Equal(t, 0.5, inference[1])
	assert.Equal(t, 1.0, training[1])
	assert.Equal(t, inference[0], training[0])
}

func TestFractionsBounded(t *testing.T) {
	inputs := []string{"", "A", "ss", "WWWW", "mkvlaa\ngg", "XXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXX", "αβγ"}
	for _, input := range inputs {
		vector, summary := NewExtractor(InferenceNTermWindow).Featurize(input)
		require.GreaterOrEqual(t, vector[0], 0.0, input)
		require.LessOrEqual(t, vector[0], 1.0, input)
		require.GreaterOrEqual(t, vector[1], 0.0, input)
		require.LessOrEqual(t, vector[1], 1.0, input)
		assert.Equal(t, float64(summary.Length), vector[2], input)
	}
}

func TestRound3(t *testing.T) {
	assert.Equal(t, 0.333, Round3(1.0/3))
	assert.Equal(t, 0.667, Round3(2.0/3))
	assert.Equal(t, 1.0, Round3(0.9996))
}

func TestFeatureNamesOrder(t *testing.T) {
	assert.Equal(t, []string{"hydrophobic_fraction", "nterm_hydrophobic_fraction", "length"}, FeatureNames())
}
