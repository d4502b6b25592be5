package ml

import "unicode/utf8"

// Hydrophobic residues used as the chemical proxy feature.
const HydrophobicResidues = "AILMFWVY"

const (
	// InferenceNTermWindow is the N-terminal window used when serving.
	InferenceNTermWindow = 20
	// TrainingNTermWindow is the N-terminal window used when fitting. It
	// differs from InferenceNTermWindow; models record the window they were
	// fit with so the mismatch is visible at load time.
	TrainingNTermWindow = 10
)

type FeatureVector [3]float64

type FeatureSummary struct {
	Length                   int     `json:"length"`
	HydrophobicFraction      float64 `json:"hydrophobic_fraction"`
	NTermHydrophobicFraction float64 `json:"nterm_hydrophobic_fraction"`
}

type Extractor struct {
	NTermWindow int
}

func NewExtractor(ntermWindow int) Extractor {
	if ntermWindow <= 0 {
		ntermWindow = InferenceNTermWindow
	}
	return Extractor{NTermWindow: ntermWindow}
}

// Featurize cleans seq and returns the vector in FeatureNames order plus a
// rounded, human-readable summary.
func (e Extractor) Featurize(seq string) (FeatureVector, FeatureSummary) {
	seq = Clean(seq)
	hyd := HydrophobicFraction(seq)
	nterm := NTermHydrophobicFraction(seq, e.NTermWindow)
	length := utf8.RuneCountInString(seq)

	vector := FeatureVector{hyd, nterm, float64(length)}
	summary := FeatureSummary{
		Length:                   length,
		HydrophobicFraction:      Round3(hyd),
		NTermHydrophobicFraction: Round3(nterm),
	}
	return vector, summary
}

func (v FeatureVector) Slice() []float64 {
	return []float64{v[0], v[1], v[2]}
}

func FeatureNames() []string {
	return []string{
		"hydrophobic_fraction",
		"nterm_hydrophobic_fraction",
		"length",
	}
}
