package ml

import "errors"

var (
	ErrNotTrained      = errors.New("model not trained")
	ErrFeatureMismatch = errors.New("feature vector length mismatch")
)

// Label names for the positive (1) and negative (0) class.
const (
	LabelMembraneBound = "membrane-bound"
	LabelSoluble       = "soluble"
)

// Classifier is the read-only view inference needs.
type Classifier interface {
	PredictProba(features []float64) (float64, error)
}

type MLModel interface {
	Classifier
	Train(features [][]float64, labels []int) error
	Predict(features []float64) (int, float64, error)
	Save(path string) error
	Load(path string) error
	Info() ModelInfo
}

type ModelInfo struct {
	Type         string    `json:"model_type"`
	FeatureNames []string  `json:"feature_names"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	NTermWindow  int       `json:"nterm_window"`
}
