package predictor

import "protpred/ml"

// Result is either a Prediction or a Failure. Both marshal to the shapes
// callers already depend on: {prediction, confidence, features, mode} and
// {error}.
type Result interface {
	isResult()
}

type Prediction struct {
	Label      string            `json:"prediction"`
	Confidence float64           `json:"confidence"`
	Features   ml.FeatureSummary `json:"features"`
	Mode       string            `json:"mode"`
}

type Failure struct {
	Error string `json:"error"`
}

func (Prediction) isResult() {}
func (Failure) isResult()    {}
