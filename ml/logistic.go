package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"
)

var ErrSingleClass = errors.New("training labels must contain both classes")

// LogisticRegression is a binary L2-regularised logistic model. The intercept
// is fit as an extra constant feature and is penalised together with the
// weights, matching liblinear.
type LogisticRegression struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	C            float64   `json:"c"`
	FeatureNames []string  `json:"feature_names"`
	NTermWindow  int       `json:"nterm_window"`
	Iterations   int       `json:"iterations"`

	MaxIter int     `json:"-"`
	Tol     float64 `json:"-"`
}

type logisticArtifact struct {
	ModelType string `json:"model_type"`
	*LogisticRegression
}

func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{
		C:            1.0,
		FeatureNames: FeatureNames(),
		NTermWindow:  TrainingNTermWindow,
		MaxIter:      100,
		Tol:          1e-10,
	}
}

// Train fits the model with Newton's method on
//
//	0.5*||w||^2 + C * sum_i log(1 + exp(-y_i * w.x_i))
//
// where x_i carries a trailing 1 for the intercept and y_i is in {-1, +1}.
func (lr *LogisticRegression) Train(features [][]float64, labels []int) error {
	if len(features) == 0 || len(labels) == 0 {
		return errors.New("features or labels empty")
	}
	if len(features) != len(labels) {
		return errors.New("features and labels size mismatch")
	}
	if lr.C <= 0 {
		lr.C = 1.0
	}
	if lr.MaxIter <= 0 {
		lr.MaxIter = 100
	}
	if lr.Tol <= 0 {
		lr.Tol = 1e-10
	}

	n := len(features)
	d := len(features[0])
	x := mat.NewDense(n, d+1, nil)
	y := make([]float64, n)
	var positives int
	for i, row := range features {
		if len(row) != d {
			return fmt.Errorf("row %d: %w", i, ErrFeatureMismatch)
		}
		for j, v := range row {
			x.Set(i, j, v)
		}
		x.Set(i, d, 1)
		switch labels[i] {
		case 1:
			y[i] = 1
			positives++
		case 0:
			y[i] = -1
		default:
			return fmt.Errorf("row %d: label %d is not binary", i, labels[i])
		}
	}
	if positives == 0 || positives == n {
		return ErrSingleClass
	}

	w := mat.NewVecDense(d+1, nil)
	z := mat.NewVecDense(n, nil)
	grad := mat.NewVecDense(d+1, nil)
	step := mat.NewVecDense(d+1, nil)
	trial := mat.NewVecDense(d+1, nil)
	hess := mat.NewSymDense(d+1, nil)
	var chol mat.Cholesky

	objective := func(w *mat.VecDense) float64 {
		z.MulVec(x, w)
		loss := 0.5 * mat.Dot(w, w)
		for i := 0; i < n; i++ {
			loss += lr.C * logLoss(y[i]*z.AtVec(i))
		}
		return loss
	}

	current := objective(w)
	iter := 0
	for ; iter < lr.MaxIter; iter++ {
		// z holds x*w from the last objective evaluation.
		residual := mat.NewVecDense(n, nil)
		hess.Zero()
		for i := 0; i < n; i++ {
			p := sigmoid(z.AtVec(i))
			residual.SetVec(i, lr.C*(sigmoid(y[i]*z.AtVec(i))-1)*y[i])
			weight := lr.C * p * (1 - p)
			for a := 0; a <= d; a++ {
				xa := x.At(i, a)
				for b := a; b <= d; b++ {
					hess.SetSym(a, b, hess.At(a, b)+weight*xa*x.At(i, b))
				}
			}
		}
		for a := 0; a <= d; a++ {
			hess.SetSym(a, a, hess.At(a, a)+1)
		}
		grad.MulVec(x.T(), residual)
		grad.AddVec(grad, w)

		if mat.Norm(grad, math.Inf(1)) < lr.Tol {
			break
		}
		if ok := chol.Factorize(hess); !ok {
			return errors.New("hessian is not positive definite")
		}
		if err := chol.SolveVecTo(step, grad); err != nil {
			return fmt.Errorf("solve newton step: %w", err)
		}
		step.ScaleVec(-1, step)

		slope := mat.Dot(grad, step)
		alpha := 1.0
		accepted := false
		for k := 0; k < 50; k++ {
			trial.AddScaledVec(w, alpha, step)
			next := objective(trial)
			if next <= current+1e-4*alpha*slope {
				w.CopyVec(trial)
				current = next
				accepted = true
				break
			}
			alpha /= 2
		}
		if !accepted {
			z.MulVec(x, w)
			break
		}
		if alpha*mat.Norm(step, math.Inf(1)) < lr.Tol {
			iter++
			break
		}
	}

	lr.Coefficients = make([]float64, d)
	for j := 0; j < d; j++ {
		lr.Coefficients[j] = w.AtVec(j)
	}
	lr.Intercept = w.AtVec(d)
	lr.Iterations = iter
	if len(lr.FeatureNames) != d {
		lr.FeatureNames = nil
	}
	return nil
}

// PredictProba returns the probability of the positive (membrane-bound) class.
func (lr *LogisticRegression) PredictProba(features []float64) (float64, error) {
	if len(lr.Coefficients) == 0 {
		return 0, ErrNotTrained
	}
	if len(features) != len(lr.Coefficients) {
		return 0, fmt.Errorf("%w: model expects %d features, got %d",
			ErrFeatureMismatch, len(lr.Coefficients), len(features))
	}
	z := lr.Intercept
	for i, v := range features {
		z += lr.Coefficients[i] * v
	}
	p := sigmoid(z)
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, fmt.Errorf("non-finite probability for decision value %v", z)
	}
	return p, nil
}

func (lr *LogisticRegression) Predict(features []float64) (int, float64, error) {
	p, err := lr.PredictProba(features)
	if err != nil {
		return 0, 0, err
	}
	if p >= 0.5 {
		return 1, p, nil
	}
	return 0, 1 - p, nil
}

func (lr *LogisticRegression) Save(path string) error {
	if len(lr.Coefficients) == 0 {
		return ErrNotTrained
	}
	payload, err := json.MarshalIndent(logisticArtifact{
		ModelType:          ModelTypeLogisticRegression,
		LogisticRegression: lr,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (lr *LogisticRegression) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	loaded := NewLogisticRegression()
	artifact := logisticArtifact{LogisticRegression: loaded}
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return err
	}
	if artifact.ModelType != "" && artifact.ModelType != ModelTypeLogisticRegression {
		return fmt.Errorf("artifact holds %q, not %q", artifact.ModelType, ModelTypeLogisticRegression)
	}
	if len(loaded.Coefficients) == 0 {
		return ErrNotTrained
	}
	if len(loaded.FeatureNames) != 0 && len(loaded.FeatureNames) != len(loaded.Coefficients) {
		return fmt.Errorf("%w: %d feature names for %d coefficients",
			ErrFeatureMismatch, len(loaded.FeatureNames), len(loaded.Coefficients))
	}
	*lr = *loaded
	return nil
}

func (lr *LogisticRegression) Info() ModelInfo {
	return ModelInfo{
		Type:         ModelTypeLogisticRegression,
		FeatureNames: append([]string(nil), lr.FeatureNames...),
		Coefficients: append([]float64(nil), lr.Coefficients...),
		Intercept:    lr.Intercept,
		NTermWindow:  lr.NTermWindow,
	}
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// logLoss is log(1 + exp(-m)) without overflow.
func logLoss(m float64) float64 {
	if m > 0 {
		return math.Log1p(math.Exp(-m))
	}
	return -m + math.Log1p(math.Exp(m))
}
