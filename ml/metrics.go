package ml

import (
	"errors"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

func Accuracy(labels, predicted []int) (float64, error) {
	if len(labels) == 0 {
		return 0, errors.New("labels empty")
	}
	if len(labels) != len(predicted) {
		return 0, errors.New("labels/predictions length mismatch")
	}
	correct := 0
	for i, label := range labels {
		if label == predicted[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(labels)), nil
}

// ROCAUC is the area under the ROC curve of scores against binary labels.
// Tied scores contribute a diagonal segment.
func ROCAUC(labels []int, scores []float64) (float64, error) {
	if len(labels) != len(scores) {
		return 0, errors.New("labels/scores length mismatch")
	}
	y := append([]float64(nil), scores...)
	classes := make([]bool, len(labels))
	var positives int
	for i, label := range labels {
		classes[i] = label == 1
		if classes[i] {
			positives++
		}
	}
	if positives == 0 || positives == len(labels) {
		return 0, ErrSingleClass
	}
	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}

func Evaluate(model MLModel, features [][]float64, labels []int) (accuracy, auc float64, err error) {
	predicted := make([]int, len(features))
	scores := make([]float64, len(features))
	for i, feature := range features {
		label, _, err := model.Predict(feature)
		if err != nil {
			return 0, 0, err
		}
		predicted[i] = label
		if scores[i], err = model.PredictProba(feature); err != nil {
			return 0, 0, err
		}
	}
	if accuracy, err = Accuracy(labels, predicted); err != nil {
		return 0, 0, err
	}
	if auc, err = ROCAUC(labels, scores); err != nil {
		return 0, 0, err
	}
	return accuracy, auc, nil
}
