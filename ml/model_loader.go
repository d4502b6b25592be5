package ml

import (
	"errors"
	"fmt"
)

const ModelTypeLogisticRegression = "logistic_regression"

func NewModel(modelType string) (MLModel, error) {
	switch modelType {
	case "", ModelTypeLogisticRegression:
		return NewLogisticRegression(), nil
	default:
		return nil, errors.New("unsupported model type")
	}
}

func LoadModel(modelType, path string) (MLModel, error) {
	model, err := NewModel(modelType)
	if err != nil {
		return nil, err
	}
	if err := model.Load(path); err != nil {
		return nil, fmt.Errorf("load %s model from %s: %w", modelType, path, err)
	}
	return model, nil
}
