package endpoint

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protpred/predictor"
)

type stubPredictor struct {
	gotMode string
	panic   any
}

func (s *stubPredictor) Predict(seq, mode string) predictor.Result {
	s.gotMode = mode
	if s.panic != nil {
		panic(s.panic)
	}
	return predictor.Prediction{Label: "soluble", Confidence: 0.1, Mode: mode}
}

func TestInvoke(t *testing.T) {
	stub := &stubPredictor{}

	resp := Invoke(stub, Request{Sequence: "MKV"})
	assert.Equal(t, "auto", stub.gotMode)
	assert.Equal(t, predictor.Prediction{Label: "soluble", Confidence: 0.1, Mode: "auto"}, resp.Result)
	assert.Empty(t, resp.Error)

	Invoke(stub, Request{Sequence: "MKV", Mode: "rule"})
	assert.Equal(t, "rule", stub.gotMode)
}

func TestInvokeRecoversPanic(t *testing.T) {
	resp := Invoke(&stubPredictor{panic: "nil map"}, Request{Sequence: "MKV"})

	assert.Nil(t, resp.Result)
	assert.Equal(t, "nil map", resp.Error)
	assert.Contains(t, resp.Trace, "goroutine")
	assert.Contains(t, resp.Trace, "endpoint.Invoke")
}

func TestResponseJSON(t *testing.T) {
	svc, err := predictor.New(nil, predictor.Options{})
	require.NoError(t, err)

	payload, err := json.Marshal(Invoke(svc, Request{Sequence: "SSSSSSSSSS", Mode: "rule"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"result": {
		"prediction": "soluble",
		"confidence": 0,
		"features": {"length": 10, "hydrophobic_fraction": 0, "nterm_hydrophobic_fraction": 0},
		"mode": "rule-based"
	}}`, string(payload))

	payload, err = json.Marshal(Invoke(svc, Request{Sequence: " "}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"result": {"error": "Empty sequence."}}`, string(payload))

	payload, err = json.Marshal(Invoke(&stubPredictor{panic: "boom"}, Request{Sequence: "A"}))
	require.NoError(t, err)
	var decoded map[string]string
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "boom", decoded["error"])
	assert.NotEmpty(t, decoded["trace"])
	assert.NotContains(t, decoded, "result")
}
