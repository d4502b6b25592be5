// Package endpoint is the request/response entrypoint used by the HTTP,
// websocket and CLI adapters.
package endpoint

import (
	"fmt"
	"runtime/debug"

	"protpred/predictor"
)

type Predictor interface {
	Predict(seq, mode string) predictor.Result
}

// Request mirrors the JSON body {sequence, mode?}.
type Request struct {
	Sequence string `json:"sequence"`
	Mode     string `json:"mode,omitempty"`
}

// Response carries either Result or, when the call itself blew up, Error
// and Trace.
type Response struct {
	Result predictor.Result `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
	Trace  string           `json:"trace,omitempty"`
}

// Invoke runs one prediction. Panics escaping p are converted to an
// error response with the goroutine stack as trace.
func Invoke(p Predictor, req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			resp = Response{
				Error: fmt.Sprint(r),
				Trace: string(debug.Stack()),
			}
		}
	}()
	mode := req.Mode
	if mode == "" {
		mode = predictor.ModeAuto
	}
	return Response{Result: p.Predict(req.Sequence, mode)}
}
