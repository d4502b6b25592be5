package http

import (
	"encoding/json"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"protpred/endpoint"
	"protpred/predictor"
)

const defaultSequence = "MKKLLLLLLLLLALALALAAAGAGA"

var formTemplate = template.Must(template.New("form").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Protein Property Predictor</title>
<style>
body { font-family: sans-serif; max-width: 48rem; margin: 2rem auto; }
textarea { width: 100%; }
pre { background: #f4f4f4; padding: 1rem; }
</style>
</head>
<body>
<h1>Protein Property Predictor</h1>
<form method="post" action="/">
<label for="sequence">Amino acid sequence</label>
<textarea id="sequence" name="sequence" rows="6">{{.Sequence}}</textarea>
<label for="mode">Mode</label>
<select id="mode" name="mode">
{{range .Modes}}<option value="{{.}}"{{if eq . $.Mode}} selected{{end}}>{{.}}</option>
{{end}}</select>
<button type="submit">Predict</button>
</form>
{{if .Output}}<h2>Result</h2>
<pre>{{.Output}}</pre>{{end}}
</body>
</html>
`))

type formView struct {
	Sequence string
	Mode     string
	Modes    []string
	Output   string
}

// handleForm renders the form. On POST it runs the prediction and shows the
// raw result JSON below it.
func (a *API) handleForm(w http.ResponseWriter, r *http.Request) {
	view := formView{
		Sequence: defaultSequence,
		Mode:     predictor.ModeAuto,
		Modes:    []string{predictor.ModeAuto, predictor.ModeML, predictor.ModeRule},
	}

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form: "+err.Error(), http.StatusBadRequest)
			return
		}
		view.Sequence = r.PostFormValue("sequence")
		if mode := r.PostFormValue("mode"); mode != "" {
			view.Mode = mode
		}

		resp := a.invoke(transportForm, endpoint.Request{Sequence: view.Sequence, Mode: view.Mode})
		var payload interface{} = resp
		if resp.Error == "" {
			payload = resp.Result
		}
		out, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			a.logger.Error("failed to encode form result", zap.Error(err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		view.Output = string(out)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := formTemplate.Execute(w, view); err != nil {
		a.logger.Error("failed to render form", zap.Error(err))
	}
}
