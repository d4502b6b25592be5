package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"protpred/endpoint"
	"protpred/ml"
	"protpred/predictor"
)

var (
	predictMode  string
	predictFasta string
)

// predictCmd runs the entrypoint locally, one JSON line per input.
var predictCmd = &cobra.Command{
	Use:     "predict [sequence...]",
	Short:   "Predict membrane-bound or soluble for sequences or a FASTA file",
	Example: "  protpred predict MKKLLLLLLLLLALALALAAAGAGA\n  protpred predict --mode rule --fasta proteins.fa",
	Aliases: []string{"classify"},
	RunE:    runPredict,
}

func init() {
	predictCmd.Flags().StringVarP(&predictMode, "mode", "m", predictor.ModeAuto, "prediction mode: auto, ml or rule")
	predictCmd.Flags().StringVarP(&predictFasta, "fasta", "f", "", "FASTA file; every record is predicted separately")
	rootCmd.AddCommand(predictCmd)
}

// predictLine is one output record. ID is the FASTA header when there is one.
type predictLine struct {
	ID string `json:"id,omitempty"`
	endpoint.Response
}

func runPredict(cmd *cobra.Command, args []string) error {
	inputs, err := collectInputs(args, predictFasta)
	if err != nil {
		return err
	}

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	svc, _, err := predictor.Load(cfg, logger)
	if err != nil {
		logger.Fatal("failed to load model", zap.Error(err))
	}
	return writePredictions(cmd.OutOrStdout(), svc, inputs, predictMode)
}

func collectInputs(args []string, fastaPath string) ([]ml.FastaRecord, error) {
	var inputs []ml.FastaRecord
	for _, seq := range args {
		inputs = append(inputs, ml.FastaRecord{Sequence: seq})
	}
	if fastaPath != "" {
		file, err := os.Open(fastaPath)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		records, err := ml.ParseFasta(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fastaPath, err)
		}
		inputs = append(inputs, records...)
	}
	if len(inputs) == 0 {
		return nil, errors.New("no sequences given: pass them as arguments or use --fasta")
	}
	return inputs, nil
}

func writePredictions(w io.Writer, p endpoint.Predictor, inputs []ml.FastaRecord, mode string) error {
	enc := json.NewEncoder(w)
	for _, in := range inputs {
		line := predictLine{
			ID:       in.Header,
			Response: endpoint.Invoke(p, endpoint.Request{Sequence: in.Sequence, Mode: mode}),
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	return nil
}
