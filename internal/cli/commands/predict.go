package commands

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/leapstack-labs/leapml/internal/frame"
	"github.com/leapstack-labs/leapml/internal/ml"
	"github.com/leapstack-labs/leapml/pkg/core"
	"github.com/spf13/cobra"
)

// PredictedColumn is appended to the input table by the predict command.
const PredictedColumn = "predicted_column"

// PredictOptions holds options for the predict command.
type PredictOptions struct {
	ModelDir   string
	OutputFile string
}

// NewPredictCommand creates the predict command.
func NewPredictCommand() *cobra.Command {
	opts := &PredictOptions{}

	cmd := &cobra.Command{
		Use:   "predict <input.csv>",
		Short: "Predict labels for a CSV file with the served model",
		Long: `Load the preprocessor and model from the namespace's serving directory, apply the
preprocessor and then the model to every row of the input CSV, and write the
rows back with a predicted_column appended.

The input must contain every feature column the model was trained on; other
columns are carried through unchanged.`,
		Example: `  # Predict into prediction_output/output.csv
  leapml predict batch.csv

  # Use a specific model directory and output path
  leapml predict batch.csv --model-dir final_model/phishing --output-file scored.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.ModelDir, "model-dir", "", "Directory holding model.gob and preprocessor.gob (default: <final_model_dir>/<namespace>)")
	cmd.Flags().StringVar(&opts.OutputFile, "output-file", "", "Output CSV (default: prediction_output/output.csv)")

	return cmd
}

func runPredict(cmd *cobra.Command, input string, opts *PredictOptions) error {
	cc := NewCommandContext(cmd)
	cfg := cc.Cfg

	modelDir := opts.ModelDir
	if modelDir == "" {
		modelDir = core.ServingDir(cfg.FinalDir, cfg.Namespace)
	}
	outFile := opts.OutputFile
	if outFile == "" {
		outFile = filepath.Join(cfg.ProjectRoot, "prediction_output", "output.csv")
	}

	layout := core.Layout{FinalDir: modelDir}
	est, err := ml.LoadServing(layout.FinalPreprocessor(), layout.FinalModel())
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}

	t, err := frame.ReadCSV(input)
	if err != nil {
		return err
	}

	if err := Predict(est, t, invertLabelMap(cfg.Transform.LabelMap)); err != nil {
		return err
	}
	if err := frame.WriteCSV(outFile, t); err != nil {
		return err
	}

	cc.Logger.Info("predictions written", "rows", t.Len(), "path", outFile)
	cc.Renderer.Success(fmt.Sprintf("Predicted %d rows", t.Len()))
	cc.Renderer.Muted("Output: " + outFile)
	return nil
}

// Predict classifies every row of t with est and appends PredictedColumn.
// labels maps predicted values back to their original spelling; values
// without an entry are formatted as numbers.
func Predict(est *ml.Estimator, t *frame.Table, labels map[float64]string) error {
	columns := est.Columns()
	x := make([][]float64, t.Len())
	for i := range x {
		x[i] = make([]float64, len(columns))
	}
	for j, c := range columns {
		vals, err := t.Float64s(c)
		if err != nil {
			return fmt.Errorf("invalid input: %w", err)
		}
		for i, v := range vals {
			x[i][j] = v
		}
	}

	pred, err := est.Predict(x)
	if err != nil {
		return fmt.Errorf("prediction failed: %w", err)
	}

	t.Columns = append(t.Columns, PredictedColumn)
	for i, p := range pred {
		label, ok := labels[p]
		if !ok {
			label = strconv.FormatFloat(p, 'f', -1, 64)
		}
		t.Rows[i] = append(t.Rows[i], label)
	}
	return nil
}

// invertLabelMap turns a training label map ("-1" -> 0) into the mapping
// from predicted values back to the source labels.
func invertLabelMap(m map[string]float64) map[float64]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[float64]string, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}
