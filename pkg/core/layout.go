package core

import (
	"fmt"
	"path/filepath"
	"time"
)

// TimestampFormat names per-run artifact directories (MM_DD_YYYY_HH_MM_SS).
const TimestampFormat = "01_02_2006_15_04_05"

// Layout resolves the conventional artifact paths of one pipeline run.
// Root is unique per run and lives under the run's namespace; FinalDir is
// the namespace's serving directory and holds the copies of its latest
// successful run.
type Layout struct {
	Root     string
	FinalDir string
}

// NewLayout returns the base layout for a namespace's run started at ts:
// artifactsDir/<namespace>/<MM_DD_YYYY_HH_MM_SS> and finalDir/<namespace>.
func NewLayout(artifactsDir, finalDir, namespace string, ts time.Time) Layout {
	return Layout{
		Root:     filepath.Join(artifactsDir, namespace, ts.Format(TimestampFormat)),
		FinalDir: ServingDir(finalDir, namespace),
	}
}

// ServingDir is the directory holding a namespace's serving model.
func ServingDir(finalDir, namespace string) string {
	return filepath.Join(finalDir, namespace)
}

// Attempt returns the layout with "_<n>" appended to Root. Attempt(0) is l.
// Runs started within the same second take successive attempts.
func (l Layout) Attempt(n int) Layout {
	if n > 0 {
		l.Root = fmt.Sprintf("%s_%d", l.Root, n)
	}
	return l
}

func (l Layout) join(parts ...string) string {
	return filepath.Join(append([]string{l.Root}, parts...)...)
}

// FeatureStore is the cleaned snapshot of the source collection.
func (l Layout) FeatureStore() string {
	return l.join("data_ingestion", "feature_store", "data.csv")
}

// Train is the ingested train split.
func (l Layout) Train() string { return l.join("data_ingestion", "ingested", "train.csv") }

// Test is the ingested test split.
func (l Layout) Test() string { return l.join("data_ingestion", "ingested", "test.csv") }

// ValidTrain is the train split that passed validation.
func (l Layout) ValidTrain() string { return l.join("data_validation", "validated", "train.csv") }

// ValidTest is the test split that passed validation.
func (l Layout) ValidTest() string { return l.join("data_validation", "validated", "test.csv") }

// DriftReport is the YAML drift report.
func (l Layout) DriftReport() string {
	return l.join("data_validation", "drift_report", "report.yaml")
}

// TransformedObject is the fitted preprocessor.
func (l Layout) TransformedObject() string {
	return l.join("data_transformation", "transformed_object", "preprocessor.gob")
}

// TransformedTrain is the numeric train matrix.
func (l Layout) TransformedTrain() string {
	return l.join("data_transformation", "transformed", "train.gob")
}

// TransformedTest is the numeric test matrix.
func (l Layout) TransformedTest() string {
	return l.join("data_transformation", "transformed", "test.gob")
}

// TrainedModel is the combined preprocessor + model estimator.
func (l Layout) TrainedModel() string {
	return l.join("model_trainer", "trained_model", "model.gob")
}

// FinalModel is the serving copy of the bare model.
func (l Layout) FinalModel() string { return filepath.Join(l.FinalDir, "model.gob") }

// FinalPreprocessor is the serving copy of the preprocessor.
func (l Layout) FinalPreprocessor() string { return filepath.Join(l.FinalDir, "preprocessor.gob") }
