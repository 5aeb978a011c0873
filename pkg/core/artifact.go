package core

// IngestionArtifact names the row-level outputs of the ingestion stage.
type IngestionArtifact struct {
	FeatureStorePath string `json:"feature_store_path" yaml:"feature_store_path"`
	TrainPath        string `json:"train_path" yaml:"train_path"`
	TestPath         string `json:"test_path" yaml:"test_path"`
	Rows             int    `json:"rows" yaml:"rows"`
	TrainRows        int    `json:"train_rows" yaml:"train_rows"`
	TestRows         int    `json:"test_rows" yaml:"test_rows"`
}

// ValidationArtifact names the outputs of the validation stage.
// Validation is all-or-nothing, so the invalid paths are empty unless a
// future policy splits out invalid rows.
type ValidationArtifact struct {
	ValidTrainPath   string `json:"valid_train_path" yaml:"valid_train_path"`
	ValidTestPath    string `json:"valid_test_path" yaml:"valid_test_path"`
	InvalidTrainPath string `json:"invalid_train_path,omitempty" yaml:"invalid_train_path,omitempty"`
	InvalidTestPath  string `json:"invalid_test_path,omitempty" yaml:"invalid_test_path,omitempty"`
	DriftReportPath  string `json:"drift_report_path" yaml:"drift_report_path"`
	DriftDetected    bool   `json:"drift_detected" yaml:"drift_detected"`
}

// TransformationArtifact names the fitted preprocessor and the numeric matrices.
type TransformationArtifact struct {
	TransformedObjectPath string `json:"transformed_object_path" yaml:"transformed_object_path"`
	TransformedTrainPath  string `json:"transformed_train_path" yaml:"transformed_train_path"`
	TransformedTestPath   string `json:"transformed_test_path" yaml:"transformed_test_path"`
}

// ModelTrainerArtifact is the terminal artifact of a pipeline run.
type ModelTrainerArtifact struct {
	// TrainedModelPath holds the combined preprocessor + model estimator.
	TrainedModelPath string `json:"trained_model_path" yaml:"trained_model_path"`
	// ModelPath and PreprocessorPath are the serving copies of each half.
	ModelPath        string                `json:"model_path" yaml:"model_path"`
	PreprocessorPath string                `json:"preprocessor_path" yaml:"preprocessor_path"`
	BestModel        string                `json:"best_model" yaml:"best_model"`
	BestParams       map[string]any        `json:"best_params,omitempty" yaml:"best_params,omitempty"`
	TrainMetrics     ClassificationMetrics `json:"train_metrics" yaml:"train_metrics"`
	TestMetrics      ClassificationMetrics `json:"test_metrics" yaml:"test_metrics"`
	Candidates       []CandidateResult     `json:"candidates" yaml:"candidates"`
}
