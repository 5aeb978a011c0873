package core

// Confusion holds binary confusion counts relative to the positive label.
type Confusion struct {
	TruePositive  int `json:"true_positive" yaml:"true_positive"`
	TrueNegative  int `json:"true_negative" yaml:"true_negative"`
	FalsePositive int `json:"false_positive" yaml:"false_positive"`
	FalseNegative int `json:"false_negative" yaml:"false_negative"`
}

// ClassificationMetrics summarises predictions against true labels.
// Precision, recall and F1 are support-weighted averages over classes.
type ClassificationMetrics struct {
	Accuracy  float64   `json:"accuracy" yaml:"accuracy"`
	Precision float64   `json:"precision" yaml:"precision"`
	Recall    float64   `json:"recall" yaml:"recall"`
	F1Score   float64   `json:"f1_score" yaml:"f1_score"`
	Confusion Confusion `json:"confusion" yaml:"confusion"`
}

// CandidateResult records the outcome of one model family during selection.
type CandidateResult struct {
	Name        string                `json:"name" yaml:"name"`
	Params      map[string]any        `json:"params,omitempty" yaml:"params,omitempty"`
	SearchScore float64               `json:"search_score" yaml:"search_score"`
	Evaluated   int                   `json:"evaluated" yaml:"evaluated"`
	TestMetrics ClassificationMetrics `json:"test_metrics" yaml:"test_metrics"`
	Error       string                `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the candidate was excluded from selection.
func (r CandidateResult) Failed() bool {
	return r.Error != ""
}
