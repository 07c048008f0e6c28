package models

import "time"

// PredictRequest is the body accepted by POST /predict
type PredictRequest struct {
	Text *string `json:"text"`
}

// BatchPredictRequest is the body accepted by POST /predict/batch
type BatchPredictRequest struct {
	Texts []string `json:"texts"`
}

// TopPrediction is one entry of the ranked probability distribution
type TopPrediction struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// PredictionResult is the outcome of classifying a single text.
// Confidence and TopPredictions are nil when the model has no probability estimates;
// they serialize as JSON null, never as zero.
type PredictionResult struct {
	Category         string          `json:"category"`
	Confidence       *float64        `json:"confidence"`
	TopPredictions   []TopPrediction `json:"top_predictions"`
	Model            string          `json:"model"`
	PreprocessedText string          `json:"preprocessed_text"`
	WordCount        int             `json:"word_count"`
}

// BatchItem holds either a result or the error message for one batch entry
type BatchItem struct {
	Index  int               `json:"index"`
	Result *PredictionResult `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// BatchPredictResponse is returned by POST /predict/batch
type BatchPredictResponse struct {
	Results []BatchItem `json:"results"`
	Total   int         `json:"total"`
	Failed  int         `json:"failed"`
}

// ComparisonRow is one row of the training-time model comparison table,
// keyed by column header.
type ComparisonRow map[string]interface{}

// Stats is the descriptive project summary served by /api/stats
type Stats struct {
	Dataset       string   `json:"dataset"`
	TotalSamples  string   `json:"total_samples"`
	Categories    int      `json:"categories"`
	Features      string   `json:"features"`
	BestModel     string   `json:"best_model"`
	Preprocessing []string `json:"preprocessing"`
	ModelsTrained int      `json:"models_trained"`
}

// ModelInfo describes the loaded model bundle
type ModelInfo struct {
	Name                string    `json:"name"`
	ClassifierType      string    `json:"classifier_type"`
	Classes             []string  `json:"classes"`
	NumFeatures         int       `json:"num_features"`
	SupportsProbability bool      `json:"supports_probability"`
	StopwordCount       int       `json:"stopword_count"`
	LoadedAt            time.Time `json:"loaded_at"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status string `json:"status"`
	Model  string `json:"model"`
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
}

// StopwordSetInfo describes a cached stopword list
type StopwordSetInfo struct {
	Language  string    `json:"language" db:"language"`
	Source    string    `json:"source" db:"source"`
	WordCount int       `json:"word_count" db:"word_count"`
	FetchedAt time.Time `json:"fetched_at" db:"fetched_at"`
}
