// Package bundle loads the trained model artifacts once at startup.
package bundle

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"classifier-service/internal/config"
	"classifier-service/internal/ml"
	"classifier-service/internal/models"
)

// ErrArtifact marks a missing or corrupt model artifact. The server must not start.
var ErrArtifact = errors.New("model artifact error")

// Bundle is the process-wide model state. It is never mutated after construction
// and may be shared by any number of concurrent requests.
type Bundle struct {
	Classifier ml.Classifier
	Vectorizer ml.Vectorizer
	ModelName  string
	Comparison []models.ComparisonRow
	LoadedAt   time.Time
}

// New assembles a bundle from already-built components.
func New(classifier ml.Classifier, vectorizer ml.Vectorizer, modelName string, comparison []models.ComparisonRow) (*Bundle, error) {
	if classifier == nil || vectorizer == nil {
		return nil, fmt.Errorf("%w: classifier and vectorizer are required", ErrArtifact)
	}
	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		return nil, fmt.Errorf("%w: model name is empty", ErrArtifact)
	}
	if vectorizer.Dim() != classifier.NumFeatures() {
		return nil, fmt.Errorf("%w: vectorizer produces %d features, classifier expects %d",
			ErrArtifact, vectorizer.Dim(), classifier.NumFeatures())
	}
	if comparison == nil {
		comparison = []models.ComparisonRow{}
	}

	return &Bundle{
		Classifier: classifier,
		Vectorizer: vectorizer,
		ModelName:  modelName,
		Comparison: comparison,
		LoadedAt:   time.Now().UTC(),
	}, nil
}

// Load reads every artifact named in cfg.
func Load(cfg config.ArtifactsConfig, logger *zap.Logger) (*Bundle, error) {
	start := time.Now()

	classifier, err := ml.LoadClassifier(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifact, err)
	}

	vectorizer, err := ml.LoadVectorizer(cfg.VectorizerPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifact, err)
	}

	name, err := os.ReadFile(cfg.ModelNamePath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read model name: %v", ErrArtifact, err)
	}

	comparison, err := LoadComparison(cfg.ComparisonPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifact, cfg.ComparisonPath, err)
	}

	b, err := New(classifier, vectorizer, string(name), comparison)
	if err != nil {
		return nil, err
	}

	_, probabilistic := classifier.(ml.ProbabilisticClassifier)
	logger.Info("Model loaded successfully",
		zap.String("model", b.ModelName),
		zap.String("classifier_type", classifier.Type()),
		zap.Int("classes", len(classifier.Classes())),
		zap.Int("features", vectorizer.Dim()),
		zap.Bool("probabilities", probabilistic),
		zap.Int("comparison_rows", len(comparison)),
		zap.Duration("took", time.Since(start)))

	return b, nil
}
