// Package inference turns normalized text into a prediction using the loaded model bundle.
package inference

import (
	"errors"
	"fmt"
	"sort"

	"classifier-service/internal/bundle"
	"classifier-service/internal/ml"
	"classifier-service/internal/models"
	"classifier-service/internal/preprocess"
)

// TopK is the number of ranked predictions returned with a probability estimate.
const TopK = 3

var (
	// ErrVectorization means the vectorizer rejected the input.
	ErrVectorization = errors.New("vectorization failed")
	// ErrInference means the classifier failed on a valid feature vector.
	ErrInference = errors.New("inference failed")
)

// Engine runs vectorize → predict → rank over an immutable bundle.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	bundle        *bundle.Bundle
	probabilistic ml.ProbabilisticClassifier // nil when the classifier has no probability estimates
}

// NewEngine probes the classifier's capabilities once.
func NewEngine(b *bundle.Bundle) *Engine {
	e := &Engine{bundle: b}
	if pc, ok := b.Classifier.(ml.ProbabilisticClassifier); ok {
		e.probabilistic = pc
	}
	return e
}

// SupportsProbability reports whether predictions carry confidence scores.
func (e *Engine) SupportsProbability() bool {
	return e.probabilistic != nil
}

// ModelName returns the human-readable model name fixed at load time.
func (e *Engine) ModelName() string {
	return e.bundle.ModelName
}

// Bundle exposes the underlying read-only model state.
func (e *Engine) Bundle() *bundle.Bundle {
	return e.bundle
}

// Predict classifies already-normalized text.
func (e *Engine) Predict(normalized string) (*models.PredictionResult, error) {
	vectors, err := e.bundle.Vectorizer.TransformBatch([]string{normalized})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVectorization, err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected 1 vector, got %d", ErrVectorization, len(vectors))
	}
	x := vectors[0]

	label, err := e.bundle.Classifier.Predict(x)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}

	result := &models.PredictionResult{
		Category:         label,
		Model:            e.bundle.ModelName,
		PreprocessedText: normalized,
		WordCount:        preprocess.TokenCount(normalized),
	}

	if e.probabilistic == nil {
		return result, nil
	}

	proba, err := e.probabilistic.PredictProba(x)
	if err != nil {
		return nil, fmt.Errorf("%w: probability estimate: %v", ErrInference, err)
	}

	top, err := rank(e.bundle.Classifier.Classes(), proba, label)
	if err != nil {
		return nil, err
	}

	confidence := top[0].Confidence
	result.Confidence = &confidence
	result.TopPredictions = top
	return result, nil
}

// rank returns the TopK classes by descending probability, ties in class order.
// The point label is kept at the head when it only differs from the ranking by a tie.
func rank(classes []string, proba []float64, label string) ([]models.TopPrediction, error) {
	if len(proba) != len(classes) {
		return nil, fmt.Errorf("%w: %d probabilities for %d classes", ErrInference, len(proba), len(classes))
	}

	order := make([]int, len(classes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return proba[order[a]] > proba[order[b]]
	})

	if classes[order[0]] != label {
		pos := -1
		for i, idx := range order {
			if classes[idx] == label {
				pos = i
				break
			}
		}
		if pos < 0 || proba[order[pos]] != proba[order[0]] {
			return nil, fmt.Errorf("%w: predicted %q disagrees with most probable class %q",
				ErrInference, label, classes[order[0]])
		}
		idx := order[pos]
		copy(order[1:pos+1], order[:pos])
		order[0] = idx
	}

	k := min(TopK, len(order))
	top := make([]models.TopPrediction, k)
	for i := 0; i < k; i++ {
		top[i] = models.TopPrediction{
			Category:   classes[order[i]],
			Confidence: proba[order[i]],
		}
	}
	return top, nil
}
