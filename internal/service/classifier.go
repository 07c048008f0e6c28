package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"classifier-service/internal/config"
	"classifier-service/internal/inference"
	"classifier-service/internal/models"
	"classifier-service/internal/preprocess"
)

// NoTextMessage is the client-facing message for empty input.
const NoTextMessage = "No text provided"

var (
	// ErrEmptyText means the submitted text is missing or only whitespace.
	ErrEmptyText = errors.New("no text provided")
	// ErrInvalidBody means the request body is not the expected JSON shape.
	ErrInvalidBody = errors.New("invalid request body")
	// ErrEmptyBatch means a batch request carried no texts.
	ErrEmptyBatch = errors.New("no texts provided")
	// ErrBatchTooLarge means a batch request exceeded inference.max_batch_size.
	ErrBatchTooLarge = errors.New("batch too large")
)

// Recorder receives prediction metrics. A nil Recorder disables them.
type Recorder interface {
	ObservePrediction(category string, took time.Duration)
	ObservePredictionError(kind string)
}

// Classifier handles classification business logic
type Classifier struct {
	engine     *inference.Engine
	normalizer *preprocess.Normalizer
	inference  config.InferenceConfig
	stats      config.StatsConfig
	recorder   Recorder
	logger     *zap.Logger
}

// NewClassifier creates a new classification service
func NewClassifier(
	engine *inference.Engine,
	normalizer *preprocess.Normalizer,
	cfg *config.Config,
	recorder Recorder,
	logger *zap.Logger,
) *Classifier {
	return &Classifier{
		engine:     engine,
		normalizer: normalizer,
		inference:  cfg.Inference,
		stats:      cfg.Stats,
		recorder:   recorder,
		logger:     logger,
	}
}

// Classify normalizes and classifies a single text.
func (c *Classifier) Classify(ctx context.Context, text string) (*models.PredictionResult, error) {
	if strings.TrimSpace(text) == "" {
		c.observeError(ErrEmptyText)
		return nil, ErrEmptyText
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	normalized := c.normalizer.Normalize(text)

	result, err := c.engine.Predict(normalized)
	if err != nil {
		c.observeError(err)
		return nil, err
	}

	took := time.Since(start)
	if c.recorder != nil {
		c.recorder.ObservePrediction(result.Category, took)
	}

	c.logger.Debug("Text classified",
		zap.String("category", result.Category),
		zap.Int("word_count", result.WordCount),
		zap.Bool("has_confidence", result.Confidence != nil),
		zap.Duration("took", took))

	return result, nil
}

// ClassifyBatch classifies texts concurrently, bounded by inference.batch_concurrency.
// A failing item does not affect the others; results keep the input order.
func (c *Classifier) ClassifyBatch(ctx context.Context, texts []string) (*models.BatchPredictResponse, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(texts) > c.inference.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d texts, limit is %d", ErrBatchTooLarge, len(texts), c.inference.MaxBatchSize)
	}

	results := make([]models.BatchItem, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.inference.BatchConcurrency)
	for i, text := range texts {
		g.Go(func() error {
			results[i] = c.classifyItem(gctx, i, text)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp := &models.BatchPredictResponse{
		Results: results,
		Total:   len(results),
	}
	for _, item := range results {
		if item.Error != "" {
			resp.Failed++
		}
	}

	c.logger.Info("Batch classified",
		zap.Int("total", resp.Total),
		zap.Int("failed", resp.Failed))

	return resp, nil
}

func (c *Classifier) classifyItem(ctx context.Context, index int, text string) (item models.BatchItem) {
	item.Index = index
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Panic while classifying batch item",
				zap.Int("index", index),
				zap.Any("panic", r),
				zap.Stack("stack"))
			c.observeKind("panic")
			item = models.BatchItem{Index: index, Error: "internal server error"}
		}
	}()

	result, err := c.Classify(ctx, text)
	if err != nil {
		item.Error = ErrorMessage(err)
		return item
	}
	item.Result = result
	return item
}

// ModelName returns the name of the loaded model.
func (c *Classifier) ModelName() string {
	return c.engine.ModelName()
}

// ModelComparison returns the training-time comparison rows, possibly empty.
func (c *Classifier) ModelComparison() []models.ComparisonRow {
	return c.engine.Bundle().Comparison
}

// Stats returns the descriptive project summary.
func (c *Classifier) Stats() models.Stats {
	return models.Stats{
		Dataset:       c.stats.Dataset,
		TotalSamples:  c.stats.TotalSamples,
		Categories:    c.stats.Categories,
		Features:      c.stats.Features,
		BestModel:     c.engine.ModelName(),
		Preprocessing: c.stats.Preprocessing,
		ModelsTrained: c.stats.ModelsTrained,
	}
}

// ModelInfo describes the loaded bundle.
func (c *Classifier) ModelInfo() models.ModelInfo {
	b := c.engine.Bundle()
	return models.ModelInfo{
		Name:                b.ModelName,
		ClassifierType:      b.Classifier.Type(),
		Classes:             b.Classifier.Classes(),
		NumFeatures:         b.Vectorizer.Dim(),
		SupportsProbability: c.engine.SupportsProbability(),
		StopwordCount:       c.normalizer.StopwordCount(),
		LoadedAt:            b.LoadedAt,
	}
}

// ErrorMessage maps an error to its client-facing message.
func ErrorMessage(err error) string {
	if errors.Is(err, ErrEmptyText) {
		return NoTextMessage
	}
	return err.Error()
}

func (c *Classifier) observeError(err error) {
	switch {
	case errors.Is(err, ErrEmptyText):
		c.observeKind("validation")
	case errors.Is(err, inference.ErrVectorization):
		c.observeKind("vectorization")
	case errors.Is(err, inference.ErrInference):
		c.observeKind("inference")
	default:
		c.observeKind("other")
	}
}

func (c *Classifier) observeKind(kind string) {
	if c.recorder != nil {
		c.recorder.ObservePredictionError(kind)
	}
}
