package cli

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"classifier-service/internal/bundle"
	"classifier-service/internal/inference"
	"classifier-service/internal/preprocess"
	"classifier-service/internal/repository"
)

// openCache opens the stopword cache unless the builtin list is configured or caching is disabled.
func (a *app) openCache() (*repository.StopwordRepository, error) {
	if a.cfg.Stopwords.Builtin || a.cfg.Stopwords.CachePath == "" {
		return nil, nil
	}
	repo, err := repository.NewStopwordRepository(a.cfg.Stopwords.CachePath, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open stopword cache: %w", err)
	}
	return repo, nil
}

// loadStopwords resolves the stopword list the same way the server does at startup.
func (a *app) loadStopwords(ctx context.Context, progress func(total int64) io.Writer) (preprocess.StopwordSet, error) {
	repo, err := a.openCache()
	if err != nil {
		return preprocess.StopwordSet{}, err
	}

	var cache preprocess.StopwordCache
	if repo != nil {
		defer repo.Close()
		cache = repo
	}

	loader := preprocess.NewStopwordLoader(a.cfg.Stopwords, cache, a.logger)
	if progress != nil {
		loader.WithProgress(progress)
	}
	return loader.Load(ctx)
}

// buildEngine loads the stopwords and the model bundle.
func (a *app) buildEngine(ctx context.Context) (*preprocess.Normalizer, *inference.Engine, error) {
	stopwords, err := a.loadStopwords(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	normalizer := preprocess.NewNormalizer(stopwords)

	b, err := bundle.Load(a.cfg.Artifacts, a.logger)
	if err != nil {
		return nil, nil, err
	}
	engine := inference.NewEngine(b)

	a.logger.Info("Inference engine ready",
		zap.String("model", engine.ModelName()),
		zap.Bool("supports_probability", engine.SupportsProbability()),
		zap.Int("stopwords", normalizer.StopwordCount()))

	return normalizer, engine, nil
}
