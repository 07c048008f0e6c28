package preprocess

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"classifier-service/internal/config"
)

// ErrStopwordsUnavailable means no stopword list could be acquired. The server must not start.
var ErrStopwordsUnavailable = errors.New("stopwords unavailable")

// maxDownloadBytes bounds the corpus archive download.
const maxDownloadBytes = 32 << 20

// StopwordCache persists downloaded stopword lists between runs
type StopwordCache interface {
	Get(ctx context.Context, language string) ([]string, error)
	Put(ctx context.Context, language, source string, words []string) error
}

// StopwordLoader acquires the stopword list once at startup
type StopwordLoader struct {
	cfg        config.StopwordsConfig
	cache      StopwordCache
	httpClient *http.Client
	logger     *zap.Logger
	progress   func(total int64) io.Writer
}

// NewStopwordLoader creates a loader. cache may be nil, in which case downloads are not persisted.
func NewStopwordLoader(cfg config.StopwordsConfig, cache StopwordCache, logger *zap.Logger) *StopwordLoader {
	return &StopwordLoader{
		cfg:   cfg,
		cache: cache,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// WithProgress installs a factory for a writer that receives downloaded bytes.
func (l *StopwordLoader) WithProgress(fn func(total int64) io.Writer) *StopwordLoader {
	l.progress = fn
	return l
}

// WithHTTPClient replaces the HTTP client used for downloads.
func (l *StopwordLoader) WithHTTPClient(client *http.Client) *StopwordLoader {
	l.httpClient = client
	return l
}

// Load resolves the stopword list: builtin list if configured, then the local word file,
// then the cache, then a download that is written back to the cache.
func (l *StopwordLoader) Load(ctx context.Context) (StopwordSet, error) {
	lang := l.cfg.Language

	if l.cfg.Builtin {
		if lang != "english" {
			return StopwordSet{}, fmt.Errorf("%w: no builtin list for language %q", ErrStopwordsUnavailable, lang)
		}
		l.logger.Info("Using builtin stopwords", zap.Int("count", len(EnglishStopwords)))
		return NewStopwordSet(EnglishStopwords), nil
	}

	if l.cfg.Path != "" {
		words, err := readWordFile(l.cfg.Path)
		switch {
		case err == nil:
			l.logger.Info("Loaded stopwords from file",
				zap.String("path", l.cfg.Path),
				zap.Int("count", len(words)))
			return NewStopwordSet(words), nil
		case errors.Is(err, os.ErrNotExist):
			l.logger.Info("Stopword file not found, trying cache", zap.String("path", l.cfg.Path))
		default:
			return StopwordSet{}, fmt.Errorf("%w: %v", ErrStopwordsUnavailable, err)
		}
	}

	if l.cache != nil {
		words, err := l.cache.Get(ctx, lang)
		if err == nil && len(words) > 0 {
			l.logger.Info("Loaded stopwords from cache",
				zap.String("language", lang),
				zap.Int("count", len(words)))
			return NewStopwordSet(words), nil
		}
		l.logger.Info("Stopword cache miss", zap.String("language", lang), zap.NamedError("reason", err))
	}

	words, err := l.Fetch(ctx)
	if err != nil {
		return StopwordSet{}, err
	}

	if l.cache != nil {
		if err := l.cache.Put(ctx, lang, l.cfg.DownloadURL, words); err != nil {
			l.logger.Warn("Failed to cache stopwords", zap.Error(err))
		}
	}

	l.logger.Info("Downloaded stopwords",
		zap.String("language", lang),
		zap.String("url", l.cfg.DownloadURL),
		zap.Int("count", len(words)))

	return NewStopwordSet(words), nil
}

// Fetch downloads the stopword list, retrying transient failures up to MaxRetries times.
func (l *StopwordLoader) Fetch(ctx context.Context) ([]string, error) {
	var words []string
	operation := func() error {
		w, err := l.download(ctx)
		if err != nil {
			return err
		}
		words = w
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(l.cfg.RetryDelay), uint64(l.cfg.MaxRetries)),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		l.logger.Warn("Stopword download failed, retrying",
			zap.String("url", l.cfg.DownloadURL),
			zap.Duration("retry_in", wait),
			zap.Error(err))
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, fmt.Errorf("%w: download %s: %v", ErrStopwordsUnavailable, l.cfg.DownloadURL, err)
	}
	return words, nil
}

func (l *StopwordLoader) download(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.cfg.DownloadURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, backoff.Permanent(fmt.Errorf("server returned status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if l.progress != nil {
		body = io.TeeReader(resp.Body, l.progress(resp.ContentLength))
	}

	data, err := io.ReadAll(io.LimitReader(body, maxDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	words, err := extractWordList(data, l.cfg.Language)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	return words, nil
}

// extractWordList accepts either a corpus zip holding stopwords/<language>
// or a plain one-word-per-line body.
func extractWordList(data []byte, language string) ([]string, error) {
	if !bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		words, err := ParseWordList(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		if len(words) == 0 {
			return nil, errors.New("downloaded word list is empty")
		}
		return words, nil
	}

	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open stopword archive: %w", err)
	}

	for _, f := range archive.File {
		if path.Base(f.Name) != language || path.Base(path.Dir(f.Name)) != "stopwords" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		words, err := ParseWordList(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		if len(words) == 0 {
			return nil, fmt.Errorf("%s is empty", f.Name)
		}
		return words, nil
	}

	return nil, fmt.Errorf("archive has no stopwords/%s entry", language)
}

func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	words, err := ParseWordList(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("stopword file %s is empty", path)
	}
	return words, nil
}
