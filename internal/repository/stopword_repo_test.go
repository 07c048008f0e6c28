package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"classifier-service/internal/config"
	"classifier-service/internal/preprocess"
)

var _ preprocess.StopwordCache = (*StopwordRepository)(nil)

func newTestRepo(t *testing.T) (*StopwordRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "resources.db")
	repo, err := NewStopwordRepository(path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func TestStopwordRepository_GetMissing(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Get(context.Background(), "english")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStopwordRepository_PutAndGet(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	before := time.Now().Add(-time.Second)

	require.NoError(t, repo.Put(ctx, "english", "https://example.com/stopwords.zip", []string{"the", "and", "of"}))

	words, err := repo.Get(ctx, "english")
	require.NoError(t, err)
	assert.Equal(t, []string{"the", "and", "of"}, words)

	info, err := repo.Info(ctx, "english")
	require.NoError(t, err)
	assert.Equal(t, "english", info.Language)
	assert.Equal(t, "https://example.com/stopwords.zip", info.Source)
	assert.Equal(t, 3, info.WordCount)
	assert.True(t, info.FetchedAt.After(before))
}

func TestStopwordRepository_PutReplaces(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "english", "first", []string{"a", "b", "c"}))
	require.NoError(t, repo.Put(ctx, "english", "second", []string{"z"}))
	require.NoError(t, repo.Put(ctx, "french", "second", []string{"le", "la"}))

	words, err := repo.Get(ctx, "english")
	require.NoError(t, err)
	assert.Equal(t, []string{"z"}, words)

	infos, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "english", infos[0].Language)
	assert.Equal(t, "second", infos[0].Source)
	assert.Equal(t, 1, infos[0].WordCount)
	assert.Equal(t, "french", infos[1].Language)
}

func TestStopwordRepository_PersistsAcrossReopen(t *testing.T) {
	repo, path := newTestRepo(t)
	require.NoError(t, repo.Put(context.Background(), "english", "src", []string{"the"}))
	require.NoError(t, repo.Close())

	reopened, err := NewStopwordRepository(path, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	words, err := reopened.Get(context.Background(), "english")
	require.NoError(t, err)
	assert.Equal(t, []string{"the"}, words)
}

func TestStopwordRepository_FeedsLoader(t *testing.T) {
	repo, _ := newTestRepo(t)
	require.NoError(t, repo.Put(context.Background(), "english", "src", []string{"the", "a"}))

	cfg := config.StopwordsConfig{
		Language:    "english",
		DownloadURL: "http://127.0.0.1:0/unreachable",
		RetryDelay:  time.Millisecond,
		Timeout:     time.Second,
	}
	set, err := preprocess.NewStopwordLoader(cfg, repo, zap.NewNop()).Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
}
