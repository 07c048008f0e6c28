package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"classifier-service/internal/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNotFound is returned when no stopword list is cached for a language.
var ErrNotFound = errors.New("stopword list not found")

// StopwordRepository caches downloaded stopword lists in a local SQLite file
type StopwordRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewStopwordRepository opens (creating if needed) the cache database and applies migrations.
func NewStopwordRepository(dbPath string, logger *zap.Logger) (*StopwordRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	repo := &StopwordRepository{
		db:     db,
		logger: logger,
	}

	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("Stopword repository initialized", zap.String("db_path", dbPath))

	return repo, nil
}

func (r *StopwordRepository) migrate() error {
	driver, err := sqlite.WithInstance(r.db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("couldn't get database instance for running migrations: %w", err)
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("couldn't open embedded migrations: %w", err)
	}

	// m.Close would also close r.db, so the instance is left for the GC.
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("couldn't create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	r.logger.Debug("Database migration was run successfully")
	return nil
}

// Get returns the cached words for language in their original order.
func (r *StopwordRepository) Get(ctx context.Context, language string) ([]string, error) {
	if _, err := r.Info(ctx, language); err != nil {
		return nil, err
	}

	var words []string
	query := `SELECT word FROM stopwords WHERE language = ? ORDER BY position`
	if err := r.db.SelectContext(ctx, &words, query, language); err != nil {
		return nil, fmt.Errorf("failed to query stopwords: %w", err)
	}
	return words, nil
}

// Put replaces the cached list for language.
func (r *StopwordRepository) Put(ctx context.Context, language, source string, words []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM stopwords WHERE language = ?`, language); err != nil {
		return fmt.Errorf("failed to clear stopwords: %w", err)
	}

	upsert := `
		INSERT INTO stopword_sets (language, source, word_count, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(language) DO UPDATE SET
			source = excluded.source,
			word_count = excluded.word_count,
			fetched_at = excluded.fetched_at
	`
	if _, err := tx.ExecContext(ctx, upsert, language, source, len(words), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save stopword set: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO stopwords (language, position, word) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, word := range words {
		if _, err := stmt.ExecContext(ctx, language, i, word); err != nil {
			return fmt.Errorf("failed to save stopword %q: %w", word, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit stopwords: %w", err)
	}

	r.logger.Debug("Cached stopwords",
		zap.String("language", language),
		zap.String("source", source),
		zap.Int("count", len(words)))
	return nil
}

// Info returns metadata about the cached list for language.
func (r *StopwordRepository) Info(ctx context.Context, language string) (*models.StopwordSetInfo, error) {
	var info models.StopwordSetInfo
	query := `SELECT language, source, word_count, fetched_at FROM stopword_sets WHERE language = ?`
	err := r.db.GetContext(ctx, &info, query, language)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, language)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stopword set: %w", err)
	}
	return &info, nil
}

// List returns metadata for every cached language.
func (r *StopwordRepository) List(ctx context.Context) ([]models.StopwordSetInfo, error) {
	infos := []models.StopwordSetInfo{}
	query := `SELECT language, source, word_count, fetched_at FROM stopword_sets ORDER BY language`
	if err := r.db.SelectContext(ctx, &infos, query); err != nil {
		return nil, fmt.Errorf("failed to list stopword sets: %w", err)
	}
	return infos, nil
}

// Close closes the database connection
func (r *StopwordRepository) Close() error {
	return r.db.Close()
}
