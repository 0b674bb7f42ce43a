package storage

import (
	"context"
	"errors"

	"ainewsag/internal/models"
)

// ErrNotFound is returned when an article id does not exist in the store
var ErrNotFound = errors.New("article not found")

// Storage defines the article store. Implementations must keep every write
// atomic per article: concurrent upserts of the same id are idempotent and
// RecordAnalysis either writes the full analysis or nothing.
type Storage interface {
	// UpsertNew inserts entries whose derived id is not already present and
	// returns the number of newly inserted articles. Existing articles are
	// left untouched.
	UpsertNew(ctx context.Context, entries []models.Entry) (int, error)

	// List returns articles matching the filter ordered by published_at
	// descending (articles without a timestamp last), ties broken by
	// fetched_at descending.
	List(ctx context.Context, filter models.ArticleFilter) ([]models.Article, error)

	// GetPending returns up to limit articles without an analysis,
	// oldest-first by fetched_at so the backlog does not starve.
	GetPending(ctx context.Context, limit int) ([]models.Article, error)

	// RecordAnalysis sets the analysis for an article. Returns ErrNotFound
	// if the id does not exist.
	RecordAnalysis(ctx context.Context, id string, analysis models.Analysis) error

	// Get returns a single article by id, or ErrNotFound.
	Get(ctx context.Context, id string) (*models.Article, error)

	// MarkRead flags an article as read.
	MarkRead(ctx context.Context, id string) error

	// GetStats returns totals plus per-sentiment and per-category counts.
	GetStats(ctx context.Context) (*models.Stats, error)

	Close() error
}
