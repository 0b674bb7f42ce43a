package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"ainewsag/internal/models"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(dataDir string) (*SQLiteStorage, error) {
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "news.db")
	log.Printf("Initializing database at: %s", dbPath)

	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_synchronous=NORMAL&_busy_timeout=30000&_loc=UTC")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		title TEXT NOT NULL,
		link TEXT NOT NULL,
		summary TEXT,
		published_at DATETIME,
		fetched_at DATETIME NOT NULL,
		is_read INTEGER NOT NULL DEFAULT 0,
		sentiment TEXT,
		sentiment_score REAL,
		category TEXT,
		bubble_indicators TEXT, -- JSON array
		ai_summary TEXT,
		investment_relevance TEXT,
		analyzed_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(published_at DESC);
	CREATE INDEX IF NOT EXISTS idx_articles_sentiment ON articles(sentiment);
	CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category);
	CREATE INDEX IF NOT EXISTS idx_articles_pending ON articles(fetched_at) WHERE analyzed_at IS NULL;
	`

	if _, err := db.Exec(schema); err != nil {
		return err
	}

	return nil
}

var articleColumns = []string{
	"id", "source", "title", "link", "summary", "published_at", "fetched_at",
	"is_read", "sentiment", "sentiment_score", "category", "bubble_indicators",
	"ai_summary", "investment_relevance", "analyzed_at",
}

// UpsertNew inserts entries with INSERT OR IGNORE keyed on the derived id.
// Re-fetched entries never overwrite stored fields, and concurrent upserts of
// the same id are no-ops after the first insert lands.
func (s *SQLiteStorage) UpsertNew(ctx context.Context, entries []models.Entry) (int, error) {
	inserted := 0
	now := time.Now().UTC()

	for _, entry := range entries {
		id := models.ArticleID(entry.Link, entry.Title)

		result, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO articles (id, source, title, link, summary, published_at, fetched_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, entry.Source, entry.Title, entry.Link, entry.Summary, entry.PublishedAt, now,
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert article %s: %w", id, err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("failed to check insert result: %w", err)
		}
		inserted += int(rows)
	}

	return inserted, nil
}

func (s *SQLiteStorage) List(ctx context.Context, filter models.ArticleFilter) ([]models.Article, error) {
	query := sq.Select(articleColumns...).From("articles")

	if filter.Sentiment != "" {
		query = query.Where(sq.Eq{"sentiment": filter.Sentiment})
	}
	if filter.Category != "" {
		query = query.Where(sq.Eq{"category": filter.Category})
	}

	// published_at descending with NULLs last, stable for equal timestamps
	query = query.OrderBy("published_at IS NULL", "published_at DESC", "fetched_at DESC")

	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list query: %w", err)
	}

	return s.queryArticles(ctx, sqlStr, args...)
}

func (s *SQLiteStorage) GetPending(ctx context.Context, limit int) ([]models.Article, error) {
	query := sq.Select(articleColumns...).From("articles").
		Where("analyzed_at IS NULL").
		OrderBy("fetched_at ASC")

	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build pending query: %w", err)
	}

	return s.queryArticles(ctx, sqlStr, args...)
}

// RecordAnalysis writes the full analysis in a single UPDATE. The sentiment
// is validated first so a malformed analysis is never partially persisted.
func (s *SQLiteStorage) RecordAnalysis(ctx context.Context, id string, analysis models.Analysis) error {
	if !models.ValidSentiment(analysis.Sentiment) {
		return fmt.Errorf("invalid sentiment %q", analysis.Sentiment)
	}

	if analysis.AnalyzedAt.IsZero() {
		analysis.AnalyzedAt = time.Now().UTC()
	}

	indicators := analysis.BubbleIndicators
	if indicators == nil {
		indicators = []string{}
	}
	indicatorsJSON, err := json.Marshal(indicators)
	if err != nil {
		return fmt.Errorf("failed to encode bubble indicators: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE articles
		SET sentiment = ?, sentiment_score = ?, category = ?, bubble_indicators = ?,
		    ai_summary = ?, investment_relevance = ?, analyzed_at = ?
		WHERE id = ?`,
		analysis.Sentiment, analysis.SentimentScore, analysis.Category, string(indicatorsJSON),
		analysis.AISummary, analysis.InvestmentRelevance, analysis.AnalyzedAt, id,
	)
	if err != nil {
		return fmt.Errorf("failed to record analysis for %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check analysis update: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *SQLiteStorage) Get(ctx context.Context, id string) (*models.Article, error) {
	sqlStr, args, err := sq.Select(articleColumns...).From("articles").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get query: %w", err)
	}

	articles, err := s.queryArticles(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return nil, ErrNotFound
	}

	return &articles[0], nil
}

func (s *SQLiteStorage) MarkRead(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE articles SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark article %s read: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check read update: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *SQLiteStorage) GetStats(ctx context.Context) (*models.Stats, error) {
	stats := &models.Stats{
		Sentiment:  make(map[string]int),
		Categories: make(map[string]int),
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("failed to count articles: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles WHERE analyzed_at IS NOT NULL`).Scan(&stats.Analyzed); err != nil {
		return nil, fmt.Errorf("failed to count analyzed articles: %w", err)
	}

	if err := s.countGrouped(ctx, "sentiment", stats.Sentiment); err != nil {
		return nil, err
	}
	if err := s.countGrouped(ctx, "category", stats.Categories); err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *SQLiteStorage) countGrouped(ctx context.Context, column string, into map[string]int) error {
	sqlStr, args, err := sq.Select(column, "COUNT(*)").From("articles").
		Where(fmt.Sprintf("%s IS NOT NULL", column)).
		GroupBy(column).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build %s stats query: %w", column, err)
	}

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to query %s stats: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("failed to scan %s stats: %w", column, err)
		}
		into[key] = count
	}

	return rows.Err()
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) queryArticles(ctx context.Context, sqlStr string, args ...interface{}) ([]models.Article, error) {
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	var articles []models.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}

	return articles, rows.Err()
}

func scanArticle(rows *sql.Rows) (models.Article, error) {
	var (
		article        models.Article
		summary        sql.NullString
		publishedAt    sql.NullTime
		sentiment      sql.NullString
		sentimentScore sql.NullFloat64
		category       sql.NullString
		indicators     sql.NullString
		aiSummary      sql.NullString
		relevance      sql.NullString
		analyzedAt     sql.NullTime
	)

	err := rows.Scan(
		&article.ID, &article.Source, &article.Title, &article.Link, &summary,
		&publishedAt, &article.FetchedAt, &article.IsRead, &sentiment, &sentimentScore,
		&category, &indicators, &aiSummary, &relevance, &analyzedAt,
	)
	if err != nil {
		return models.Article{}, fmt.Errorf("failed to scan article: %w", err)
	}

	article.Summary = summary.String
	if publishedAt.Valid {
		t := publishedAt.Time
		article.PublishedAt = &t
	}

	if analyzedAt.Valid {
		analysis := &models.Analysis{
			Sentiment:           sentiment.String,
			SentimentScore:      sentimentScore.Float64,
			Category:            category.String,
			AISummary:           aiSummary.String,
			InvestmentRelevance: relevance.String,
			AnalyzedAt:          analyzedAt.Time,
			BubbleIndicators:    []string{},
		}
		if indicators.Valid && indicators.String != "" {
			if err := json.Unmarshal([]byte(indicators.String), &analysis.BubbleIndicators); err != nil {
				log.Printf("storage: invalid bubble indicators for article %s: %v", article.ID, err)
			}
		}
		article.Analysis = analysis
	}

	return article, nil
}
