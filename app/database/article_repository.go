package database

import (
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
)

// ArticleRepositoryImpl handles database operations for articles
type ArticleRepositoryImpl struct {
	db *DB
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *DB) *ArticleRepositoryImpl {
	return &ArticleRepositoryImpl{db: db}
}

// GetKnownContent loads the URL/hash index of all active articles, which
// the deduplication step matches fresh crawls against. The index spans
// every source: URLs are unique table-wide, and an article republished
// under another source is still a duplicate.
func (r *ArticleRepositoryImpl) GetKnownContent() (*KnownContent, error) {
	rows, err := r.db.Query(`
		SELECT url, content_hash
		FROM articles
		WHERE is_active = true
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query known content: %w", err)
	}
	defer rows.Close()

	known := &KnownContent{
		HashByURL: make(map[string]string),
		URLByHash: make(map[string]string),
	}

	for rows.Next() {
		var url, hash string
		if err := rows.Scan(&url, &hash); err != nil {
			return nil, fmt.Errorf("failed to scan known content row: %w", err)
		}
		known.HashByURL[url] = hash
		known.URLByHash[hash] = url
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating known content rows: %w", err)
	}

	return known, nil
}

// UpsertArticle inserts an article or, when the URL is already stored,
// replaces its content, enrichment, and scores. Reappearing articles are
// reactivated; the seen flag survives content updates.
func (r *ArticleRepositoryImpl) UpsertArticle(sourceID string, article Article) (string, error) {
	scores, err := json.Marshal(article.RelevanceScores)
	if err != nil {
		return "", fmt.Errorf("failed to marshal relevance scores: %w", err)
	}

	var dbID string
	err = r.db.QueryRow(`
		INSERT INTO articles (source_id, url, title, content, summary, content_hash,
		                      categories, tags, relevance_scores, crawled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (url) DO UPDATE
		SET title = EXCLUDED.title, content = EXCLUDED.content, summary = EXCLUDED.summary,
		    content_hash = EXCLUDED.content_hash, categories = EXCLUDED.categories,
		    tags = EXCLUDED.tags, relevance_scores = EXCLUDED.relevance_scores,
		    crawled_at = EXCLUDED.crawled_at, is_active = true, updated_at = NOW()
		RETURNING id
	`, sourceID, article.URL, article.Title, article.Content, article.Summary,
		article.ContentHash, pq.Array(article.Categories), pq.Array(article.Tags),
		scores, article.CrawledAt).Scan(&dbID)

	if err != nil {
		return "", fmt.Errorf("failed to upsert article: %w", err)
	}

	return dbID, nil
}

// GetArticles returns stored active articles, newest first
func (r *ArticleRepositoryImpl) GetArticles(limit, offset int, onlyUnseen bool) ([]Article, error) {
	query := `
		SELECT id, source_id, url, title, content, summary, content_hash,
		       categories, tags, relevance_scores, is_seen, is_active,
		       crawled_at, created_at, updated_at
		FROM articles
		WHERE is_active = true`
	if onlyUnseen {
		query += ` AND is_seen = false`
	}
	query += `
		ORDER BY crawled_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		var article Article
		var scores []byte
		err := rows.Scan(
			&article.ID, &article.SourceID, &article.URL, &article.Title,
			&article.Content, &article.Summary, &article.ContentHash,
			pq.Array(&article.Categories), pq.Array(&article.Tags), &scores,
			&article.IsSeen, &article.IsActive,
			&article.CrawledAt, &article.CreatedAt, &article.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		if err := json.Unmarshal(scores, &article.RelevanceScores); err != nil {
			return nil, fmt.Errorf("failed to unmarshal relevance scores: %w", err)
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

// GetStoredTexts returns the title and summary of every active article
func (r *ArticleRepositoryImpl) GetStoredTexts() ([]StoredText, error) {
	rows, err := r.db.Query(`
		SELECT id, title, summary
		FROM articles
		WHERE is_active = true
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stored texts: %w", err)
	}
	defer rows.Close()

	var texts []StoredText
	for rows.Next() {
		var text StoredText
		if err := rows.Scan(&text.ID, &text.Title, &text.Summary); err != nil {
			return nil, fmt.Errorf("failed to scan stored text row: %w", err)
		}
		texts = append(texts, text)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stored text rows: %w", err)
	}

	return texts, nil
}

// MarkSeen marks an article as seen by the reader
func (r *ArticleRepositoryImpl) MarkSeen(articleID string) error {
	_, err := r.db.Exec(`
		UPDATE articles
		SET is_seen = true, updated_at = NOW()
		WHERE id = $1
	`, articleID)

	if err != nil {
		return fmt.Errorf("failed to mark article as seen: %w", err)
	}

	return nil
}

// UpdateScores replaces the relevance scores of an article
func (r *ArticleRepositoryImpl) UpdateScores(articleID string, scores map[string]float64) error {
	data, err := json.Marshal(scores)
	if err != nil {
		return fmt.Errorf("failed to marshal relevance scores: %w", err)
	}

	_, err = r.db.Exec(`
		UPDATE articles
		SET relevance_scores = $2, updated_at = NOW()
		WHERE id = $1
	`, articleID, data)

	if err != nil {
		return fmt.Errorf("failed to update relevance scores: %w", err)
	}

	return nil
}

// DeactivateArticle hides an article without deleting its dedup record
func (r *ArticleRepositoryImpl) DeactivateArticle(articleID string) error {
	result, err := r.db.Exec(`
		UPDATE articles
		SET is_active = false, updated_at = NOW()
		WHERE id = $1
	`, articleID)

	if err != nil {
		return fmt.Errorf("failed to deactivate article: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deactivate result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("article %s not found", articleID)
	}

	return nil
}

// GetArticleCount returns the total number of active articles
func (r *ArticleRepositoryImpl) GetArticleCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM articles WHERE is_active = true").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get article count: %w", err)
	}
	return count, nil
}

// GetUnseenCount returns the number of active unseen articles
func (r *ArticleRepositoryImpl) GetUnseenCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM articles WHERE is_active = true AND is_seen = false").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get unseen article count: %w", err)
	}
	return count, nil
}
