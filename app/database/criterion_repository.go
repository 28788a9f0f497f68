package database

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// CriterionRepositoryImpl handles database operations for relevance criteria
type CriterionRepositoryImpl struct {
	db *DB
}

// NewCriterionRepository creates a new criterion repository
func NewCriterionRepository(db *DB) *CriterionRepositoryImpl {
	return &CriterionRepositoryImpl{db: db}
}

// CreateCriterion stores a new criterion and returns its ID
func (r *CriterionRepositoryImpl) CreateCriterion(name string, keywords []string, prompt string) (string, error) {
	var dbID string
	err := r.db.QueryRow(`
		INSERT INTO criteria (name, keywords, prompt)
		VALUES ($1, $2, $3)
		RETURNING id
	`, name, pq.Array(keywords), prompt).Scan(&dbID)

	if err != nil {
		return "", fmt.Errorf("failed to create criterion: %w", err)
	}

	return dbID, nil
}

// UpdateCriterion replaces the definition of an existing criterion
func (r *CriterionRepositoryImpl) UpdateCriterion(criterionID, name string, keywords []string, prompt string, active bool) error {
	result, err := r.db.Exec(`
		UPDATE criteria
		SET name = $2, keywords = $3, prompt = $4, active = $5, updated_at = NOW()
		WHERE id = $1
	`, criterionID, name, pq.Array(keywords), prompt, active)

	if err != nil {
		return fmt.Errorf("failed to update criterion: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("criterion %s not found", criterionID)
	}

	return nil
}

// DeleteCriterion removes a criterion
func (r *CriterionRepositoryImpl) DeleteCriterion(criterionID string) error {
	result, err := r.db.Exec(`DELETE FROM criteria WHERE id = $1`, criterionID)
	if err != nil {
		return fmt.Errorf("failed to delete criterion: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("criterion %s not found", criterionID)
	}

	return nil
}

// GetCriterion retrieves a criterion by ID
func (r *CriterionRepositoryImpl) GetCriterion(criterionID string) (*Criterion, error) {
	var criterion Criterion
	err := r.db.QueryRow(`
		SELECT id, name, keywords, COALESCE(prompt, ''), active, created_at, updated_at
		FROM criteria
		WHERE id = $1
	`, criterionID).Scan(
		&criterion.ID, &criterion.Name, pq.Array(&criterion.Keywords),
		&criterion.Prompt, &criterion.Active, &criterion.CreatedAt, &criterion.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get criterion: %w", err)
	}

	return &criterion, nil
}

// GetCriteria returns criteria, optionally only active ones
func (r *CriterionRepositoryImpl) GetCriteria(activeOnly bool) ([]Criterion, error) {
	query := `
		SELECT id, name, keywords, COALESCE(prompt, ''), active, created_at, updated_at
		FROM criteria`
	if activeOnly {
		query += `
		WHERE active = true`
	}
	query += `
		ORDER BY name`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query criteria: %w", err)
	}
	defer rows.Close()

	var criteria []Criterion
	for rows.Next() {
		var criterion Criterion
		err := rows.Scan(
			&criterion.ID, &criterion.Name, pq.Array(&criterion.Keywords),
			&criterion.Prompt, &criterion.Active, &criterion.CreatedAt, &criterion.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan criterion row: %w", err)
		}
		criteria = append(criteria, criterion)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating criterion rows: %w", err)
	}

	return criteria, nil
}
