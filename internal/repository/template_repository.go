package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hireloop/interview-backend/internal/model"
)

var ErrTemplateNotFound = errors.New("template not found")

// TemplateRepository handles interview template data access.
type TemplateRepository struct {
	pool *pgxpool.Pool
}

// NewTemplateRepository creates a new TemplateRepository.
func NewTemplateRepository(pool *pgxpool.Pool) *TemplateRepository {
	return &TemplateRepository{pool: pool}
}

func (r *TemplateRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.InterviewTemplate, error) {
	t := &model.InterviewTemplate{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, role_title, skills, description, is_active, created_at
		 FROM interview_templates WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.RoleTitle, &t.Skills, &t.Description, &t.IsActive, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TemplateRepository) ListActive(ctx context.Context) ([]model.InterviewTemplate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, role_title, skills, description, is_active, created_at
		 FROM interview_templates WHERE is_active ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []model.InterviewTemplate
	for rows.Next() {
		var t model.InterviewTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.RoleTitle, &t.Skills, &t.Description, &t.IsActive, &t.CreatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// Create inserts a template. Used by the seeder.
func (r *TemplateRepository) Create(ctx context.Context, t *model.InterviewTemplate) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO interview_templates (name, role_title, skills, description, is_active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		t.Name, t.RoleTitle, t.Skills, t.Description, t.IsActive,
	).Scan(&t.ID, &t.CreatedAt)
}
