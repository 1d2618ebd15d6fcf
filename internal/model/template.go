package model

import (
	"time"

	"github.com/google/uuid"
)

// InterviewTemplate defines the role profile an interview is built from.
// Templates are referenced at creation time only; editing a template never
// changes already-created interviews.
type InterviewTemplate struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	RoleTitle   string    `json:"role_title"`
	Skills      []string  `json:"skills"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateTemplateRequest is the admin payload for defining a role template.
type CreateTemplateRequest struct {
	Name        string   `json:"name" binding:"required,min=2,max=255"`
	RoleTitle   string   `json:"role_title" binding:"required,min=2,max=255"`
	Skills      []string `json:"skills" binding:"required,min=1,dive,min=1,max=64"`
	Description string   `json:"description" binding:"omitempty,max=2000"`
}
