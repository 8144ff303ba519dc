package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vedran77/projectdesk/internal/domain"
)

var (
	// ErrDuplicateEmail is returned when the store's unique constraint on
	// users.email rejects a write.
	ErrDuplicateEmail = errors.New("duplicate email")
	ErrNotFound       = errors.New("record not found")
	// ErrMissingReference is returned when a foreign key points nowhere.
	ErrMissingReference = errors.New("referenced record does not exist")
)

// UserRepository is the credential store. Lookups return (nil, nil) when no
// row matches.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type ProjectRepository interface {
	List(ctx context.Context) ([]domain.Project, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	Assign(ctx context.Context, projectID uuid.UUID, userID *uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}
