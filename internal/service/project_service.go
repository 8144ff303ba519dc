package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vedran77/projectdesk/internal/domain"
	"github.com/vedran77/projectdesk/internal/repository"
)

var (
	ErrProjectNotFound = errors.New("project not found")
)

// Notifier broadcasts project changes to connected dashboards.
type Notifier interface {
	NotifyProjectAssigned(project *domain.Project)
	NotifyProjectDeleted(projectID uuid.UUID)
}

type ProjectService struct {
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	notifier    Notifier
}

func NewProjectService(projectRepo repository.ProjectRepository, userRepo repository.UserRepository) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		userRepo:    userRepo,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *ProjectService) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *ProjectService) List(ctx context.Context) ([]domain.Project, error) {
	return s.projectRepo.List(ctx)
}

// Assign sets the project's assignee, or clears it when userID is nil.
func (s *ProjectService) Assign(ctx context.Context, projectID uuid.UUID, userID *uuid.UUID) (*domain.Project, error) {
	if userID != nil {
		user, err := s.userRepo.GetByID(ctx, *userID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, ErrUserNotFound
		}
	}

	if err := s.projectRepo.Assign(ctx, projectID, userID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrProjectNotFound
		case errors.Is(err, repository.ErrMissingReference):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("assigning project: %w", err)
	}

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}

	if s.notifier != nil {
		s.notifier.NotifyProjectAssigned(project)
	}
	return project, nil
}

func (s *ProjectService) Delete(ctx context.Context, projectID uuid.UUID) error {
	if err := s.projectRepo.Delete(ctx, projectID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("deleting project: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyProjectDeleted(projectID)
	}
	return nil
}
