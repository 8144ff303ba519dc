package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/vedran77/projectdesk/internal/domain"
	"github.com/vedran77/projectdesk/internal/repository"
)

// memUserRepo enforces email uniqueness the way the users_email_key
// constraint does.
type memUserRepo struct {
	mu      sync.Mutex
	users   map[uuid.UUID]domain.User
	creates int

	getByEmailErr error
	createErr     error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.createErr != nil {
		return r.createErr
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getByEmailErr != nil {
		return nil, r.getByEmailErr
	}
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) List(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, u := range r.users {
		if id != user.ID && u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) countEmail(email string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.users {
		if u.Email == email {
			n++
		}
	}
	return n
}

type memProjectRepo struct {
	mu       sync.Mutex
	projects map[uuid.UUID]domain.Project
	users    *memUserRepo
}

func newMemProjectRepo(users *memUserRepo) *memProjectRepo {
	return &memProjectRepo{projects: make(map[uuid.UUID]domain.Project), users: users}
}

func (r *memProjectRepo) add(p domain.Project) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[p.ID] = p
}

func (r *memProjectRepo) List(_ context.Context) ([]domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Project, 0, len(r.projects))
	for _, p := range r.projects {
		out = append(out, p)
	}
	return out, nil
}

func (r *memProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	r.mu.Lock()
	p, ok := r.projects[id]
	r.mu.Unlock()
	if !ok {
		return nil, nil
	}
	if p.AssigneeID != nil {
		u, _ := r.users.GetByID(ctx, *p.AssigneeID)
		if u != nil {
			p.Assignee = &domain.ProjectAssignee{ID: u.ID, Name: u.Name, Email: u.Email}
		}
	}
	return &p, nil
}

func (r *memProjectRepo) Assign(ctx context.Context, projectID uuid.UUID, userID *uuid.UUID) error {
	if userID != nil {
		if u, _ := r.users.GetByID(ctx, *userID); u == nil {
			return repository.ErrMissingReference
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[projectID]
	if !ok {
		return repository.ErrNotFound
	}
	p.AssigneeID = userID
	p.Assignee = nil
	r.projects[projectID] = p
	return nil
}

func (r *memProjectRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.projects, id)
	return nil
}

type recordingNotifier struct {
	assigned []uuid.UUID
	deleted  []uuid.UUID
}

func (n *recordingNotifier) NotifyProjectAssigned(p *domain.Project) {
	n.assigned = append(n.assigned, p.ID)
}

func (n *recordingNotifier) NotifyProjectDeleted(id uuid.UUID) {
	n.deleted = append(n.deleted, id)
}
