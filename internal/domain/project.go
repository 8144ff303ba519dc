package domain

import (
	"time"

	"github.com/google/uuid"
)

type ProjectStatus string

const (
	ProjectPlanned    ProjectStatus = "PLANNED"
	ProjectInProgress ProjectStatus = "IN_PROGRESS"
	ProjectCompleted  ProjectStatus = "COMPLETED"
	ProjectOnHold     ProjectStatus = "ON_HOLD"
)

type Project struct {
	ID         uuid.UUID        `json:"id"`
	Name       string           `json:"name"`
	Status     ProjectStatus    `json:"status"`
	StartDate  time.Time        `json:"startDate"`
	AssigneeID *uuid.UUID       `json:"-"`
	Assignee   *ProjectAssignee `json:"assignee,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// ProjectAssignee is the slice of a User embedded in project listings.
type ProjectAssignee struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}
