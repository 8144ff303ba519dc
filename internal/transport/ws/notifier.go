package ws

import (
	"github.com/google/uuid"
	"github.com/vedran77/projectdesk/internal/domain"
	"go.uber.org/zap"
)

// HubNotifier implements service.Notifier using the WebSocket Hub.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyProjectAssigned(project *domain.Project) {
	evt, err := NewEvent(EventTypeProjectAssigned, ProjectAssignedPayload{Project: *project})
	if err != nil {
		n.hub.log.Error("ws notifier: marshal error", zap.Error(err))
		return
	}
	n.hub.Broadcast(evt)
}

func (n *HubNotifier) NotifyProjectDeleted(projectID uuid.UUID) {
	evt, err := NewEvent(EventTypeProjectDeleted, ProjectDeletedPayload{ID: projectID})
	if err != nil {
		n.hub.log.Error("ws notifier: marshal error", zap.Error(err))
		return
	}
	n.hub.Broadcast(evt)
}
