package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/complaintrack/complaint-service/internal/config"
	"github.com/complaintrack/complaint-service/internal/events"
	"github.com/complaintrack/complaint-service/internal/notify"
)

// NotificationService turns domain events into outbound messages. It is a
// best-effort tail step: send failures are logged and never surfaced to the
// operation that raised the event.
type NotificationService struct {
	dispatcher events.Dispatcher
	gateway    notify.Gateway
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, gateway notify.Gateway, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		gateway:    gateway,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventCommentAdded, n.handleCommentAdded)
}

// handleTicketCreated notifies the administrative address about a new ticket.
func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}
	body := fmt.Sprintf("Ticket #%d: %s has been created by %s",
		event.TicketID, payload.Title, payload.SubmitterEmail)
	n.send(ctx, n.cfg.AdminEmail, "New Ticket Created", body, event)
	return nil
}

// handleTicketAssigned notifies the assigned agent.
func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return nil
	}
	body := fmt.Sprintf("Ticket #%d: %s has been assigned to you", event.TicketID, payload.Title)
	n.send(ctx, payload.AgentEmail, "Ticket Assigned", body, event)
	return nil
}

// handleTicketStatusChanged notifies the submitter about the new status.
func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return nil
	}
	body := fmt.Sprintf("Ticket #%d: %s status has been updated to %s",
		event.TicketID, payload.Title, payload.NewStatus)
	n.send(ctx, payload.SubmitterEmail, "Ticket Status Updated", body, event)
	return nil
}

// handleCommentAdded is audit-only; comments do not email anyone.
func (n *NotificationService) handleCommentAdded(ctx context.Context, event events.Event) error {
	n.logger.Info("comment activity",
		zap.Int64("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) send(ctx context.Context, to, subject, body string, event events.Event) {
	if to == "" {
		n.logger.Warn("notification skipped, no recipient",
			zap.Int64("ticket_id", event.TicketID), zap.String("event_type", string(event.Type)))
		return
	}
	if err := n.gateway.Send(ctx, to, subject, body); err != nil {
		n.logger.Error("notification send failed",
			zap.Int64("ticket_id", event.TicketID),
			zap.String("to", to),
			zap.Error(err))
	}
}
