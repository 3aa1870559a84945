package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events and returns the subscribed types.
func (n *NotificationService) RegisterHandlers() []events.EventType {
	if n.dispatcher == nil {
		return nil
	}
	subscriptions := []struct {
		eventType events.EventType
		handler   events.EventHandler
	}{
		{events.EventTicketCreated, n.handleTicketCreated},
		{events.EventTicketEscalated, n.handleTicketEscalated},
		{events.EventTicketStatusChanged, n.handleTicketStatusChanged},
	}
	subscribed := make([]events.EventType, 0, len(subscriptions))
	for _, sub := range subscriptions {
		n.dispatcher.Subscribe(sub.eventType, sub.handler)
		subscribed = append(subscribed, sub.eventType)
	}
	return subscribed
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketCreated", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketEscalated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketEscalated", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return n.postSlack(ctx, event)
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketStatusChanged", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if ok && payload.NewStatus != payload.OldStatus {
		return n.postSlack(ctx, event)
	}
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}

// postSlack sends the event to the configured incoming webhook, if any.
func (n *NotificationService) postSlack(ctx context.Context, event events.Event) error {
	url := strings.TrimSpace(n.cfg.SlackWebhookURL)
	if url == "" {
		return nil
	}
	msg := slackMessage(event)
	if err := slack.PostWebhookContext(ctx, url, msg); err != nil {
		n.logger.Warn("slack notification failed",
			zap.String("ticket_id", event.TicketID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return fmt.Errorf("post slack webhook: %w", err)
	}
	return nil
}

func slackMessage(event events.Event) *slack.WebhookMessage {
	var title, body string
	switch p := event.Payload.(type) {
	case events.TicketCreatedPayload:
		title = fmt.Sprintf("Ticket %s escalated to %s", event.TicketID, p.Department)
		body = fmt.Sprintf("*Category:* %s   *Urgency:* %s   *Confidence:* %.0f%%\n>%s",
			p.Category, p.Urgency, p.Confidence*100, p.Preview)
	case events.TicketStatusChangedPayload:
		title = fmt.Sprintf("Ticket %s is now %s", event.TicketID, p.NewStatus)
		body = fmt.Sprintf("*Status:* %s → %s   *Department:* %s", p.OldStatus, p.NewStatus, p.NewDepartment)
	default:
		title = fmt.Sprintf("Ticket %s: %s", event.TicketID, event.Type)
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, title, false, false)),
	}
	if body != "" {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, body, false, false), nil, nil))
	}
	return &slack.WebhookMessage{
		Text:   title,
		Blocks: &slack.Blocks{BlockSet: blocks},
	}
}
