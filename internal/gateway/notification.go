package gateway

import (
	"context"
	"net/http"

	"task-marketplace/pkg/apperr"
	"task-marketplace/pkg/utils"

	"go.uber.org/zap"
)

type notificationClient struct {
	*client
	log *zap.Logger
}

// NewNotifier returns a no-op notifier when no notification URL is configured.
func NewNotifier(cfg utils.GatewayConfig, log *zap.Logger) Notifier {
	log = log.With(zap.String("gateway", "notification"))
	if cfg.NotificationURL == "" {
		return logNotifier{log: log}
	}
	return &notificationClient{client: newClient(cfg.NotificationURL, cfg), log: log}
}

func (c *notificationClient) Notify(ctx context.Context, n Notification) error {
	if err := c.do(ctx, http.MethodPost, "/notifications", n, nil); err != nil {
		return apperr.ExternalFailureErr(err, "send %s notification to %s", n.Event, n.RecipientID)
	}
	return nil
}

type logNotifier struct {
	log *zap.Logger
}

func (l logNotifier) Notify(ctx context.Context, n Notification) error {
	l.log.Info("Notification",
		zap.String("recipient_id", n.RecipientID.String()),
		zap.String("event", n.Event),
		zap.String("subject", n.Subject),
	)
	return nil
}
