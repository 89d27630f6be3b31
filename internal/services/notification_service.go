package services

import (
	"context"

	"vxness/internal/models"
	"vxness/internal/utils"
	"vxness/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationService is the notify port. Delivery is best-effort and
// fire-and-forget: a failure is logged and swallowed, never surfaced to the
// financial operation that triggered it.
type NotificationService interface {
	Notify(kind models.NotificationKind, recipient primitive.ObjectID, vars map[string]interface{})
}

type notificationService struct {
	logger *logger.Logger
}

func NewNotificationService(log *logger.Logger) NotificationService {
	return &notificationService{
		logger: log,
	}
}

func (s *notificationService) Notify(kind models.NotificationKind, recipient primitive.ObjectID, vars map[string]interface{}) {
	notification := &models.Notification{
		Kind:      kind,
		Recipient: recipient,
		Vars:      vars,
	}

	go s.deliver(notification)
}

func (s *notificationService) deliver(notification *models.Notification) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("panic", r).Error("Notification delivery panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), utils.NotificationTimeout)
	defer cancel()

	if err := s.send(ctx, notification); err != nil {
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"kind":      notification.Kind,
			"recipient": notification.Recipient.Hex(),
		}).Warn("Notification delivery failed")
	}
}

// send hands the notification to the delivery channel. The channel itself
// (email, push) lives outside this service; here we record the event.
func (s *notificationService) send(ctx context.Context, notification *models.Notification) error {
	s.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"kind":      notification.Kind,
		"recipient": notification.Recipient.Hex(),
		"vars":      notification.Vars,
	}).Info("Notification dispatched")

	return nil
}
