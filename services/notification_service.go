package services

import (
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/prismlearn/mentor_platform/models"
	"gorm.io/gorm"
)

// Pusher is the live-delivery side of the dispatcher: the websocket hub in
// production, a fake in tests. Implementations must never block on a slow
// connection and must swallow per-connection failures.
type Pusher interface {
	SendToUser(userID uuid.UUID, event interface{}) int
}

// NotificationService is the two-phase dispatcher: the durable row is always
// written first, then the same payload is pushed best-effort to whatever live
// connections the recipient has. A recipient with zero connections still sees
// the notification on the next list call.
type NotificationService struct {
	db  *gorm.DB
	hub Pusher
}

func NewNotificationService(db *gorm.DB, hub Pusher) *NotificationService {
	return &NotificationService{db: db, hub: hub}
}

func (s *NotificationService) Notify(userID uuid.UUID, typ, title, message string, data models.NotificationData) (*models.Notification, error) {
	if data == nil {
		data = models.NotificationData{}
	}
	notification := models.Notification{
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Message: message,
		Data:    data,
	}
	if err := s.db.Create(&notification).Error; err != nil {
		return nil, err
	}

	if s.hub != nil {
		delivered := s.hub.SendToUser(userID, map[string]interface{}{
			"type":    "notification",
			"payload": notification,
		})
		if delivered == 0 {
			log.Printf("No live connections for user %s; notification %s stored for next poll", userID, notification.ID)
		}
	}

	return &notification, nil
}

// Page size bounds for notification listing. The cap keeps one request from
// pulling a user's entire history.
const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
)

func (s *NotificationService) ListForUser(userID uuid.UUID, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}
	var list []models.Notification
	err := s.db.Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// MarkRead flips is_read for one notification owned by requesterID. The flag
// only ever moves false -> true.
func (s *NotificationService) MarkRead(notificationID, requesterID uuid.UUID) error {
	var notification models.Notification
	if err := s.db.First(&notification, "id = ?", notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: notification", ErrNotFound)
		}
		return err
	}
	if notification.UserID != requesterID {
		return ErrForbidden
	}
	if notification.IsRead {
		return nil
	}
	return s.db.Model(&notification).Update("is_read", true).Error
}

func (s *NotificationService) MarkAllRead(userID uuid.UUID) error {
	return s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}
