package services

import (
	"encoding/json"

	"schoolpay_backend/internal/models"
	"schoolpay_backend/internal/repositories"
	"schoolpay_backend/internal/services/dto"
	"schoolpay_backend/pkg/apperrors"
)

type NotificationService interface {
	ListNotifications(userID string, req *dto.NotificationListRequest) (*dto.NotificationListResponse, error)
	GetUnreadCount(userID string) (int64, error)
	MarkAsRead(notificationID, userID string) error
	MarkAllAsRead(userID string) (*dto.MarkAllReadResponse, error)
	DeleteNotification(notificationID, userID string) error
	GetStats(userID string) (*dto.NotificationStatsResponse, error)
}

type NotificationServiceImpl struct {
	notificationRepo repositories.NotificationRepository
}

func NewNotificationService(notificationRepo repositories.NotificationRepository) NotificationService {
	return &NotificationServiceImpl{notificationRepo: notificationRepo}
}

func (s *NotificationServiceImpl) ListNotifications(userID string, req *dto.NotificationListRequest) (*dto.NotificationListResponse, error) {
	criteria := repositories.NotificationCriteria{
		UnreadOnly: req.UnreadOnly,
		Page:       req.Page,
		PageSize:   req.PageSize,
	}

	notifications, total, err := s.notificationRepo.FindUserNotifications(userID, criteria)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	unread, err := s.notificationRepo.GetUnreadCount(userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	out := make([]dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		out = append(out, NotificationToDTO(&notifications[i]))
	}

	return &dto.NotificationListResponse{
		Notifications: out,
		Total:         total,
		UnreadCount:   unread,
		Page:          req.Page,
		PageSize:      req.PageSize,
		TotalPages:    totalPages(total, req.PageSize),
	}, nil
}

func (s *NotificationServiceImpl) GetUnreadCount(userID string) (int64, error) {
	count, err := s.notificationRepo.GetUnreadCount(userID)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	return count, nil
}

// MarkAsRead flips a single notification to read. Read is terminal; marking
// an already read notification again is a no-op, never an error.
func (s *NotificationServiceImpl) MarkAsRead(notificationID, userID string) error {
	notification, err := s.notificationRepo.FindByID(notificationID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrNotificationNotFound) {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}

	if notification.UserID != userID {
		return apperrors.ErrInsufficientPermissions
	}

	if notification.IsRead {
		return nil
	}

	if err := s.notificationRepo.MarkAsRead(notificationID); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *NotificationServiceImpl) MarkAllAsRead(userID string) (*dto.MarkAllReadResponse, error) {
	marked, err := s.notificationRepo.MarkAllAsRead(userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.MarkAllReadResponse{MarkedCount: marked}, nil
}

// DeleteNotification removes a read notification. Unread rows stay put so a
// user cannot lose a notice they never saw.
func (s *NotificationServiceImpl) DeleteNotification(notificationID, userID string) error {
	notification, err := s.notificationRepo.FindByID(notificationID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrNotificationNotFound) {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}

	if notification.UserID != userID {
		return apperrors.ErrInsufficientPermissions
	}

	if !notification.IsRead {
		return apperrors.ErrNotificationUnread
	}

	if err := s.notificationRepo.Delete(notificationID); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *NotificationServiceImpl) GetStats(userID string) (*dto.NotificationStatsResponse, error) {
	stats, err := s.notificationRepo.GetUserNotificationStats(userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.NotificationStatsResponse{
		TotalNotifications: stats.TotalNotifications,
		UnreadCount:        stats.UnreadCount,
		ReadCount:          stats.ReadCount,
		TodayCount:         stats.TodayCount,
	}, nil
}

func NotificationToDTO(notification *models.Notification) dto.NotificationResponse {
	out := dto.NotificationResponse{
		ID:        notification.ID,
		UserID:    notification.UserID,
		Message:   notification.Message,
		Link:      notification.Link,
		IsRead:    notification.IsRead,
		ReadAt:    notification.ReadAt,
		CreatedAt: notification.CreatedAt,
	}

	if len(notification.Data) > 0 {
		var data map[string]interface{}
		if err := json.Unmarshal(notification.Data, &data); err == nil {
			out.Data = data
		}
	}

	return out
}
