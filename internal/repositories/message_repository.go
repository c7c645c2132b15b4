package repositories

import (
	"errors"
	"time"

	"schoolpay_backend/internal/models"

	"gorm.io/gorm"
)

var ErrMessageNotFound = errors.New("support message not found")

type MessageRepository interface {
	Create(message *models.SupportMessage) error
	FindByID(id string) (*models.SupportMessage, error)
	FindByStudent(studentID string, criteria MessageCriteria) ([]models.SupportMessage, int64, error)
	FindWithFilter(criteria MessageFilter) ([]models.SupportMessage, int64, error)
	Respond(messageID, cashierID, response string) error
	UpdateStatus(messageID string, status models.MessageStatus) error
	MarkStudentRead(messageID string) error

	CountOpen() (int64, error)
	CountUnreadForStudent(studentID string) (int64, error)
}

type MessageRepositoryImpl struct {
	db *gorm.DB
}

type MessageCriteria struct {
	Status   models.MessageStatus `form:"status"`
	Page     int                  `form:"page" binding:"min=1"`
	PageSize int                  `form:"page_size" binding:"min=1,max=100"`
}

type MessageFilter struct {
	StudentID string
	CashierID string
	Status    models.MessageStatus
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &MessageRepositoryImpl{db: db}
}

func (r *MessageRepositoryImpl) Create(message *models.SupportMessage) error {
	return r.db.Create(message).Error
}

func (r *MessageRepositoryImpl) FindByID(id string) (*models.SupportMessage, error) {
	var message models.SupportMessage
	err := r.db.First(&message, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return &message, nil
}

func (r *MessageRepositoryImpl) FindByStudent(studentID string, criteria MessageCriteria) ([]models.SupportMessage, int64, error) {
	var messages []models.SupportMessage
	query := r.db.Where("student_id = ?", studentID)

	if criteria.Status != "" {
		query = query.Where("status = ?", criteria.Status)
	}

	var total int64
	if err := query.Model(&models.SupportMessage{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := criteria.PageSize
	offset := (criteria.Page - 1) * criteria.PageSize

	err := query.Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&messages).Error

	return messages, total, err
}

func (r *MessageRepositoryImpl) FindWithFilter(criteria MessageFilter) ([]models.SupportMessage, int64, error) {
	var messages []models.SupportMessage
	query := r.db.Model(&models.SupportMessage{})

	if criteria.StudentID != "" {
		query = query.Where("student_id = ?", criteria.StudentID)
	}
	if criteria.CashierID != "" {
		query = query.Where("cashier_id = ?", criteria.CashierID)
	}
	if criteria.Status != "" {
		query = query.Where("status = ?", criteria.Status)
	}
	if criteria.DateFrom != nil {
		query = query.Where("created_at >= ?", criteria.DateFrom)
	}
	if criteria.DateTo != nil {
		query = query.Where("created_at <= ?", criteria.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := criteria.PageSize
	offset := (criteria.Page - 1) * criteria.PageSize

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&messages).Error

	return messages, total, err
}

// Respond stores the cashier's answer and flips the thread to answered. The
// student_read flag drops so the student's dashboard shows the reply as new.
func (r *MessageRepositoryImpl) Respond(messageID, cashierID, response string) error {
	result := r.db.Model(&models.SupportMessage{}).Where("id = ?", messageID).Updates(map[string]interface{}{
		"cashier_id":   cashierID,
		"response":     response,
		"status":       models.MessageStatusAnswered,
		"student_read": false,
		"responded_at": time.Now(),
		"updated_at":   time.Now(),
	})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *MessageRepositoryImpl) UpdateStatus(messageID string, status models.MessageStatus) error {
	result := r.db.Model(&models.SupportMessage{}).Where("id = ?", messageID).Updates(map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *MessageRepositoryImpl) MarkStudentRead(messageID string) error {
	result := r.db.Model(&models.SupportMessage{}).Where("id = ?", messageID).Updates(map[string]interface{}{
		"student_read": true,
		"updated_at":   time.Now(),
	})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *MessageRepositoryImpl) CountOpen() (int64, error) {
	var count int64
	err := r.db.Model(&models.SupportMessage{}).
		Where("status = ?", models.MessageStatusOpen).
		Count(&count).Error
	return count, err
}

func (r *MessageRepositoryImpl) CountUnreadForStudent(studentID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.SupportMessage{}).
		Where("student_id = ? AND student_read = ? AND status = ?",
			studentID, false, models.MessageStatusAnswered).
		Count(&count).Error
	return count, err
}
