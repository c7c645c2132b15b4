package repositories

import (
	"errors"
	"time"

	"schoolpay_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrDuplicateReference   = errors.New("payment reference already exists")
	ErrPaymentStatusInvalid = errors.New("payment status transition not allowed")
)

type PaymentRepository interface {
	Create(payment *models.Payment) error
	FindByID(id string) (*models.Payment, error)
	FindByReference(reference string) (*models.Payment, error)
	FindByStudent(studentID string, criteria PaymentCriteria) ([]models.Payment, int64, error)
	FindWithFilter(criteria PaymentFilter) ([]models.Payment, int64, error)
	UpdateStatus(paymentID string, status models.PaymentStatus, paidAt *time.Time) error

	// Dashboard counters
	CountPendingOnline() (int64, error)
	CountPendingAll() (int64, error)
	CountPendingToday() (int64, error)

	// Report queries
	FindInRange(from, to time.Time, limit, offset int) ([]models.Payment, error)
	GetStudentTotals(studentID string) (*StudentPaymentTotals, error)
}

type PaymentRepositoryImpl struct {
	db *gorm.DB
}

type PaymentCriteria struct {
	Status   models.PaymentStatus `form:"status"`
	Term     string               `form:"term"`
	Page     int                  `form:"page" binding:"min=1"`
	PageSize int                  `form:"page_size" binding:"min=1,max=100"`
}

type PaymentFilter struct {
	StudentID string
	Status    models.PaymentStatus
	Method    models.PaymentMethod
	Term      string
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}

type StudentPaymentTotals struct {
	TotalPaid    float64 `json:"total_paid"`
	TotalPending float64 `json:"total_pending"`
	PaymentCount int64   `json:"payment_count"`
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &PaymentRepositoryImpl{db: db}
}

func (r *PaymentRepositoryImpl) Create(payment *models.Payment) error {
	err := r.db.Create(payment).Error
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateReference
	}
	return err
}

func (r *PaymentRepositoryImpl) FindByID(id string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.First(&payment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepositoryImpl) FindByReference(reference string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.First(&payment, "reference = ?", reference).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepositoryImpl) FindByStudent(studentID string, criteria PaymentCriteria) ([]models.Payment, int64, error) {
	var payments []models.Payment
	query := r.db.Where("student_id = ?", studentID)

	if criteria.Status != "" {
		query = query.Where("status = ?", criteria.Status)
	}
	if criteria.Term != "" {
		query = query.Where("term = ?", criteria.Term)
	}

	var total int64
	if err := query.Model(&models.Payment{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := criteria.PageSize
	offset := (criteria.Page - 1) * criteria.PageSize

	err := query.Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&payments).Error

	return payments, total, err
}

func (r *PaymentRepositoryImpl) FindWithFilter(criteria PaymentFilter) ([]models.Payment, int64, error) {
	var payments []models.Payment
	query := r.db.Model(&models.Payment{})

	if criteria.StudentID != "" {
		query = query.Where("student_id = ?", criteria.StudentID)
	}
	if criteria.Status != "" {
		query = query.Where("status = ?", criteria.Status)
	}
	if criteria.Method != "" {
		query = query.Where("method = ?", criteria.Method)
	}
	if criteria.Term != "" {
		query = query.Where("term = ?", criteria.Term)
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

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&payments).Error

	return payments, total, err
}

func (r *PaymentRepositoryImpl) UpdateStatus(paymentID string, status models.PaymentStatus, paidAt *time.Time) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if paidAt != nil {
		updates["paid_at"] = *paidAt
	}

	result := r.db.Model(&models.Payment{}).Where("id = ?", paymentID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

// Dashboard counters

func (r *PaymentRepositoryImpl) CountPendingOnline() (int64, error) {
	var count int64
	err := r.db.Model(&models.Payment{}).
		Where("status = ? AND method = ?", models.PaymentStatusPending, models.PaymentMethodOnline).
		Count(&count).Error
	return count, err
}

func (r *PaymentRepositoryImpl) CountPendingAll() (int64, error) {
	var count int64
	err := r.db.Model(&models.Payment{}).
		Where("status = ?", models.PaymentStatusPending).
		Count(&count).Error
	return count, err
}

func (r *PaymentRepositoryImpl) CountPendingToday() (int64, error) {
	now := time.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var count int64
	err := r.db.Model(&models.Payment{}).
		Where("status = ? AND created_at >= ?", models.PaymentStatusPending, todayStart).
		Count(&count).Error
	return count, err
}

// Report queries

func (r *PaymentRepositoryImpl) FindInRange(from, to time.Time, limit, offset int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").
		Limit(limit).Offset(offset).
		Find(&payments).Error
	return payments, err
}

func (r *PaymentRepositoryImpl) GetStudentTotals(studentID string) (*StudentPaymentTotals, error) {
	var totals StudentPaymentTotals

	err := r.db.Model(&models.Payment{}).
		Where("student_id = ? AND status IN ?", studentID,
			[]models.PaymentStatus{models.PaymentStatusCompleted, models.PaymentStatusSucceeded}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&totals.TotalPaid).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Model(&models.Payment{}).
		Where("student_id = ? AND status = ?", studentID, models.PaymentStatusPending).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&totals.TotalPending).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Model(&models.Payment{}).
		Where("student_id = ?", studentID).
		Count(&totals.PaymentCount).Error
	if err != nil {
		return nil, err
	}

	return &totals, nil
}
