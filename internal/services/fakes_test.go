package services

import (
	"fmt"
	"sync"
	"time"

	"schoolpay_backend/internal/models"
	"schoolpay_backend/internal/repositories"
)

const (
	eventuallyWait = time.Second
	eventuallyTick = 10 * time.Millisecond
)

// In-memory fakes for the repository interfaces. Only the methods the
// services under test actually touch have real behavior; the rest return
// zero values.

type fakeNotificationRepo struct {
	mu      sync.Mutex
	rows    map[string]*models.Notification // keyed by user_id|content_hash
	nextID  int
	creates int
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{rows: make(map[string]*models.Notification)}
}

func (f *fakeNotificationRepo) key(userID, hash string) string {
	return userID + "|" + hash
}

func (f *fakeNotificationRepo) CreateUnique(notification *models.Notification) (*models.Notification, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := f.key(notification.UserID, notification.ContentHash)
	if existing, ok := f.rows[key]; ok {
		return existing, false, nil
	}

	f.nextID++
	f.creates++
	stored := *notification
	stored.ID = fmt.Sprintf("n-%d", f.nextID)
	stored.CreatedAt = time.Now()
	f.rows[key] = &stored
	return &stored, true, nil
}

func (f *fakeNotificationRepo) FindByID(id string) (*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.ID == id {
			return row, nil
		}
	}
	return nil, repositories.ErrNotificationNotFound
}

func (f *fakeNotificationRepo) FindByUserAndHash(userID, contentHash string) (*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[f.key(userID, contentHash)]; ok {
		return row, nil
	}
	return nil, repositories.ErrNotificationNotFound
}

func (f *fakeNotificationRepo) FindUserNotifications(userID string, criteria repositories.NotificationCriteria) ([]models.Notification, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Notification
	for _, row := range f.rows {
		if row.UserID == userID {
			out = append(out, *row)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeNotificationRepo) MarkAsRead(notificationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.ID == notificationID {
			now := time.Now()
			row.IsRead = true
			row.ReadAt = &now
			return nil
		}
	}
	return repositories.ErrNotificationNotFound
}

func (f *fakeNotificationRepo) MarkAllAsRead(userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var marked int64
	now := time.Now()
	for _, row := range f.rows {
		if row.UserID == userID && !row.IsRead {
			row.IsRead = true
			row.ReadAt = &now
			marked++
		}
	}
	return marked, nil
}

func (f *fakeNotificationRepo) Delete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, row := range f.rows {
		if row.ID == id {
			delete(f.rows, key)
			return nil
		}
	}
	return repositories.ErrNotificationNotFound
}

func (f *fakeNotificationRepo) CleanOldRead(olderThan time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeNotificationRepo) GetUnreadCount(userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, row := range f.rows {
		if row.UserID == userID && !row.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationRepo) GetUserNotificationStats(userID string) (*repositories.NotificationStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &repositories.NotificationStats{}
	for _, row := range f.rows {
		if row.UserID != userID {
			continue
		}
		stats.TotalNotifications++
		if row.IsRead {
			stats.ReadCount++
		} else {
			stats.UnreadCount++
		}
	}
	return stats, nil
}

func (f *fakeNotificationRepo) countForUser(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, row := range f.rows {
		if row.UserID == userID {
			count++
		}
	}
	return count
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments []models.Payment
	nextID   int

	pendingOnline    int64
	pendingOnlineErr error
	pendingAll       int64
	pendingAllErr    error
	pendingToday     int64
	pendingTodayErr  error
}

func (f *fakePaymentRepo) Create(payment *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.payments {
		if f.payments[i].Reference == payment.Reference {
			return repositories.ErrDuplicateReference
		}
	}

	f.nextID++
	if payment.ID == "" {
		payment.ID = fmt.Sprintf("pay-%d", f.nextID)
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now()
	}
	f.payments = append(f.payments, *payment)
	return nil
}

func (f *fakePaymentRepo) FindByID(id string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.payments {
		if f.payments[i].ID == id {
			out := f.payments[i]
			return &out, nil
		}
	}
	return nil, repositories.ErrPaymentNotFound
}

func (f *fakePaymentRepo) FindByReference(reference string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.payments {
		if f.payments[i].Reference == reference {
			out := f.payments[i]
			return &out, nil
		}
	}
	return nil, repositories.ErrPaymentNotFound
}

func (f *fakePaymentRepo) FindByStudent(studentID string, criteria repositories.PaymentCriteria) ([]models.Payment, int64, error) {
	return nil, 0, nil
}

func (f *fakePaymentRepo) FindWithFilter(criteria repositories.PaymentFilter) ([]models.Payment, int64, error) {
	return nil, 0, nil
}

func (f *fakePaymentRepo) UpdateStatus(paymentID string, status models.PaymentStatus, paidAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.payments {
		if f.payments[i].ID == paymentID {
			f.payments[i].Status = status
			f.payments[i].PaidAt = paidAt
			return nil
		}
	}
	return repositories.ErrPaymentNotFound
}

func (f *fakePaymentRepo) CountPendingOnline() (int64, error) {
	return f.pendingOnline, f.pendingOnlineErr
}

func (f *fakePaymentRepo) CountPendingAll() (int64, error) {
	return f.pendingAll, f.pendingAllErr
}

func (f *fakePaymentRepo) CountPendingToday() (int64, error) {
	return f.pendingToday, f.pendingTodayErr
}

func (f *fakePaymentRepo) FindInRange(from, to time.Time, limit, offset int) ([]models.Payment, error) {
	var inRange []models.Payment
	for i := range f.payments {
		created := f.payments[i].CreatedAt
		if !created.Before(from) && created.Before(to) {
			inRange = append(inRange, f.payments[i])
		}
	}
	if offset >= len(inRange) {
		return nil, nil
	}
	end := offset + limit
	if end > len(inRange) {
		end = len(inRange)
	}
	return inRange[offset:end], nil
}

func (f *fakePaymentRepo) GetStudentTotals(studentID string) (*repositories.StudentPaymentTotals, error) {
	return &repositories.StudentPaymentTotals{}, nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []models.SupportMessage
	nextID   int

	openCount int64
	openErr   error
}

func (f *fakeMessageRepo) Create(message *models.SupportMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	if message.ID == "" {
		message.ID = fmt.Sprintf("msg-%d", f.nextID)
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	f.messages = append(f.messages, *message)
	return nil
}

func (f *fakeMessageRepo) FindByID(id string) (*models.SupportMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.messages {
		if f.messages[i].ID == id {
			out := f.messages[i]
			return &out, nil
		}
	}
	return nil, repositories.ErrMessageNotFound
}

func (f *fakeMessageRepo) FindByStudent(studentID string, criteria repositories.MessageCriteria) ([]models.SupportMessage, int64, error) {
	return nil, 0, nil
}

func (f *fakeMessageRepo) FindWithFilter(criteria repositories.MessageFilter) ([]models.SupportMessage, int64, error) {
	return nil, 0, nil
}

func (f *fakeMessageRepo) Respond(messageID, cashierID, response string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.messages {
		if f.messages[i].ID == messageID {
			now := time.Now()
			f.messages[i].CashierID = cashierID
			f.messages[i].Response = response
			f.messages[i].Status = models.MessageStatusAnswered
			f.messages[i].StudentRead = false
			f.messages[i].RespondedAt = &now
			return nil
		}
	}
	return repositories.ErrMessageNotFound
}

func (f *fakeMessageRepo) UpdateStatus(messageID string, status models.MessageStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.messages {
		if f.messages[i].ID == messageID {
			f.messages[i].Status = status
			return nil
		}
	}
	return repositories.ErrMessageNotFound
}

func (f *fakeMessageRepo) MarkStudentRead(messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.messages {
		if f.messages[i].ID == messageID {
			f.messages[i].StudentRead = true
			return nil
		}
	}
	return repositories.ErrMessageNotFound
}

func (f *fakeMessageRepo) CountOpen() (int64, error) { return f.openCount, f.openErr }

func (f *fakeMessageRepo) CountUnreadForStudent(studentID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for i := range f.messages {
		m := &f.messages[i]
		if m.StudentID == studentID && m.Status == models.MessageStatusAnswered && !m.StudentRead {
			count++
		}
	}
	return count, nil
}

type fakeUserRepo struct {
	usersByRole map[models.UserRole][]models.User
	usersByID   map[string]models.User
}

func (f *fakeUserRepo) FindByID(id string) (*models.User, error) {
	if user, ok := f.usersByID[id]; ok {
		return &user, nil
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) FindByEmail(email string) (*models.User, error) {
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) FindByStudentNo(studentNo string) (*models.User, error) {
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) Create(user *models.User) error { return nil }
func (f *fakeUserRepo) Update(user *models.User) error { return nil }

func (f *fakeUserRepo) UpdateStatus(userID string, status models.UserStatus) error { return nil }
func (f *fakeUserRepo) UpdatePassword(userID, passwordHash string) error           { return nil }
func (f *fakeUserRepo) Delete(userID string) error                                 { return nil }

func (f *fakeUserRepo) FindByRole(role models.UserRole, limit, offset int) ([]models.User, error) {
	return f.usersByRole[role], nil
}

func (f *fakeUserRepo) CountByRole(role models.UserRole) (int64, error) {
	return int64(len(f.usersByRole[role])), nil
}

func (f *fakeUserRepo) FindAll(limit, offset int) ([]models.User, error) { return nil, nil }
func (f *fakeUserRepo) CountAll() (int64, error)                         { return 0, nil }

func (f *fakeUserRepo) FindWithFilter(criteria repositories.UserFilter) ([]models.User, int64, error) {
	return nil, 0, nil
}

type fakePusher struct {
	mu     sync.Mutex
	pushes []string // user ids, in push order
}

func (f *fakePusher) PushToUser(userID string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes = append(f.pushes, userID)
}

func (f *fakePusher) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pushes)
}

type fakeEmailSender struct {
	mu       sync.Mutex
	receipts []string // references, in send order
}

func (f *fakeEmailSender) Send(to, subject, body string) error { return nil }

func (f *fakeEmailSender) SendPaymentReceipt(to, studentName, reference string, amount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receipts = append(f.receipts, reference)
	return nil
}

func (f *fakeEmailSender) SendMessageAnswered(to, studentName, subject string) error { return nil }

func userWithID(id string, role models.UserRole) models.User {
	user := models.User{Role: role, Status: models.UserStatusActive, Email: id + "@example.com", Name: id}
	user.ID = id
	return user
}
