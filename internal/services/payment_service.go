package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"schoolpay_backend/internal/events"
	"schoolpay_backend/internal/logger"
	"schoolpay_backend/internal/models"
	"schoolpay_backend/internal/repositories"
	"schoolpay_backend/internal/services/dto"
	"schoolpay_backend/pkg/apperrors"

	"log/slog"
)

type PaymentService interface {
	InitiateCheckout(ctx context.Context, studentID string, req *dto.InitiateCheckoutRequest) (*dto.InitiateCheckoutResponse, error)
	HandleCheckoutResult(ctx context.Context, req *dto.CheckoutResultRequest) (string, error)
	RecordPayment(ctx context.Context, cashierID string, req *dto.RecordPaymentRequest) (*dto.PaymentResponse, error)

	GetPayment(paymentID string) (*dto.PaymentResponse, error)
	GetStudentPayments(studentID string, criteria repositories.PaymentCriteria) (*dto.PaymentListResponse, error)
	ListPayments(req *dto.PaymentListRequest) (*dto.PaymentListResponse, error)
	GetStudentBalance(studentID string) (*dto.StudentBalanceResponse, error)
}

type PaymentServiceImpl struct {
	paymentRepo repositories.PaymentRepository
	userRepo    repositories.UserRepository
	checkout    *CheckoutService
	emailSender EmailSender
	bus         *events.Bus
}

func NewPaymentService(
	paymentRepo repositories.PaymentRepository,
	userRepo repositories.UserRepository,
	checkout *CheckoutService,
	emailSender EmailSender,
	bus *events.Bus,
) PaymentService {
	return &PaymentServiceImpl{
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
		checkout:    checkout,
		emailSender: emailSender,
		bus:         bus,
	}
}

// InitiateCheckout opens a pending online payment and hands back the hosted
// checkout URL for the gateway.
func (s *PaymentServiceImpl) InitiateCheckout(ctx context.Context, studentID string, req *dto.InitiateCheckoutRequest) (*dto.InitiateCheckoutResponse, error) {
	if req.Amount <= 0 {
		return nil, apperrors.ErrInvalidPaymentAmount
	}

	student, err := s.userRepo.FindByID(studentID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	payment := &models.Payment{
		StudentID:   studentID,
		Amount:      req.Amount,
		Status:      models.PaymentStatusPending,
		Method:      models.PaymentMethodOnline,
		Reference:   generateInvoiceReference(),
		Description: req.Description,
		Term:        req.Term,
	}

	if err := s.paymentRepo.Create(payment); err != nil {
		if apperrors.Is(err, repositories.ErrDuplicateReference) {
			// Invoice references are random; a collision means retry once.
			payment.Reference = generateInvoiceReference()
			if err := s.paymentRepo.Create(payment); err != nil {
				return nil, apperrors.InternalError(err)
			}
		} else {
			return nil, apperrors.InternalError(err)
		}
	}

	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Tuition payment, %s", req.Term)
	}

	checkoutURL, err := s.checkout.GenerateCheckoutURL(payment.Reference, payment.Amount, description, student.Email)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeExternalServiceError, "payment",
			"Payment provider error", http.StatusServiceUnavailable)
	}

	s.bus.Publish(ctx, events.Event{Type: events.EventPaymentCreated, Payment: payment})

	return &dto.InitiateCheckoutResponse{
		PaymentID:   payment.ID,
		Reference:   payment.Reference,
		Amount:      payment.Amount,
		CheckoutURL: checkoutURL,
	}, nil
}

// HandleCheckoutResult processes the gateway's server-to-server result
// callback. The expected reply body is "OK<InvId>". Confirming an already
// confirmed payment is a no-op so gateway retries stay idempotent.
func (s *PaymentServiceImpl) HandleCheckoutResult(ctx context.Context, req *dto.CheckoutResultRequest) (string, error) {
	amount, err := strconv.ParseFloat(req.OutSum, 64)
	if err != nil {
		return "", apperrors.ValidationError(map[string]string{"OutSum": "must be a number"})
	}

	if !s.checkout.VerifyResultSignature(amount, req.InvID, req.SignatureValue) {
		return "", apperrors.ErrBadCheckoutSignature
	}

	payment, err := s.paymentRepo.FindByReference(req.InvID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrPaymentNotFound) {
			return "", apperrors.ErrNotFound(err)
		}
		return "", apperrors.InternalError(err)
	}

	if payment.Status.IsCollected() {
		return "OK" + req.InvID, nil
	}
	if payment.Status != models.PaymentStatusPending {
		return "", apperrors.ErrPaymentNotPending
	}

	now := time.Now()
	prev := payment.Status
	if err := s.paymentRepo.UpdateStatus(payment.ID, models.PaymentStatusSucceeded, &now); err != nil {
		return "", apperrors.InternalError(err)
	}
	payment.Status = models.PaymentStatusSucceeded
	payment.PaidAt = &now

	s.sendReceipt(payment)
	s.bus.Publish(ctx, events.Event{
		Type:       events.EventPaymentStatusChanged,
		Payment:    payment,
		PrevStatus: string(prev),
	})

	return "OK" + req.InvID, nil
}

// RecordPayment is the counter flow: a cashier keys in money that already
// changed hands, so the payment is completed immediately.
func (s *PaymentServiceImpl) RecordPayment(ctx context.Context, cashierID string, req *dto.RecordPaymentRequest) (*dto.PaymentResponse, error) {
	if req.Amount <= 0 {
		return nil, apperrors.ErrInvalidPaymentAmount
	}

	method := models.PaymentMethod(req.Method)
	if method == models.PaymentMethodOnline {
		return nil, apperrors.ErrInvalidOperation("payment", "Online payments go through checkout, not the counter")
	}

	student, err := s.userRepo.FindByID(req.StudentID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}
	if student.Role != models.UserRoleStudent {
		return nil, apperrors.ErrInvalidOperation("payment", "Payments can only be recorded for student accounts")
	}

	now := time.Now()
	payment := &models.Payment{
		StudentID:   req.StudentID,
		Amount:      req.Amount,
		Status:      models.PaymentStatusCompleted,
		Method:      method,
		Reference:   generateInvoiceReference(),
		Description: req.Description,
		Term:        req.Term,
		RecordedBy:  cashierID,
		PaidAt:      &now,
	}

	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, apperrors.InternalError(err)
	}

	s.sendReceipt(payment)
	s.bus.Publish(ctx, events.Event{Type: events.EventPaymentCreated, Payment: payment})

	out := PaymentToDTO(payment)
	return &out, nil
}

func (s *PaymentServiceImpl) GetPayment(paymentID string) (*dto.PaymentResponse, error) {
	payment, err := s.paymentRepo.FindByID(paymentID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrPaymentNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	out := PaymentToDTO(payment)
	return &out, nil
}

func (s *PaymentServiceImpl) GetStudentPayments(studentID string, criteria repositories.PaymentCriteria) (*dto.PaymentListResponse, error) {
	payments, total, err := s.paymentRepo.FindByStudent(studentID, criteria)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return buildPaymentList(payments, total, criteria.Page, criteria.PageSize), nil
}

func (s *PaymentServiceImpl) ListPayments(req *dto.PaymentListRequest) (*dto.PaymentListResponse, error) {
	filter := repositories.PaymentFilter{
		StudentID: req.StudentID,
		Term:      req.Term,
		Page:      req.Page,
		PageSize:  req.PageSize,
	}
	if req.Status != "" {
		status := models.PaymentStatus(req.Status)
		if !models.ValidPaymentStatus(status) {
			return nil, apperrors.ErrInvalidStatus("payment", "Unknown payment status filter")
		}
		filter.Status = status
	}
	if req.Method != "" {
		method := models.PaymentMethod(req.Method)
		if !models.ValidPaymentMethod(method) {
			return nil, apperrors.ErrInvalidOperation("payment", "Unknown payment method filter")
		}
		filter.Method = method
	}
	if req.DateFrom != "" {
		from, err := time.Parse("2006-01-02", req.DateFrom)
		if err != nil {
			return nil, apperrors.ValidationError(map[string]string{"date_from": "must be YYYY-MM-DD"})
		}
		filter.DateFrom = &from
	}
	if req.DateTo != "" {
		to, err := time.Parse("2006-01-02", req.DateTo)
		if err != nil {
			return nil, apperrors.ValidationError(map[string]string{"date_to": "must be YYYY-MM-DD"})
		}
		end := to.AddDate(0, 0, 1)
		filter.DateTo = &end
	}

	payments, total, err := s.paymentRepo.FindWithFilter(filter)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return buildPaymentList(payments, total, req.Page, req.PageSize), nil
}

func (s *PaymentServiceImpl) GetStudentBalance(studentID string) (*dto.StudentBalanceResponse, error) {
	totals, err := s.paymentRepo.GetStudentTotals(studentID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.StudentBalanceResponse{
		TotalPaid:    totals.TotalPaid,
		TotalPending: totals.TotalPending,
		PaymentCount: totals.PaymentCount,
	}, nil
}

func (s *PaymentServiceImpl) sendReceipt(payment *models.Payment) {
	student, err := s.userRepo.FindByID(payment.StudentID)
	if err != nil {
		logger.Warn("receipt email skipped, student lookup failed",
			slog.String("payment_id", payment.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	go s.emailSender.SendPaymentReceipt(student.Email, student.Name, payment.Reference, payment.Amount)
}

func buildPaymentList(payments []models.Payment, total int64, page, pageSize int) *dto.PaymentListResponse {
	out := make([]dto.PaymentResponse, 0, len(payments))
	for i := range payments {
		out = append(out, PaymentToDTO(&payments[i]))
	}

	return &dto.PaymentListResponse{
		Payments:   out,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}
}

func PaymentToDTO(payment *models.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:          payment.ID,
		StudentID:   payment.StudentID,
		Amount:      payment.Amount,
		Status:      payment.Status,
		Method:      payment.Method,
		Reference:   payment.Reference,
		Description: payment.Description,
		Term:        payment.Term,
		RecordedBy:  payment.RecordedBy,
		PaidAt:      payment.PaidAt,
		CreatedAt:   payment.CreatedAt,
	}
}

// generateInvoiceReference returns a 12-digit numeric invoice id. The gateway
// only accepts numeric InvId values.
func generateInvoiceReference() string {
	max := big.NewInt(1_000_000_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return strconv.FormatInt(time.Now().UnixNano()%1_000_000_000_000, 10)
	}
	return fmt.Sprintf("%012d", n)
}
