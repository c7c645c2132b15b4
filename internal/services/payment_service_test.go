package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"schoolpay_backend/internal/events"
	"schoolpay_backend/internal/models"
	"schoolpay_backend/internal/services/dto"
	"schoolpay_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPaymentService(paymentRepo *fakePaymentRepo, userRepo *fakeUserRepo) (PaymentService, *fakeEmailSender, *events.Bus) {
	emailSender := &fakeEmailSender{}
	bus := events.NewBus()
	svc := NewPaymentService(paymentRepo, userRepo, testCheckoutService(), emailSender, bus)
	return svc, emailSender, bus
}

func resultSignature(amount float64, reference string) string {
	plain := fmt.Sprintf("%.2f:%s:%s", amount, reference, "pw-two")
	sum := md5.Sum([]byte(plain))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

func seedStudent(id string) *fakeUserRepo {
	return &fakeUserRepo{usersByID: map[string]models.User{
		id: userWithID(id, models.UserRoleStudent),
	}}
}

func TestInitiateCheckout_CreatesPendingOnlinePayment(t *testing.T) {
	t.Parallel()

	paymentRepo := &fakePaymentRepo{}
	svc, _, _ := newTestPaymentService(paymentRepo, seedStudent("student-1"))

	resp, err := svc.InitiateCheckout(context.Background(), "student-1", &dto.InitiateCheckoutRequest{
		Amount: 1500.50,
		Term:   "2026-1",
	})
	require.NoError(t, err)

	assert.Len(t, resp.Reference, 12, "gateway invoice ids are 12-digit numerics")
	assert.Contains(t, resp.CheckoutURL, "InvId="+resp.Reference)
	assert.Contains(t, resp.CheckoutURL, "OutSum=1500.50")

	stored, findErr := paymentRepo.FindByReference(resp.Reference)
	require.NoError(t, findErr)
	assert.Equal(t, models.PaymentStatusPending, stored.Status)
	assert.Equal(t, models.PaymentMethodOnline, stored.Method)
	assert.Empty(t, stored.RecordedBy)
	assert.Nil(t, stored.PaidAt)
}

func TestInitiateCheckout_RejectsNonPositiveAmount(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestPaymentService(&fakePaymentRepo{}, seedStudent("student-1"))

	_, err := svc.InitiateCheckout(context.Background(), "student-1", &dto.InitiateCheckoutRequest{
		Amount: 0,
		Term:   "2026-1",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidPaymentAmount)
}

func TestHandleCheckoutResult_ConfirmsPendingPayment(t *testing.T) {
	t.Parallel()

	paymentRepo := &fakePaymentRepo{}
	pending := &models.Payment{
		StudentID: "student-1",
		Amount:    1500.50,
		Status:    models.PaymentStatusPending,
		Method:    models.PaymentMethodOnline,
		Reference: "482915307216",
	}
	require.NoError(t, paymentRepo.Create(pending))

	svc, emailSender, _ := newTestPaymentService(paymentRepo, seedStudent("student-1"))

	body, err := svc.HandleCheckoutResult(context.Background(), &dto.CheckoutResultRequest{
		OutSum:         "1500.50",
		InvID:          "482915307216",
		SignatureValue: resultSignature(1500.50, "482915307216"),
	})
	require.NoError(t, err)
	assert.Equal(t, "OK482915307216", body)

	stored, findErr := paymentRepo.FindByReference("482915307216")
	require.NoError(t, findErr)
	assert.Equal(t, models.PaymentStatusSucceeded, stored.Status)
	require.NotNil(t, stored.PaidAt)

	// Receipt email goes out in the background.
	assert.Eventually(t, func() bool {
		emailSender.mu.Lock()
		defer emailSender.mu.Unlock()
		return len(emailSender.receipts) == 1
	}, eventuallyWait, eventuallyTick)
}

func TestHandleCheckoutResult_RepeatCallbackIsIdempotent(t *testing.T) {
	t.Parallel()

	paymentRepo := &fakePaymentRepo{}
	require.NoError(t, paymentRepo.Create(&models.Payment{
		StudentID: "student-1",
		Amount:    1500.50,
		Status:    models.PaymentStatusPending,
		Method:    models.PaymentMethodOnline,
		Reference: "482915307216",
	}))

	svc, _, _ := newTestPaymentService(paymentRepo, seedStudent("student-1"))
	req := &dto.CheckoutResultRequest{
		OutSum:         "1500.50",
		InvID:          "482915307216",
		SignatureValue: resultSignature(1500.50, "482915307216"),
	}

	_, err := svc.HandleCheckoutResult(context.Background(), req)
	require.NoError(t, err)

	// The gateway retries on timeout; a second callback must answer OK.
	body, err := svc.HandleCheckoutResult(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "OK482915307216", body)
}

func TestHandleCheckoutResult_RejectsBadSignature(t *testing.T) {
	t.Parallel()

	paymentRepo := &fakePaymentRepo{}
	require.NoError(t, paymentRepo.Create(&models.Payment{
		StudentID: "student-1",
		Amount:    1500.50,
		Status:    models.PaymentStatusPending,
		Method:    models.PaymentMethodOnline,
		Reference: "482915307216",
	}))

	svc, _, _ := newTestPaymentService(paymentRepo, seedStudent("student-1"))

	_, err := svc.HandleCheckoutResult(context.Background(), &dto.CheckoutResultRequest{
		OutSum:         "1500.50",
		InvID:          "482915307216",
		SignatureValue: "FORGED",
	})
	assert.ErrorIs(t, err, apperrors.ErrBadCheckoutSignature)

	stored, findErr := paymentRepo.FindByReference("482915307216")
	require.NoError(t, findErr)
	assert.Equal(t, models.PaymentStatusPending, stored.Status, "a forged callback must not move the payment")
}

func TestHandleCheckoutResult_RejectsCancelledPayment(t *testing.T) {
	t.Parallel()

	paymentRepo := &fakePaymentRepo{}
	require.NoError(t, paymentRepo.Create(&models.Payment{
		StudentID: "student-1",
		Amount:    1500.50,
		Status:    models.PaymentStatusCancelled,
		Method:    models.PaymentMethodOnline,
		Reference: "482915307216",
	}))

	svc, _, _ := newTestPaymentService(paymentRepo, seedStudent("student-1"))

	_, err := svc.HandleCheckoutResult(context.Background(), &dto.CheckoutResultRequest{
		OutSum:         "1500.50",
		InvID:          "482915307216",
		SignatureValue: resultSignature(1500.50, "482915307216"),
	})
	assert.ErrorIs(t, err, apperrors.ErrPaymentNotPending)
}

func TestRecordPayment_CompletesImmediately(t *testing.T) {
	t.Parallel()

	paymentRepo := &fakePaymentRepo{}
	svc, _, _ := newTestPaymentService(paymentRepo, seedStudent("student-1"))

	resp, err := svc.RecordPayment(context.Background(), "cashier-1", &dto.RecordPaymentRequest{
		StudentID: "student-1",
		Amount:    2500,
		Method:    "cash",
		Term:      "2026-1",
	})
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusCompleted, resp.Status)
	assert.Equal(t, "cashier-1", resp.RecordedBy)
	require.NotNil(t, resp.PaidAt)
}

func TestRecordPayment_RejectsOnlineMethod(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestPaymentService(&fakePaymentRepo{}, seedStudent("student-1"))

	_, err := svc.RecordPayment(context.Background(), "cashier-1", &dto.RecordPaymentRequest{
		StudentID: "student-1",
		Amount:    2500,
		Method:    "online",
		Term:      "2026-1",
	})
	assert.Error(t, err, "online payments must go through checkout")
}

func TestRecordPayment_RejectsNonStudentTarget(t *testing.T) {
	t.Parallel()

	userRepo := &fakeUserRepo{usersByID: map[string]models.User{
		"cashier-2": userWithID("cashier-2", models.UserRoleCashier),
	}}
	svc, _, _ := newTestPaymentService(&fakePaymentRepo{}, userRepo)

	_, err := svc.RecordPayment(context.Background(), "cashier-1", &dto.RecordPaymentRequest{
		StudentID: "cashier-2",
		Amount:    2500,
		Method:    "cash",
		Term:      "2026-1",
	})
	assert.Error(t, err)
}
