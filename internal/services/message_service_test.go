package services

import (
	"context"
	"testing"

	"schoolpay_backend/internal/events"
	"schoolpay_backend/internal/models"
	"schoolpay_backend/internal/services/dto"
	"schoolpay_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMessageService(messageRepo *fakeMessageRepo, userRepo *fakeUserRepo) MessageService {
	return NewMessageService(messageRepo, userRepo, &fakeEmailSender{}, events.NewBus())
}

func TestCreateMessage_OpensThreadAsRead(t *testing.T) {
	t.Parallel()

	messageRepo := &fakeMessageRepo{}
	svc := newTestMessageService(messageRepo, seedStudent("student-1"))

	resp, err := svc.CreateMessage(context.Background(), "student-1", &dto.CreateMessageRequest{
		Subject: "Balance question",
		Body:    "How much do I still owe for this term?",
	})
	require.NoError(t, err)

	assert.Equal(t, models.MessageStatusOpen, resp.Status)
	assert.True(t, resp.StudentRead, "the author has obviously seen their own message")
	assert.Empty(t, resp.Response)
}

func TestRespond_AnswersOpenThread(t *testing.T) {
	t.Parallel()

	messageRepo := &fakeMessageRepo{}
	svc := newTestMessageService(messageRepo, seedStudent("student-1"))

	created, err := svc.CreateMessage(context.Background(), "student-1", &dto.CreateMessageRequest{
		Subject: "Balance question",
		Body:    "How much do I still owe?",
	})
	require.NoError(t, err)

	answered, err := svc.Respond(context.Background(), created.ID, "cashier-1", &dto.RespondMessageRequest{
		Response: "Your remaining balance is 4500.",
	})
	require.NoError(t, err)

	assert.Equal(t, models.MessageStatusAnswered, answered.Status)
	assert.Equal(t, "cashier-1", answered.CashierID)
	assert.Equal(t, "Your remaining balance is 4500.", answered.Response)
	assert.False(t, answered.StudentRead, "an answer flips the thread back to unread for the student")
	require.NotNil(t, answered.RespondedAt)
}

func TestRespond_RejectsClosedThread(t *testing.T) {
	t.Parallel()

	messageRepo := &fakeMessageRepo{}
	svc := newTestMessageService(messageRepo, seedStudent("student-1"))

	created, err := svc.CreateMessage(context.Background(), "student-1", &dto.CreateMessageRequest{
		Subject: "Old question",
		Body:    "Never mind.",
	})
	require.NoError(t, err)
	require.NoError(t, svc.Close(created.ID))

	_, err = svc.Respond(context.Background(), created.ID, "cashier-1", &dto.RespondMessageRequest{
		Response: "Too late.",
	})
	assert.ErrorIs(t, err, apperrors.ErrMessageClosed)
}

func TestClose_IsIdempotent(t *testing.T) {
	t.Parallel()

	messageRepo := &fakeMessageRepo{}
	svc := newTestMessageService(messageRepo, seedStudent("student-1"))

	created, err := svc.CreateMessage(context.Background(), "student-1", &dto.CreateMessageRequest{
		Subject: "Question",
		Body:    "Body",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Close(created.ID))
	require.NoError(t, svc.Close(created.ID), "closing twice is a no-op")
}

func TestGetMessage_StudentsSeeOnlyTheirOwn(t *testing.T) {
	t.Parallel()

	messageRepo := &fakeMessageRepo{}
	svc := newTestMessageService(messageRepo, seedStudent("student-1"))

	created, err := svc.CreateMessage(context.Background(), "student-1", &dto.CreateMessageRequest{
		Subject: "Private",
		Body:    "Body",
	})
	require.NoError(t, err)

	_, err = svc.GetMessage(created.ID, "student-2", models.UserRoleStudent)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientPermissions)

	// Staff can read any thread.
	_, err = svc.GetMessage(created.ID, "cashier-1", models.UserRoleCashier)
	assert.NoError(t, err)
}

func TestMarkStudentRead(t *testing.T) {
	t.Parallel()

	messageRepo := &fakeMessageRepo{}
	svc := newTestMessageService(messageRepo, seedStudent("student-1"))

	created, err := svc.CreateMessage(context.Background(), "student-1", &dto.CreateMessageRequest{
		Subject: "Question",
		Body:    "Body",
	})
	require.NoError(t, err)

	_, err = svc.Respond(context.Background(), created.ID, "cashier-1", &dto.RespondMessageRequest{
		Response: "Answer",
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.MarkStudentRead(created.ID, "student-2"), apperrors.ErrInsufficientPermissions)

	require.NoError(t, svc.MarkStudentRead(created.ID, "student-1"))
	stored, err := messageRepo.FindByID(created.ID)
	require.NoError(t, err)
	assert.True(t, stored.StudentRead)

	// Already read: no-op.
	require.NoError(t, svc.MarkStudentRead(created.ID, "student-1"))
}
