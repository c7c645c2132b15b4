package services

import (
	"context"

	"schoolpay_backend/internal/events"
	"schoolpay_backend/internal/logger"
	"schoolpay_backend/internal/models"
	"schoolpay_backend/internal/repositories"
	"schoolpay_backend/internal/services/dto"
	"schoolpay_backend/pkg/apperrors"

	"log/slog"
)

type MessageService interface {
	CreateMessage(ctx context.Context, studentID string, req *dto.CreateMessageRequest) (*dto.MessageResponse, error)
	GetMessage(messageID, requesterID string, requesterRole models.UserRole) (*dto.MessageResponse, error)
	GetStudentMessages(studentID string, req *dto.MessageListRequest) (*dto.MessageListResponse, error)
	ListMessages(req *dto.MessageListRequest) (*dto.MessageListResponse, error)
	Respond(ctx context.Context, messageID, cashierID string, req *dto.RespondMessageRequest) (*dto.MessageResponse, error)
	Close(messageID string) error
	MarkStudentRead(messageID, studentID string) error
}

type MessageServiceImpl struct {
	messageRepo repositories.MessageRepository
	userRepo    repositories.UserRepository
	emailSender EmailSender
	bus         *events.Bus
}

func NewMessageService(
	messageRepo repositories.MessageRepository,
	userRepo repositories.UserRepository,
	emailSender EmailSender,
	bus *events.Bus,
) MessageService {
	return &MessageServiceImpl{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		emailSender: emailSender,
		bus:         bus,
	}
}

func (s *MessageServiceImpl) CreateMessage(ctx context.Context, studentID string, req *dto.CreateMessageRequest) (*dto.MessageResponse, error) {
	message := &models.SupportMessage{
		StudentID:   studentID,
		Subject:     req.Subject,
		Body:        req.Body,
		Status:      models.MessageStatusOpen,
		StudentRead: true,
	}

	if err := s.messageRepo.Create(message); err != nil {
		return nil, apperrors.InternalError(err)
	}

	s.bus.Publish(ctx, events.Event{Type: events.EventMessageCreated, Message: message})

	out := MessageToDTO(message)
	return &out, nil
}

func (s *MessageServiceImpl) GetMessage(messageID, requesterID string, requesterRole models.UserRole) (*dto.MessageResponse, error) {
	message, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrMessageNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	// Students see only their own threads.
	if requesterRole == models.UserRoleStudent && message.StudentID != requesterID {
		return nil, apperrors.ErrInsufficientPermissions
	}

	out := MessageToDTO(message)
	return &out, nil
}

func (s *MessageServiceImpl) GetStudentMessages(studentID string, req *dto.MessageListRequest) (*dto.MessageListResponse, error) {
	criteria := repositories.MessageCriteria{
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.Status != "" {
		criteria.Status = models.MessageStatus(req.Status)
	}

	messages, total, err := s.messageRepo.FindByStudent(studentID, criteria)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return buildMessageList(messages, total, req.Page, req.PageSize), nil
}

func (s *MessageServiceImpl) ListMessages(req *dto.MessageListRequest) (*dto.MessageListResponse, error) {
	filter := repositories.MessageFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.Status != "" {
		filter.Status = models.MessageStatus(req.Status)
	}

	messages, total, err := s.messageRepo.FindWithFilter(filter)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return buildMessageList(messages, total, req.Page, req.PageSize), nil
}

func (s *MessageServiceImpl) Respond(ctx context.Context, messageID, cashierID string, req *dto.RespondMessageRequest) (*dto.MessageResponse, error) {
	message, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrMessageNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	if message.Status == models.MessageStatusClosed {
		return nil, apperrors.ErrMessageClosed
	}

	if err := s.messageRepo.Respond(messageID, cashierID, req.Response); err != nil {
		return nil, apperrors.InternalError(err)
	}

	message, err = s.messageRepo.FindByID(messageID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	s.notifyStudentByEmail(message)
	s.bus.Publish(ctx, events.Event{Type: events.EventMessageAnswered, Message: message})

	out := MessageToDTO(message)
	return &out, nil
}

func (s *MessageServiceImpl) Close(messageID string) error {
	message, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrMessageNotFound) {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}

	if message.Status == models.MessageStatusClosed {
		return nil
	}

	if err := s.messageRepo.UpdateStatus(messageID, models.MessageStatusClosed); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *MessageServiceImpl) MarkStudentRead(messageID, studentID string) error {
	message, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrMessageNotFound) {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}

	if message.StudentID != studentID {
		return apperrors.ErrInsufficientPermissions
	}

	if message.StudentRead {
		return nil
	}

	if err := s.messageRepo.MarkStudentRead(messageID); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *MessageServiceImpl) notifyStudentByEmail(message *models.SupportMessage) {
	student, err := s.userRepo.FindByID(message.StudentID)
	if err != nil {
		logger.Warn("response email skipped, student lookup failed",
			slog.String("message_id", message.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	go s.emailSender.SendMessageAnswered(student.Email, student.Name, message.Subject)
}

func buildMessageList(messages []models.SupportMessage, total int64, page, pageSize int) *dto.MessageListResponse {
	out := make([]dto.MessageResponse, 0, len(messages))
	for i := range messages {
		out = append(out, MessageToDTO(&messages[i]))
	}

	return &dto.MessageListResponse{
		Messages:   out,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}
}

func MessageToDTO(message *models.SupportMessage) dto.MessageResponse {
	return dto.MessageResponse{
		ID:          message.ID,
		StudentID:   message.StudentID,
		CashierID:   message.CashierID,
		Subject:     message.Subject,
		Body:        message.Body,
		Response:    message.Response,
		Status:      message.Status,
		StudentRead: message.StudentRead,
		RespondedAt: message.RespondedAt,
		CreatedAt:   message.CreatedAt,
	}
}
