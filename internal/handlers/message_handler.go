package handlers

import (
	"net/http"

	"schoolpay_backend/internal/middleware"
	"schoolpay_backend/internal/models"
	"schoolpay_backend/internal/services"
	"schoolpay_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	*BaseHandler
	messageService services.MessageService
}

func NewMessageHandler(base *BaseHandler, messageService services.MessageService) *MessageHandler {
	return &MessageHandler{
		BaseHandler:    base,
		messageService: messageService,
	}
}

func (h *MessageHandler) RegisterRoutes(r *gin.RouterGroup) {
	student := r.Group("/messages")
	student.Use(middleware.AuthMiddleware(), middleware.RoleMiddleware(models.UserRoleStudent))
	{
		student.POST("", h.CreateMessage)
		student.GET("/mine", h.MyMessages)
		student.PUT("/:messageId/read", h.MarkRead)
	}

	shared := r.Group("/messages")
	shared.Use(middleware.AuthMiddleware())
	{
		shared.GET("/:messageId", h.GetMessage)
	}

	staff := r.Group("/staff/messages")
	staff.Use(middleware.AuthMiddleware(), middleware.RequireRoles(
		models.UserRoleCashier, models.UserRoleAdmin,
	))
	{
		staff.GET("", h.ListMessages)
		staff.POST("/:messageId/respond", h.Respond)
		staff.POST("/:messageId/close", h.Close)
	}
}

func (h *MessageHandler) CreateMessage(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateMessageRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	message, err := h.messageService.CreateMessage(c.Request.Context(), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

func (h *MessageHandler) MyMessages(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.MessageListRequest
	if !h.BindAndValidate_Query(c, &req) {
		return
	}

	messages, err := h.messageService.GetStudentMessages(userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

func (h *MessageHandler) GetMessage(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	role, _ := c.Get("role")
	requesterRole, _ := role.(models.UserRole)

	message, err := h.messageService.GetMessage(c.Param("messageId"), userID, requesterRole)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, message)
}

func (h *MessageHandler) MarkRead(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if err := h.messageService.MarkStudentRead(c.Param("messageId"), userID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Marked as read"})
}

func (h *MessageHandler) ListMessages(c *gin.Context) {
	var req dto.MessageListRequest
	if !h.BindAndValidate_Query(c, &req) {
		return
	}

	messages, err := h.messageService.ListMessages(&req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

func (h *MessageHandler) Respond(c *gin.Context) {
	cashierID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.RespondMessageRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	message, err := h.messageService.Respond(c.Request.Context(), c.Param("messageId"), cashierID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, message)
}

func (h *MessageHandler) Close(c *gin.Context) {
	if err := h.messageService.Close(c.Param("messageId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Thread closed"})
}
