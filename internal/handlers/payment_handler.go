package handlers

import (
	"net/http"

	"schoolpay_backend/internal/middleware"
	"schoolpay_backend/internal/models"
	"schoolpay_backend/internal/repositories"
	"schoolpay_backend/internal/services"
	"schoolpay_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	*BaseHandler
	paymentService services.PaymentService
}

func NewPaymentHandler(base *BaseHandler, paymentService services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:    base,
		paymentService: paymentService,
	}
}

func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup) {
	// The gateway posts here server-to-server, no portal auth.
	r.POST("/payments/checkout/result", h.CheckoutResult)

	student := r.Group("/payments")
	student.Use(middleware.AuthMiddleware(), middleware.RoleMiddleware(models.UserRoleStudent))
	{
		student.POST("/checkout", h.InitiateCheckout)
		student.GET("/mine", h.MyPayments)
		student.GET("/balance", h.MyBalance)
	}

	staff := r.Group("/staff/payments")
	staff.Use(middleware.AuthMiddleware(), middleware.RequireRoles(
		models.UserRoleCashier, models.UserRoleBusinessOffice, models.UserRoleAdmin,
	))
	{
		staff.GET("", h.ListPayments)
		staff.GET("/:paymentId", h.GetPayment)
	}

	cashier := r.Group("/staff/payments")
	cashier.Use(middleware.AuthMiddleware(), middleware.RequireRoles(
		models.UserRoleCashier, models.UserRoleAdmin,
	))
	{
		cashier.POST("/record", h.RecordPayment)
	}
}

func (h *PaymentHandler) InitiateCheckout(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.InitiateCheckoutRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.paymentService.InitiateCheckout(c.Request.Context(), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// CheckoutResult answers the gateway with the plain-text body it expects, not
// the JSON envelope the rest of the API uses.
func (h *PaymentHandler) CheckoutResult(c *gin.Context) {
	var req dto.CheckoutResultRequest
	if err := c.ShouldBind(&req); err != nil {
		c.String(http.StatusBadRequest, "bad request")
		return
	}

	body, err := h.paymentService.HandleCheckoutResult(c.Request.Context(), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.String(http.StatusOK, body)
}

func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	cashierID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.RecordPaymentRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	payment, err := h.paymentService.RecordPayment(c.Request.Context(), cashierID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, payment)
}

func (h *PaymentHandler) MyPayments(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	page, pageSize := ParsePagination(c)
	criteria := repositories.PaymentCriteria{
		Status:   models.PaymentStatus(c.Query("status")),
		Term:     c.Query("term"),
		Page:     page,
		PageSize: pageSize,
	}

	payments, err := h.paymentService.GetStudentPayments(userID, criteria)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, payments)
}

func (h *PaymentHandler) MyBalance(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	balance, err := h.paymentService.GetStudentBalance(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, balance)
}

func (h *PaymentHandler) ListPayments(c *gin.Context) {
	var req dto.PaymentListRequest
	if !h.BindAndValidate_Query(c, &req) {
		return
	}

	payments, err := h.paymentService.ListPayments(&req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, payments)
}

func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.paymentService.GetPayment(c.Param("paymentId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}
