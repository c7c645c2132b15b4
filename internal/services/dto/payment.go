package dto

import (
	"time"

	"schoolpay_backend/internal/models"
)

type InitiateCheckoutRequest struct {
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Term        string  `json:"term" binding:"required"`
	Description string  `json:"description" binding:"omitempty,max=500"`
}

type InitiateCheckoutResponse struct {
	PaymentID   string  `json:"payment_id"`
	Reference   string  `json:"reference"`
	Amount      float64 `json:"amount"`
	CheckoutURL string  `json:"checkout_url"`
}

// RecordPaymentRequest is the cashier counter flow: money already changed
// hands, the payment lands as completed.
type RecordPaymentRequest struct {
	StudentID   string  `json:"student_id" binding:"required,uuid"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Method      string  `json:"method" binding:"required,payment_method"`
	Term        string  `json:"term" binding:"required"`
	Description string  `json:"description" binding:"omitempty,max=500"`
}

type CheckoutResultRequest struct {
	OutSum         string `form:"OutSum" binding:"required"`
	InvID          string `form:"InvId" binding:"required"`
	SignatureValue string `form:"SignatureValue" binding:"required"`
}

type PaymentResponse struct {
	ID          string               `json:"id"`
	StudentID   string               `json:"student_id"`
	Amount      float64              `json:"amount"`
	Status      models.PaymentStatus `json:"status"`
	Method      models.PaymentMethod `json:"method"`
	Reference   string               `json:"reference,omitempty"`
	Description string               `json:"description,omitempty"`
	Term        string               `json:"term"`
	RecordedBy  string               `json:"recorded_by,omitempty"`
	PaidAt      *time.Time           `json:"paid_at,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

type PaymentListRequest struct {
	StudentID string `form:"student_id"`
	Status    string `form:"status"`
	Method    string `form:"method"`
	Term      string `form:"term"`
	DateFrom  string `form:"date_from"`
	DateTo    string `form:"date_to"`
	Page      int    `form:"page,default=1" binding:"min=1"`
	PageSize  int    `form:"page_size,default=20" binding:"min=1,max=100"`
}

type PaymentListResponse struct {
	Payments   []PaymentResponse `json:"payments"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

type StudentBalanceResponse struct {
	TotalPaid    float64 `json:"total_paid"`
	TotalPending float64 `json:"total_pending"`
	PaymentCount int64   `json:"payment_count"`
}
