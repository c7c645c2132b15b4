package dto

import (
	"time"

	"schoolpay_backend/internal/models"
)

type CreateMessageRequest struct {
	Subject string `json:"subject" binding:"required,max=200"`
	Body    string `json:"body" binding:"required,max=4000"`
}

type RespondMessageRequest struct {
	Response string `json:"response" binding:"required,max=4000"`
}

type MessageResponse struct {
	ID          string               `json:"id"`
	StudentID   string               `json:"student_id"`
	CashierID   string               `json:"cashier_id,omitempty"`
	Subject     string               `json:"subject"`
	Body        string               `json:"body"`
	Response    string               `json:"response,omitempty"`
	Status      models.MessageStatus `json:"status"`
	StudentRead bool                 `json:"student_read"`
	RespondedAt *time.Time           `json:"responded_at,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

type MessageListRequest struct {
	Status   string `form:"status"`
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"page_size,default=20" binding:"min=1,max=100"`
}

type MessageListResponse struct {
	Messages   []MessageResponse `json:"messages"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}
