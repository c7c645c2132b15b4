package dto

import "time"

type UploadRequest struct {
	EntityType string `form:"entity_type" binding:"required,oneof=payment support_message profile"`
	EntityID   string `form:"entity_id" binding:"required"`
	Usage      string `form:"usage" binding:"required"`
}

type UploadResponse struct {
	ID           string    `json:"id"`
	EntityType   string    `json:"entity_type"`
	EntityID     string    `json:"entity_id"`
	Usage        string    `json:"usage"`
	OriginalName string    `json:"original_name"`
	MimeType     string    `json:"mime_type"`
	Size         int64     `json:"size"`
	URL          string    `json:"url"`
	CreatedAt    time.Time `json:"created_at"`
}

type UploadListResponse struct {
	Uploads    []UploadResponse `json:"uploads"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}
