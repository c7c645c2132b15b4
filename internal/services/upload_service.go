package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"

	"schoolpay_backend/internal/config"
	"schoolpay_backend/internal/models"
	"schoolpay_backend/internal/repositories"
	"schoolpay_backend/internal/services/dto"
	"schoolpay_backend/internal/storage"
	"schoolpay_backend/pkg/apperrors"

	"github.com/google/uuid"
)

type UploadService interface {
	Upload(ctx context.Context, userID string, req *dto.UploadRequest, file *multipart.FileHeader) (*dto.UploadResponse, error)
	GetUpload(uploadID, requesterID string, requesterRole models.UserRole) (*dto.UploadResponse, error)
	OpenFile(ctx context.Context, uploadID, requesterID string, requesterRole models.UserRole) (io.ReadCloser, *models.Upload, error)
	ListEntityUploads(entityType, entityID string) ([]dto.UploadResponse, error)
	ListUserUploads(userID string, page, pageSize int) (*dto.UploadListResponse, error)
	Delete(ctx context.Context, uploadID, requesterID string, requesterRole models.UserRole) error
}

type UploadServiceImpl struct {
	uploadRepo repositories.UploadRepository
	store      storage.Storage
	fileCfg    *config.FileConfig
}

func NewUploadService(uploadRepo repositories.UploadRepository, store storage.Storage) UploadService {
	return &UploadServiceImpl{
		uploadRepo: uploadRepo,
		store:      store,
		fileCfg:    &config.ReceiptFileConfig,
	}
}

func (s *UploadServiceImpl) Upload(ctx context.Context, userID string, req *dto.UploadRequest, file *multipart.FileHeader) (*dto.UploadResponse, error) {
	if err := s.validateUpload(req, file); err != nil {
		return nil, err
	}

	used, err := s.uploadRepo.GetUserStorageUsed(userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if used+file.Size > s.fileCfg.MaxUserStorage {
		return nil, apperrors.ErrStorageLimitExceeded
	}

	src, err := file.Open()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	defer src.Close()

	mimeType := file.Header.Get("Content-Type")
	path := fmt.Sprintf("%s/%s/%s%s", req.EntityType, req.EntityID, uuid.NewString(), filepath.Ext(file.Filename))

	if err := s.store.Save(ctx, path, src, mimeType); err != nil {
		return nil, apperrors.InternalError(err)
	}

	url, err := s.store.GetURL(ctx, path)
	if err != nil {
		url = ""
	}

	upload := &models.Upload{
		UserID:       userID,
		EntityType:   req.EntityType,
		EntityID:     req.EntityID,
		FileType:     filepath.Ext(file.Filename),
		Usage:        req.Usage,
		Path:         path,
		MimeType:     mimeType,
		Size:         file.Size,
		OriginalName: file.Filename,
		URL:          url,
	}

	if err := s.uploadRepo.Create(upload); err != nil {
		// The file is already on disk; orphaned blobs get swept later.
		s.store.Delete(ctx, path)
		return nil, apperrors.InternalError(err)
	}

	out := UploadToDTO(upload)
	return &out, nil
}

func (s *UploadServiceImpl) GetUpload(uploadID, requesterID string, requesterRole models.UserRole) (*dto.UploadResponse, error) {
	upload, err := s.findAuthorized(uploadID, requesterID, requesterRole)
	if err != nil {
		return nil, err
	}

	out := UploadToDTO(upload)
	return &out, nil
}

func (s *UploadServiceImpl) OpenFile(ctx context.Context, uploadID, requesterID string, requesterRole models.UserRole) (io.ReadCloser, *models.Upload, error) {
	upload, err := s.findAuthorized(uploadID, requesterID, requesterRole)
	if err != nil {
		return nil, nil, err
	}

	reader, err := s.store.Get(ctx, upload.Path)
	if err != nil {
		return nil, nil, apperrors.InternalError(err)
	}

	return reader, upload, nil
}

func (s *UploadServiceImpl) ListEntityUploads(entityType, entityID string) ([]dto.UploadResponse, error) {
	uploads, err := s.uploadRepo.FindByEntity(entityType, entityID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	out := make([]dto.UploadResponse, 0, len(uploads))
	for i := range uploads {
		out = append(out, UploadToDTO(&uploads[i]))
	}
	return out, nil
}

func (s *UploadServiceImpl) ListUserUploads(userID string, page, pageSize int) (*dto.UploadListResponse, error) {
	limit := pageSize
	offset := (page - 1) * pageSize

	uploads, total, err := s.uploadRepo.FindUserUploads(userID, limit, offset)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	out := make([]dto.UploadResponse, 0, len(uploads))
	for i := range uploads {
		out = append(out, UploadToDTO(&uploads[i]))
	}

	return &dto.UploadListResponse{
		Uploads:    out,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func (s *UploadServiceImpl) Delete(ctx context.Context, uploadID, requesterID string, requesterRole models.UserRole) error {
	upload, err := s.findAuthorized(uploadID, requesterID, requesterRole)
	if err != nil {
		return err
	}

	if err := s.uploadRepo.Delete(upload.ID); err != nil {
		return apperrors.InternalError(err)
	}

	s.store.Delete(ctx, upload.Path)
	return nil
}

// findAuthorized loads the upload and enforces ownership. Staff can see any
// file, students only their own.
func (s *UploadServiceImpl) findAuthorized(uploadID, requesterID string, requesterRole models.UserRole) (*models.Upload, error) {
	upload, err := s.uploadRepo.FindByID(uploadID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUploadNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	if requesterRole == models.UserRoleStudent && upload.UserID != requesterID {
		return nil, apperrors.ErrInsufficientPermissions
	}

	return upload, nil
}

func (s *UploadServiceImpl) validateUpload(req *dto.UploadRequest, file *multipart.FileHeader) error {
	if file.Size > s.fileCfg.MaxSize {
		return apperrors.ErrFileTooLarge
	}

	mimeType := file.Header.Get("Content-Type")
	allowedType := false
	for _, t := range s.fileCfg.AllowedTypes {
		if t == mimeType {
			allowedType = true
			break
		}
	}
	if !allowedType {
		return apperrors.ErrInvalidFileType
	}

	usages, ok := s.fileCfg.AllowedUsages[req.EntityType]
	if !ok {
		return apperrors.ErrInvalidUploadUsage
	}
	allowedUsage := false
	for _, u := range usages {
		if u == req.Usage {
			allowedUsage = true
			break
		}
	}
	if !allowedUsage {
		return apperrors.ErrInvalidUploadUsage
	}

	return nil
}

func UploadToDTO(upload *models.Upload) dto.UploadResponse {
	return dto.UploadResponse{
		ID:           upload.ID,
		EntityType:   upload.EntityType,
		EntityID:     upload.EntityID,
		Usage:        upload.Usage,
		OriginalName: upload.OriginalName,
		MimeType:     upload.MimeType,
		Size:         upload.Size,
		URL:          upload.URL,
		CreatedAt:    upload.CreatedAt,
	}
}
