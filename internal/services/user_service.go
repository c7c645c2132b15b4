package services

import (
	"schoolpay_backend/internal/auth"
	"schoolpay_backend/internal/models"
	"schoolpay_backend/internal/repositories"
	"schoolpay_backend/internal/services/dto"
	"schoolpay_backend/pkg/apperrors"
)

type UserService interface {
	GetProfile(userID string) (*dto.UserDTO, error)
	UpdateProfile(userID string, req *dto.UpdateProfileRequest) (*dto.UserDTO, error)

	// Admin operations
	CreateUser(req *dto.AdminCreateUserRequest) (*dto.UserDTO, error)
	GetUser(userID string) (*dto.UserDTO, error)
	ListUsers(req *dto.UserListRequest) (*dto.UserListResponse, error)
	UpdateStatus(userID string, status models.UserStatus) error
	DeleteUser(userID string) error
}

type UserServiceImpl struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &UserServiceImpl{userRepo: userRepo}
}

func (s *UserServiceImpl) GetProfile(userID string) (*dto.UserDTO, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	out := UserToDTO(user)
	return &out, nil
}

func (s *UserServiceImpl) UpdateProfile(userID string, req *dto.UpdateProfileRequest) (*dto.UserDTO, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Program != nil {
		user.Program = *req.Program
	}
	if req.YearLevel != nil {
		user.YearLevel = *req.YearLevel
	}

	if err := s.userRepo.Update(user); err != nil {
		if apperrors.Is(err, repositories.ErrUserAlreadyExists) {
			// A retried request can race its own first attempt. Re-read: if
			// the row already holds the requested state the update landed and
			// this is a success, otherwise another account owns the email.
			current, readErr := s.userRepo.FindByID(userID)
			if readErr == nil && current.Email == user.Email && current.Name == user.Name {
				out := UserToDTO(current)
				return &out, nil
			}
			return nil, apperrors.ErrEmailAlreadyExists
		}
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	out := UserToDTO(user)
	return &out, nil
}

// Admin operations

func (s *UserServiceImpl) CreateUser(req *dto.AdminCreateUserRequest) (*dto.UserDTO, error) {
	role, ok := models.NormalizeRole(req.Role)
	if !ok {
		return nil, apperrors.ErrInvalidUserRole
	}

	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.ErrWeakPassword
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		Role:         role,
		Status:       models.UserStatusActive,
		StudentNo:    req.StudentNo,
		Program:      req.Program,
		YearLevel:    req.YearLevel,
	}

	if err := s.userRepo.Create(user); err != nil {
		if apperrors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrEmailAlreadyExists
		}
		return nil, apperrors.InternalError(err)
	}

	out := UserToDTO(user)
	return &out, nil
}

func (s *UserServiceImpl) GetUser(userID string) (*dto.UserDTO, error) {
	return s.GetProfile(userID)
}

func (s *UserServiceImpl) ListUsers(req *dto.UserListRequest) (*dto.UserListResponse, error) {
	filter := repositories.UserFilter{
		Program:  req.Program,
		Search:   req.Search,
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	if req.Role != "" {
		role, ok := models.NormalizeRole(req.Role)
		if !ok {
			return nil, apperrors.ErrInvalidUserRole
		}
		filter.Role = role
	}
	if req.Status != "" {
		filter.Status = models.UserStatus(req.Status)
	}

	users, total, err := s.userRepo.FindWithFilter(filter)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	out := make([]dto.UserDTO, 0, len(users))
	for i := range users {
		out = append(out, UserToDTO(&users[i]))
	}

	return &dto.UserListResponse{
		Users:      out,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: totalPages(total, req.PageSize),
	}, nil
}

func (s *UserServiceImpl) UpdateStatus(userID string, status models.UserStatus) error {
	if err := s.userRepo.UpdateStatus(userID, status); err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *UserServiceImpl) DeleteUser(userID string) error {
	if err := s.userRepo.Delete(userID); err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}
	return nil
}

func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
