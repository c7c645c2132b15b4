package dto

type UpdateProfileRequest struct {
	Name      *string `json:"name,omitempty" binding:"omitempty,max=120"`
	Email     *string `json:"email,omitempty" binding:"omitempty,email"`
	Program   *string `json:"program,omitempty"`
	YearLevel *int    `json:"year_level,omitempty" binding:"omitempty,min=1,max=6"`
}

type AdminCreateUserRequest struct {
	Name     string `json:"name" binding:"required,max=120"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required"`

	StudentNo string `json:"student_no,omitempty"`
	Program   string `json:"program,omitempty"`
	YearLevel int    `json:"year_level,omitempty"`
}

type UpdateUserStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active suspended"`
}

type UserListRequest struct {
	Role     string `form:"role"`
	Status   string `form:"status"`
	Program  string `form:"program"`
	Search   string `form:"search"`
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"page_size,default=20" binding:"min=1,max=100"`
}

type UserListResponse struct {
	Users      []UserDTO `json:"users"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}
