package dto

import "github.com/fileflow/fileflow-api/internal/models"

// LoginRequest is the payload for authenticating a user.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=2,max=64"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginResponse carries the issued token and the authenticated profile.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// PasswordResetRequest asks admins to reset the named account's password.
type PasswordResetRequest struct {
	Username string `json:"username" validate:"required,min=2,max=64"`
}

// UserResponse serializes a user without credential material.
type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Team     string `json:"team"`
}

// NewUserResponse converts a User model into a DTO.
func NewUserResponse(model models.User) UserResponse {
	return UserResponse{
		ID:       model.ID,
		Username: model.Username,
		Email:    model.Email,
		Role:     model.Role,
		Team:     model.Team,
	}
}
