package auth

import (
	"github.com/google/uuid"

	"github.com/dulcemocka/ordering-backend/pkg/db/models"
	"github.com/dulcemocka/ordering-backend/pkg/enums"
)

// RegisterRequest captures the payload for creating a customer account.
type RegisterRequest struct {
	Name     string  `json:"name" validate:"required"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	Phone    *string `json:"phone,omitempty"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries the expired access token and the refresh token
// paired with it.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ChangePasswordRequest rotates the signed-in user's password. The current
// password is checked in the service because accounts created without one
// (legacy imports) may not have a hash yet.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// UserView is the account shape returned by the auth endpoints.
type UserView struct {
	ID     uuid.UUID      `json:"id"`
	Name   string         `json:"name"`
	Email  string         `json:"email"`
	Phone  *string        `json:"phone,omitempty"`
	Role   enums.UserRole `json:"role"`
	Points int            `json:"points"`
}

// AuthResponse contains the token pair and user produced by a successful
// register, login, or refresh.
type AuthResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	User         UserView `json:"user"`
}

func userViewFromModel(user *models.User) UserView {
	return UserView{
		ID:     user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Phone:  user.Phone,
		Role:   user.Role,
		Points: user.Points,
	}
}
