package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/shoply-app/shoply-backend/pkg/db/models"
)

// UserDTO is the public profile payload returned to clients.
// Password hash and OTP state never leave the service layer.
type UserDTO struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	BirthYear  int       `json:"birth_year"`
	Role       string    `json:"role"`
	IsVerified bool      `json:"is_verified"`
	Userpic    *string   `json:"userpic,omitempty"`
	Address    *string   `json:"address,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewUserDTO builds the public payload from the persisted model.
func NewUserDTO(user *models.User) UserDTO {
	return UserDTO{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		BirthYear:  user.BirthYear,
		Role:       string(user.Role),
		IsVerified: user.IsVerified,
		Userpic:    user.Userpic,
		Address:    user.Address,
		CreatedAt:  user.CreatedAt,
	}
}

// ChangeUsernameInput renames the account.
type ChangeUsernameInput struct {
	Username string `json:"username" validate:"required,min=3,max=32,alphanum"`
}

// ChangeBirthYearInput updates the stored birth year.
type ChangeBirthYearInput struct {
	BirthYear int `json:"birth_year" validate:"required,gte=1900,lte=2100"`
}

// ChangeAddressInput updates the default shipping address.
type ChangeAddressInput struct {
	Address string `json:"address" validate:"required,max=255"`
}

// ChangePasswordInput rotates the password; the current one must match.
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// ChangeEmailInput moves the account to a new address. The password must be
// re-entered and a fresh password pair supplied; the account drops back to
// unverified until the new address confirms its OTP.
type ChangeEmailInput struct {
	NewEmail        string `json:"new_email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}
