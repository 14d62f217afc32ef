package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shoply-app/shoply-backend/pkg/enums"
)

// User represents the canonical identity entity.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Username     string     `gorm:"column:username;not null;uniqueIndex"`
	Email        string     `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	BirthYear    int        `gorm:"column:birth_year;not null"`
	Role         enums.Role `gorm:"column:role;type:text;not null;default:user"`
	IsVerified   bool       `gorm:"column:is_verified;not null;default:false"`
	OTP          *string    `gorm:"column:otp"`
	OTPExpiresAt *time.Time `gorm:"column:otp_expires_at"`
	Userpic      *string    `gorm:"column:userpic"`
	Address      *string    `gorm:"column:address"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
