package auth

import (
	"github.com/google/uuid"
)

// User is an authenticated player, registered or guest.
type User struct {
	ID          uuid.UUID
	Email       *string
	DisplayName string
	UserType    string // "registered" or "guest"
	IsGuest     bool
}

// TokenPair holds access and refresh tokens.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// RegisterRequest for email/password registration.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest for email/password authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GuestRequest creates an ephemeral guest account so a player can start
// a run without signing up.
type GuestRequest struct {
	DeviceFingerprint string `json:"device_fingerprint"`
	DisplayName       string `json:"display_name"`
}

// ConvertGuestRequest upgrades a guest to a registered account, keeping
// its id so the guest's runs and mastery carry over.
type ConvertGuestRequest struct {
	GuestID  uuid.UUID `json:"guest_id"`
	Email    string    `json:"email"`
	Password string    `json:"password"`
}

// ForgotPasswordRequest starts the password reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest completes the password reset flow.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// OAuth provider names.
const (
	OAuthProviderGoogle = "google"
)
