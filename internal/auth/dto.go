package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/agronond/mandi-backend/pkg/enums"
)

// RequestOTPInput carries a login code request for a registered phone.
type RequestOTPInput struct {
	Phone string `json:"phone"`
	// IP is the caller's remote address, used for abuse throttling.
	IP string `json:"-"`
}

// RequestOTPResponse acknowledges an OTP send.
type RequestOTPResponse struct {
	ExpiresInSeconds int `json:"expires_in_seconds"`
	// DevCode carries the generated code when the expose-OTP flag is on.
	// Production deployments never set it.
	DevCode *string `json:"dev_code,omitempty"`
}

// VerifyOTPInput exchanges a delivered code for a session.
type VerifyOTPInput struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// StaffLoginInput authenticates a staff account by custom code or phone.
type StaffLoginInput struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// RefreshInput rotates an access/refresh pair.
type RefreshInput struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserSummary is the caller-facing profile returned with a login.
type UserSummary struct {
	ID          uuid.UUID      `json:"id"`
	Phone       string         `json:"phone"`
	Name        string         `json:"name"`
	Role        enums.UserRole `json:"role"`
	CustomCode  *string        `json:"custom_code,omitempty"`
	Village     *string        `json:"village,omitempty"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
}

// LoginResponse carries a freshly minted session.
type LoginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresAt    time.Time   `json:"expires_at"`
	User         UserSummary `json:"user"`
}
