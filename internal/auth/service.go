package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	pkgauth "github.com/agronond/mandi-backend/pkg/auth"
	"github.com/agronond/mandi-backend/pkg/auth/session"
	"github.com/agronond/mandi-backend/pkg/config"
	"github.com/agronond/mandi-backend/pkg/db/models"
	pkgerrors "github.com/agronond/mandi-backend/pkg/errors"
	"github.com/agronond/mandi-backend/pkg/logger"
	"github.com/agronond/mandi-backend/pkg/security"

	"github.com/google/uuid"
)

const invalidCredentialsMessage = "invalid credentials"

var phonePattern = regexp.MustCompile(`^[6-9][0-9]{9}$`)

// userRepository is the slice of the users repository the auth flows need.
type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	FindByCustomCode(ctx context.Context, code string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// sessionManager matches pkg/auth/session.Manager.
type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// otpStore matches the Redis client surface used for login codes.
type otpStore interface {
	StoreOTP(ctx context.Context, phone, code string, ttl time.Duration) error
	GetOTP(ctx context.Context, phone string) (string, error)
	ConsumeOTP(ctx context.Context, phone string) error
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	CounterKey(name string) string
	Del(ctx context.Context, keys ...string) error
}

// Service exposes the authentication flows.
type Service interface {
	RequestOTP(ctx context.Context, input RequestOTPInput) (*RequestOTPResponse, error)
	VerifyOTP(ctx context.Context, input VerifyOTPInput) (*LoginResponse, error)
	StaffLogin(ctx context.Context, input StaffLoginInput) (*LoginResponse, error)
	Refresh(ctx context.Context, input RefreshInput) (*LoginResponse, error)
	Logout(ctx context.Context, accessToken string) error
}

type service struct {
	users    userRepository
	sessions sessionManager
	otp      otpStore
	jwt      config.JWTConfig
	otpCfg   config.OTPConfig
	flags    config.FeatureFlagsConfig
	logg     *logger.Logger
	now      func() time.Time
}

// ServiceParams bundles the dependencies for NewService.
type ServiceParams struct {
	Users    userRepository
	Sessions sessionManager
	OTP      otpStore
	JWT      config.JWTConfig
	OTPCfg   config.OTPConfig
	Flags    config.FeatureFlagsConfig
	Logger   *logger.Logger
}

// NewService constructs the auth service.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.OTP == nil {
		return nil, fmt.Errorf("otp store is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		users:    params.Users,
		sessions: params.Sessions,
		otp:      params.OTP,
		jwt:      params.JWT,
		otpCfg:   params.OTPCfg,
		flags:    params.Flags,
		logg:     params.Logger,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// RequestOTP issues a short-lived login code for a registered phone.
func (s *service) RequestOTP(ctx context.Context, input RequestOTPInput) (*RequestOTPResponse, error) {
	phone := strings.TrimSpace(input.Phone)
	if !phonePattern.MatchString(phone) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone must be a valid 10-digit mobile number")
	}

	user, err := s.findActiveByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	allowed, _, err := s.otp.FixedWindowAllow(ctx, "otp_phone:"+phone, int64(s.otpCfg.PerPhoneLimit), s.otpCfg.RequestWindow)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking otp rate limit")
	}
	if !allowed {
		return nil, pkgerrors.New(pkgerrors.CodeRateLimit, "too many codes requested for this phone")
	}
	if ip := strings.TrimSpace(input.IP); ip != "" {
		allowed, _, err = s.otp.FixedWindowAllow(ctx, "otp_ip:"+ip, int64(s.otpCfg.PerIPLimit), s.otpCfg.RequestWindow)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking otp rate limit")
		}
		if !allowed {
			return nil, pkgerrors.New(pkgerrors.CodeRateLimit, "too many codes requested from this address")
		}
	}

	code, err := generateCode(s.otpCfg.Digits)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating otp")
	}
	if err := s.otp.StoreOTP(ctx, phone, code, s.otpCfg.TTL); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storing otp")
	}
	// A fresh code resets the verification attempt budget.
	if err := s.otp.Del(ctx, s.triesKey(phone)); err != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, user.ID.String()), "resetting otp attempt counter")
	}

	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "otp issued")

	resp := &RequestOTPResponse{ExpiresInSeconds: int(s.otpCfg.TTL.Seconds())}
	if s.flags.ExposeOTP {
		resp.DevCode = &code
	}
	return resp, nil
}

// VerifyOTP exchanges a delivered code for a session.
func (s *service) VerifyOTP(ctx context.Context, input VerifyOTPInput) (*LoginResponse, error) {
	phone := strings.TrimSpace(input.Phone)
	code := strings.TrimSpace(input.Code)
	if phone == "" || code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone and code are required")
	}

	user, err := s.findActiveByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	tries, err := s.otp.IncrWithTTL(ctx, s.triesKey(phone), s.otpCfg.TTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "tracking otp attempts")
	}
	if tries > int64(s.otpCfg.MaxVerifyTries) {
		return nil, pkgerrors.New(pkgerrors.CodeRateLimit, "too many verification attempts, request a new code")
	}

	stored, err := s.otp.GetOTP(ctx, phone)
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired code")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading otp")
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired code")
	}

	if err := s.otp.ConsumeOTP(ctx, phone); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consuming otp")
	}
	if err := s.otp.Del(ctx, s.triesKey(phone)); err != nil {
		s.logg.Warn(ctx, "clearing otp attempt counter")
	}

	return s.issueSession(ctx, user)
}

// StaffLogin authenticates a staff account with its custom code or phone
// plus password.
func (s *service) StaffLogin(ctx context.Context, input StaffLoginInput) (*LoginResponse, error) {
	identifier := strings.TrimSpace(input.Identifier)
	if identifier == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "identifier and password are required")
	}

	var (
		user *models.User
		err  error
	)
	if strings.Contains(identifier, "-") {
		user, err = s.users.FindByCustomCode(ctx, strings.ToUpper(identifier))
	} else {
		user, err = s.users.FindByPhone(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up user")
	}

	if !user.Role.IsStaff() || user.PasswordHash == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is disabled")
	}

	ok, err := security.VerifyPassword(input.Password, *user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verifying password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	return s.issueSession(ctx, user)
}

// Refresh rotates a refresh token and mints a new access token. The
// presented access token may already be expired; only its signature and
// issuer are checked.
func (s *service) Refresh(ctx context.Context, input RefreshInput) (*LoginResponse, error) {
	if strings.TrimSpace(input.AccessToken) == "" || strings.TrimSpace(input.RefreshToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "access token and refresh token are required")
	}

	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwt, input.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, input.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotating session")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is disabled")
	}

	now := s.now()
	access, err := pkgauth.MintAccessToken(s.jwt, now, pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Phone:  user.Phone,
		Role:   user.Role,
		JTI:    newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting access token")
	}

	return &LoginResponse{
		AccessToken:  access,
		RefreshToken: newRefresh,
		ExpiresAt:    now.Add(time.Duration(s.jwt.ExpirationMinutes) * time.Minute),
		User:         summarize(user),
	}, nil
}

// Logout revokes the server-side session tied to the access token. An
// expired token is still accepted so clients can always sign out.
func (s *service) Logout(ctx context.Context, accessToken string) error {
	if strings.TrimSpace(accessToken) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access token is required")
	}
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwt, accessToken)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}
	if err := s.sessions.Revoke(ctx, claims.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoking session")
	}
	return nil
}

func (s *service) findActiveByPhone(ctx context.Context, phone string) (*models.User, error) {
	user, err := s.users.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "phone is not registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is disabled")
	}
	return user, nil
}

func (s *service) issueSession(ctx context.Context, user *models.User) (*LoginResponse, error) {
	accessID := session.NewAccessID()
	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating session")
	}

	now := s.now()
	access, err := pkgauth.MintAccessToken(s.jwt, now, pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Phone:  user.Phone,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting access token")
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, user.ID.String()), "recording last login", err)
	}

	return &LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(time.Duration(s.jwt.ExpirationMinutes) * time.Minute),
		User:         summarize(user),
	}, nil
}

func (s *service) triesKey(phone string) string {
	return s.otp.CounterKey("otp_tries:" + phone)
}

func summarize(user *models.User) UserSummary {
	return UserSummary{
		ID:          user.ID,
		Phone:       user.Phone,
		Name:        user.Name,
		Role:        user.Role,
		CustomCode:  user.CustomCode,
		Village:     user.Village,
		LastLoginAt: user.LastLoginAt,
	}
}

func generateCode(digits int) (string, error) {
	if digits <= 0 {
		digits = 6
	}
	var b strings.Builder
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
