package auth

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgauth "github.com/agronond/mandi-backend/pkg/auth"
	"github.com/agronond/mandi-backend/pkg/auth/session"
	"github.com/agronond/mandi-backend/pkg/config"
	"github.com/agronond/mandi-backend/pkg/db/models"
	"github.com/agronond/mandi-backend/pkg/enums"
	pkgerrors "github.com/agronond/mandi-backend/pkg/errors"
	"github.com/agronond/mandi-backend/pkg/logger"
	"github.com/agronond/mandi-backend/pkg/security"
)

type fakeUserStore struct {
	users     map[uuid.UUID]*models.User
	lastLogin map[uuid.UUID]time.Time
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:     make(map[uuid.UUID]*models.User),
		lastLogin: make(map[uuid.UUID]time.Time),
	}
}

func (f *fakeUserStore) add(user *models.User) *models.User {
	f.users[user.ID] = user
	return user
}

func (f *fakeUserStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := f.users[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserStore) FindByPhone(_ context.Context, phone string) (*models.User, error) {
	for _, user := range f.users {
		if user.Phone == phone {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserStore) FindByCustomCode(_ context.Context, code string) (*models.User, error) {
	for _, user := range f.users {
		if user.CustomCode != nil && *user.CustomCode == code {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserStore) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	f.lastLogin[id] = at
	return nil
}

type fakeSessions struct {
	tokens map[string]string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{tokens: make(map[string]string)}
}

func (f *fakeSessions) Generate(_ context.Context, accessID string) (string, error) {
	token := "refresh-" + uuid.NewString()
	f.tokens[accessID] = token
	return token, nil
}

func (f *fakeSessions) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := f.tokens[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(f.tokens, oldAccessID)
	newAccessID := session.NewAccessID()
	token := "refresh-" + uuid.NewString()
	f.tokens[newAccessID] = token
	return newAccessID, token, nil
}

func (f *fakeSessions) Revoke(_ context.Context, accessID string) error {
	delete(f.tokens, accessID)
	return nil
}

type fakeOTPStore struct {
	codes    map[string]string
	counters map[string]int64
	windows  map[string]int64
}

func newFakeOTPStore() *fakeOTPStore {
	return &fakeOTPStore{
		codes:    make(map[string]string),
		counters: make(map[string]int64),
		windows:  make(map[string]int64),
	}
}

func (f *fakeOTPStore) StoreOTP(_ context.Context, phone, code string, _ time.Duration) error {
	f.codes[phone] = code
	return nil
}

func (f *fakeOTPStore) GetOTP(_ context.Context, phone string) (string, error) {
	code, ok := f.codes[phone]
	if !ok {
		return "", redislib.Nil
	}
	return code, nil
}

func (f *fakeOTPStore) ConsumeOTP(_ context.Context, phone string) error {
	delete(f.codes, phone)
	return nil
}

func (f *fakeOTPStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	f.windows[scope]++
	return f.windows[scope] <= limit, f.windows[scope], nil
}

func (f *fakeOTPStore) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	f.counters[key]++
	return f.counters[key], nil
}

func (f *fakeOTPStore) CounterKey(name string) string {
	return "test:counter:" + name
}

func (f *fakeOTPStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.counters, key)
		delete(f.codes, key)
	}
	return nil
}

type authFixtures struct {
	users    *fakeUserStore
	sessions *fakeSessions
	otp      *fakeOTPStore
	jwt      config.JWTConfig
	svc      Service
}

func newAuthFixtures(t *testing.T, mutate func(*ServiceParams)) *authFixtures {
	t.Helper()

	f := &authFixtures{
		users:    newFakeUserStore(),
		sessions: newFakeSessions(),
		otp:      newFakeOTPStore(),
		jwt: config.JWTConfig{
			Secret:            "test-secret",
			Issuer:            "agronond-test",
			ExpirationMinutes: 15,
		},
	}

	params := ServiceParams{
		Users:    f.users,
		Sessions: f.sessions,
		OTP:      f.otp,
		JWT:      f.jwt,
		OTPCfg: config.OTPConfig{
			TTL:            5 * time.Minute,
			Digits:         6,
			RequestWindow:  time.Minute,
			PerPhoneLimit:  3,
			PerIPLimit:     20,
			MaxVerifyTries: 5,
		},
		Flags:  config.FeatureFlagsConfig{ExposeOTP: true},
		Logger: logger.New(logger.Options{ServiceName: "auth-test", Level: zerolog.ErrorLevel, Output: io.Discard}),
	}
	if mutate != nil {
		mutate(&params)
	}

	svc, err := NewService(params)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fakeUserStore) farmer(phone string) *models.User {
	return f.add(&models.User{
		ID:       uuid.New(),
		Phone:    phone,
		Name:     "Ramesh Patel",
		Role:     enums.UserRoleFarmer,
		IsActive: true,
	})
}

func requireErrorCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr, "expected typed error, got %v", err)
	require.Equal(t, code, appErr.Code())
}

func TestRequestOTPIssuesCode(t *testing.T) {
	f := newAuthFixtures(t, nil)
	f.users.farmer("9876543210")

	resp, err := f.svc.RequestOTP(context.Background(), RequestOTPInput{Phone: "9876543210", IP: "10.0.0.1"})
	require.NoError(t, err)
	require.Equal(t, 300, resp.ExpiresInSeconds)
	require.NotNil(t, resp.DevCode)
	require.Len(t, *resp.DevCode, 6)
	require.Equal(t, *resp.DevCode, f.otp.codes["9876543210"])
}

func TestRequestOTPHidesCodeWithoutFlag(t *testing.T) {
	f := newAuthFixtures(t, func(p *ServiceParams) {
		p.Flags.ExposeOTP = false
	})
	f.users.farmer("9876543210")

	resp, err := f.svc.RequestOTP(context.Background(), RequestOTPInput{Phone: "9876543210"})
	require.NoError(t, err)
	require.Nil(t, resp.DevCode)
}

func TestRequestOTPUnknownPhone(t *testing.T) {
	f := newAuthFixtures(t, nil)

	_, err := f.svc.RequestOTP(context.Background(), RequestOTPInput{Phone: "9876543210"})
	requireErrorCode(t, err, pkgerrors.CodeNotFound)
}

func TestRequestOTPInvalidPhone(t *testing.T) {
	f := newAuthFixtures(t, nil)

	_, err := f.svc.RequestOTP(context.Background(), RequestOTPInput{Phone: "12345"})
	requireErrorCode(t, err, pkgerrors.CodeValidation)
}

func TestRequestOTPPhoneRateLimit(t *testing.T) {
	f := newAuthFixtures(t, func(p *ServiceParams) {
		p.OTPCfg.PerPhoneLimit = 1
	})
	f.users.farmer("9876543210")

	_, err := f.svc.RequestOTP(context.Background(), RequestOTPInput{Phone: "9876543210"})
	require.NoError(t, err)

	_, err = f.svc.RequestOTP(context.Background(), RequestOTPInput{Phone: "9876543210"})
	requireErrorCode(t, err, pkgerrors.CodeRateLimit)
}

func TestVerifyOTPIssuesSession(t *testing.T) {
	f := newAuthFixtures(t, nil)
	farmer := f.users.farmer("9876543210")

	resp, err := f.svc.RequestOTP(context.Background(), RequestOTPInput{Phone: "9876543210"})
	require.NoError(t, err)

	login, err := f.svc.VerifyOTP(context.Background(), VerifyOTPInput{Phone: "9876543210", Code: *resp.DevCode})
	require.NoError(t, err)
	require.NotEmpty(t, login.AccessToken)
	require.NotEmpty(t, login.RefreshToken)
	require.Equal(t, farmer.ID, login.User.ID)
	require.Equal(t, enums.UserRoleFarmer, login.User.Role)

	claims, err := pkgauth.ParseAccessToken(f.jwt, login.AccessToken)
	require.NoError(t, err)
	require.Equal(t, farmer.ID, claims.UserID)
	require.Equal(t, "9876543210", claims.Phone)
	require.Equal(t, login.RefreshToken, f.sessions.tokens[claims.ID])

	_, recorded := f.users.lastLogin[farmer.ID]
	require.True(t, recorded)

	// The code is single-use.
	_, err = f.svc.VerifyOTP(context.Background(), VerifyOTPInput{Phone: "9876543210", Code: *resp.DevCode})
	requireErrorCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestVerifyOTPWrongCode(t *testing.T) {
	f := newAuthFixtures(t, nil)
	f.users.farmer("9876543210")

	_, err := f.svc.RequestOTP(context.Background(), RequestOTPInput{Phone: "9876543210"})
	require.NoError(t, err)

	_, err = f.svc.VerifyOTP(context.Background(), VerifyOTPInput{Phone: "9876543210", Code: "000000"})
	requireErrorCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestVerifyOTPAttemptBudget(t *testing.T) {
	f := newAuthFixtures(t, func(p *ServiceParams) {
		p.OTPCfg.MaxVerifyTries = 2
	})
	f.users.farmer("9876543210")

	resp, err := f.svc.RequestOTP(context.Background(), RequestOTPInput{Phone: "9876543210"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = f.svc.VerifyOTP(context.Background(), VerifyOTPInput{Phone: "9876543210", Code: "000000"})
		requireErrorCode(t, err, pkgerrors.CodeUnauthorized)
	}

	// Budget exhausted: even the right code is refused now.
	_, err = f.svc.VerifyOTP(context.Background(), VerifyOTPInput{Phone: "9876543210", Code: *resp.DevCode})
	requireErrorCode(t, err, pkgerrors.CodeRateLimit)
}

func TestVerifyOTPBudgetResetsOnNewCode(t *testing.T) {
	f := newAuthFixtures(t, func(p *ServiceParams) {
		p.OTPCfg.MaxVerifyTries = 1
	})
	f.users.farmer("9876543210")

	_, err := f.svc.RequestOTP(context.Background(), RequestOTPInput{Phone: "9876543210"})
	require.NoError(t, err)
	_, err = f.svc.VerifyOTP(context.Background(), VerifyOTPInput{Phone: "9876543210", Code: "000000"})
	requireErrorCode(t, err, pkgerrors.CodeUnauthorized)

	resp, err := f.svc.RequestOTP(context.Background(), RequestOTPInput{Phone: "9876543210"})
	require.NoError(t, err)

	_, err = f.svc.VerifyOTP(context.Background(), VerifyOTPInput{Phone: "9876543210", Code: *resp.DevCode})
	require.NoError(t, err)
}

func TestStaffLoginByCustomCode(t *testing.T) {
	f := newAuthFixtures(t, nil)

	hash, err := security.HashPassword("committee-secret", config.PasswordConfig{})
	require.NoError(t, err)
	code := "MCDB-2026-001"
	f.users.add(&models.User{
		ID:           uuid.New(),
		Phone:        "9000000001",
		Name:         "Mandi Clerk",
		Role:         enums.UserRoleCommittee,
		CustomCode:   &code,
		PasswordHash: &hash,
		IsActive:     true,
	})

	login, err := f.svc.StaffLogin(context.Background(), StaffLoginInput{Identifier: "mcdb-2026-001", Password: "committee-secret"})
	require.NoError(t, err)
	require.Equal(t, enums.UserRoleCommittee, login.User.Role)
	require.NotNil(t, login.User.CustomCode)

	_, err = f.svc.StaffLogin(context.Background(), StaffLoginInput{Identifier: "MCDB-2026-001", Password: "wrong"})
	requireErrorCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestStaffLoginRejectsNonStaff(t *testing.T) {
	f := newAuthFixtures(t, nil)
	f.users.farmer("9876543210")

	_, err := f.svc.StaffLogin(context.Background(), StaffLoginInput{Identifier: "9876543210", Password: "anything"})
	requireErrorCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestStaffLoginDisabledAccount(t *testing.T) {
	f := newAuthFixtures(t, nil)

	hash, err := security.HashPassword("secret", config.PasswordConfig{})
	require.NoError(t, err)
	code := "ADM-2026-001"
	f.users.add(&models.User{
		ID:           uuid.New(),
		Phone:        "9000000002",
		Name:         "Retired Admin",
		Role:         enums.UserRoleAdmin,
		CustomCode:   &code,
		PasswordHash: &hash,
		IsActive:     false,
	})

	_, err = f.svc.StaffLogin(context.Background(), StaffLoginInput{Identifier: "ADM-2026-001", Password: "secret"})
	requireErrorCode(t, err, pkgerrors.CodeForbidden)
}

func TestRefreshRotatesSession(t *testing.T) {
	f := newAuthFixtures(t, nil)
	f.users.farmer("9876543210")

	resp, err := f.svc.RequestOTP(context.Background(), RequestOTPInput{Phone: "9876543210"})
	require.NoError(t, err)
	login, err := f.svc.VerifyOTP(context.Background(), VerifyOTPInput{Phone: "9876543210", Code: *resp.DevCode})
	require.NoError(t, err)

	rotated, err := f.svc.Refresh(context.Background(), RefreshInput{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	require.NoError(t, err)
	require.NotEqual(t, login.AccessToken, rotated.AccessToken)
	require.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	// The old pair is dead after rotation.
	_, err = f.svc.Refresh(context.Background(), RefreshInput{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	requireErrorCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestRefreshRejectsForgedToken(t *testing.T) {
	f := newAuthFixtures(t, nil)

	_, err := f.svc.Refresh(context.Background(), RefreshInput{
		AccessToken:  "not-a-jwt",
		RefreshToken: "whatever",
	})
	requireErrorCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newAuthFixtures(t, nil)
	f.users.farmer("9876543210")

	resp, err := f.svc.RequestOTP(context.Background(), RequestOTPInput{Phone: "9876543210"})
	require.NoError(t, err)
	login, err := f.svc.VerifyOTP(context.Background(), VerifyOTPInput{Phone: "9876543210", Code: *resp.DevCode})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(context.Background(), login.AccessToken))
	require.Empty(t, f.sessions.tokens)

	_, err = f.svc.Refresh(context.Background(), RefreshInput{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	requireErrorCode(t, err, pkgerrors.CodeUnauthorized)
}
