package users

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/agronond/mandi-backend/internal/audit"
	"github.com/agronond/mandi-backend/pkg/config"
	"github.com/agronond/mandi-backend/pkg/db/models"
	"github.com/agronond/mandi-backend/pkg/enums"
	pkgerrors "github.com/agronond/mandi-backend/pkg/errors"
	"github.com/agronond/mandi-backend/pkg/pagination"
	"github.com/agronond/mandi-backend/pkg/security"
)

type fakeUserRepo struct {
	byPhone map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byPhone: map[string]*models.User{}}
}

func (f *fakeUserRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	if _, ok := f.byPhone[user.Phone]; ok {
		return fmt.Errorf("UNIQUE constraint failed: users.phone")
	}
	stored := *user
	f.byPhone[user.Phone] = &stored
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	for _, user := range f.byPhone {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	user, ok := f.byPhone[phone]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) FindByCustomCode(ctx context.Context, code string) (*models.User, error) {
	for _, user := range f.byPhone {
		if user.CustomCode != nil && *user.CustomCode == code {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) List(ctx context.Context, params listUsersParams) ([]models.User, *pagination.Cursor, error) {
	var rows []models.User
	for _, user := range f.byPhone {
		if params.Role != nil && user.Role != *params.Role {
			continue
		}
		rows = append(rows, *user)
	}
	return rows, nil, nil
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	for _, user := range f.byPhone {
		if user.ID == id {
			user.LastLoginAt = &at
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error) {
	for _, user := range f.byPhone {
		if user.ID == id {
			user.IsActive = active
			return true, nil
		}
	}
	return false, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeAllocator struct {
	users map[enums.UserRole]int
}

func (f *fakeAllocator) NextLotCode(ctx context.Context, tx *gorm.DB) (string, error) {
	return "LOT-2026-001", nil
}

func (f *fakeAllocator) NextTransactionCode(ctx context.Context, tx *gorm.DB) (string, error) {
	return "TXN-2026-000001", nil
}

func (f *fakeAllocator) NextBillCode(ctx context.Context, tx *gorm.DB, party enums.SettlementParty) (string, error) {
	return "FB-2026-00001", nil
}

func (f *fakeAllocator) NextUserCode(ctx context.Context, tx *gorm.DB, role enums.UserRole) (string, error) {
	if f.users == nil {
		f.users = map[enums.UserRole]int{}
	}
	f.users[role]++
	return fmt.Sprintf("%s-2026-%03d", role.CodePrefix(), f.users[role]), nil
}

type fakeRecorder struct {
	records []audit.ChangeSet
}

func (f *fakeRecorder) Record(ctx context.Context, tx *gorm.DB, entityType string, entityID uuid.UUID, actor audit.Actor, changes audit.ChangeSet) error {
	f.records = append(f.records, changes)
	return nil
}

func newUsersService(t *testing.T) (Service, *fakeUserRepo, *fakeRecorder) {
	t.Helper()
	repo := newFakeUserRepo()
	recorder := &fakeRecorder{}
	svc, err := NewService(repo, fakeTxRunner{}, &fakeAllocator{}, recorder, config.PasswordConfig{})
	require.NoError(t, err)
	return svc, repo, recorder
}

func TestRegisterFarmer(t *testing.T) {
	svc, _, recorder := newUsersService(t)

	user, err := svc.Register(context.Background(), RegisterInput{
		Phone:   "9876543210",
		Name:    "Ramesh Patil",
		Role:    "farmer",
		Village: "Shirdi",
	})
	require.NoError(t, err)
	require.Equal(t, enums.UserRoleFarmer, user.Role)
	require.Nil(t, user.CustomCode, "farmers receive no custom code")
	require.Nil(t, user.PasswordHash)
	require.NotNil(t, user.Village)
	require.Len(t, recorder.records, 1)
	require.Equal(t, enums.AuditActionUserRegistered, recorder.records[0].Action())
}

func TestRegisterTraderGetsCode(t *testing.T) {
	svc, _, _ := newUsersService(t)

	user, err := svc.Register(context.Background(), RegisterInput{
		Phone: "9876543211",
		Name:  "Suresh Traders",
		Role:  "trader",
	})
	require.NoError(t, err)
	require.NotNil(t, user.CustomCode)
	require.True(t, strings.HasPrefix(*user.CustomCode, "TRD-"))
	require.Nil(t, user.PasswordHash, "traders authenticate with a one-time code")
}

func TestRegisterStaffHashesPassword(t *testing.T) {
	svc, _, _ := newUsersService(t)

	user, err := svc.Register(context.Background(), RegisterInput{
		Phone:    "9876543212",
		Name:     "Market Clerk",
		Role:     "committee",
		Password: "s3cret-pass",
		Actor:    audit.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin},
	})
	require.NoError(t, err)
	require.NotNil(t, user.CustomCode)
	require.True(t, strings.HasPrefix(*user.CustomCode, "MCDB-"))
	require.NotNil(t, user.PasswordHash)
	require.NotEqual(t, "s3cret-pass", *user.PasswordHash)

	ok, err := security.VerifyPassword("s3cret-pass", *user.PasswordHash)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newUsersService(t)

	cases := []struct {
		name  string
		input RegisterInput
	}{
		{"bad phone", RegisterInput{Phone: "12345", Name: "x", Role: "farmer"}},
		{"missing name", RegisterInput{Phone: "9876543210", Role: "farmer"}},
		{"bad role", RegisterInput{Phone: "9876543210", Name: "x", Role: "wizard"}},
		{"staff without password", RegisterInput{Phone: "9876543210", Name: "x", Role: "admin"}},
		{"farmer with password", RegisterInput{Phone: "9876543210", Name: "x", Role: "farmer", Password: "nope"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.input)
			require.Error(t, err)
			require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
}

func TestRegisterDuplicatePhone(t *testing.T) {
	svc, _, _ := newUsersService(t)

	input := RegisterInput{Phone: "9876543210", Name: "First", Role: "farmer"}
	_, err := svc.Register(context.Background(), input)
	require.NoError(t, err)

	input.Name = "Second"
	_, err = svc.Register(context.Background(), input)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestSetActive(t *testing.T) {
	svc, repo, _ := newUsersService(t)

	user, err := svc.Register(context.Background(), RegisterInput{
		Phone: "9876543210", Name: "Ramesh", Role: "farmer",
	})
	require.NoError(t, err)

	require.NoError(t, svc.SetActive(context.Background(), user.ID, false))
	stored := repo.byPhone["9876543210"]
	require.False(t, stored.IsActive)

	err = svc.SetActive(context.Background(), uuid.New(), false)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestGetByPhone(t *testing.T) {
	svc, _, _ := newUsersService(t)

	_, err := svc.Register(context.Background(), RegisterInput{
		Phone: "9876543210", Name: "Ramesh", Role: "farmer",
	})
	require.NoError(t, err)

	user, err := svc.GetByPhone(context.Background(), "9876543210")
	require.NoError(t, err)
	require.Equal(t, "Ramesh", user.Name)

	_, err = svc.GetByPhone(context.Background(), "9999999999")
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
