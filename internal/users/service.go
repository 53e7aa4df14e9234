package users

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/agronond/mandi-backend/internal/audit"
	"github.com/agronond/mandi-backend/internal/sequence"
	"github.com/agronond/mandi-backend/pkg/config"
	"github.com/agronond/mandi-backend/pkg/db"
	"github.com/agronond/mandi-backend/pkg/db/models"
	"github.com/agronond/mandi-backend/pkg/enums"
	pkgerrors "github.com/agronond/mandi-backend/pkg/errors"
	"github.com/agronond/mandi-backend/pkg/pagination"
	"github.com/agronond/mandi-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const entityTypeUser = "user"

var phonePattern = regexp.MustCompile(`^[6-9][0-9]{9}$`)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RegisterInput enrolls a new market party or staff member.
type RegisterInput struct {
	Phone    string
	Name     string
	Email    string
	Role     string
	Village  string
	Password string
	Actor    audit.Actor
}

// ListInput filters and paginates user listings.
type ListInput struct {
	Role    string
	Village string
	Active  *bool
	Limit   int
	Cursor  string
}

// ListResult wraps returned users and the cursor for the next page.
type ListResult struct {
	Items  []models.User `json:"items"`
	Cursor string        `json:"cursor"`
}

// Service manages registration and lookup of market participants.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	List(ctx context.Context, input ListInput) (*ListResult, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	TouchLogin(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     Repository
	tx       txRunner
	seq      sequence.Allocator
	recorder audit.Recorder
	password config.PasswordConfig
}

// NewService wires the users service dependencies.
func NewService(repo Repository, tx txRunner, seq sequence.Allocator, recorder audit.Recorder, password config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if seq == nil {
		return nil, fmt.Errorf("sequence allocator required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		seq:      seq,
		recorder: recorder,
		password: password,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	phone := strings.TrimSpace(input.Phone)
	if !phonePattern.MatchString(phone) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone must be a valid 10-digit mobile number")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	role, err := enums.ParseUserRole(input.Role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role")
	}
	if role.IsStaff() && input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "staff accounts require a password")
	}
	if !role.IsStaff() && input.Password != "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only staff accounts carry a password")
	}

	var passwordHash *string
	if input.Password != "" {
		hash, err := security.HashPassword(input.Password, s.password)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		passwordHash = &hash
	}

	user := &models.User{
		ID:           uuid.New(),
		Phone:        phone,
		Name:         name,
		Role:         role,
		PasswordHash: passwordHash,
		IsActive:     true,
	}
	if email := strings.TrimSpace(input.Email); email != "" {
		user.Email = &email
	}
	if village := strings.TrimSpace(input.Village); village != "" {
		user.Village = &village
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if role.CodePrefix() != "" {
			code, err := s.seq.NextUserCode(ctx, tx, role)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate user code")
			}
			user.CustomCode = &code
		}

		if err := repo.Create(ctx, user); err != nil {
			if db.IsUniqueViolation(err, "") || db.IsUniqueViolation(err, "phone") {
				return pkgerrors.New(pkgerrors.CodeConflict, "phone already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}

		changes := audit.UserRegisteredChanges{Phone: phone, Role: role}
		if user.CustomCode != nil {
			changes.CustomCode = *user.CustomCode
		}
		actor := input.Actor
		if actor.UserID == uuid.Nil {
			// Self-registration: the new account is its own actor.
			actor = audit.Actor{UserID: user.ID, Role: role}
		}
		if err := s.recorder.Record(ctx, tx, entityTypeUser, user.ID, actor, changes); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record registration")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone required")
	}
	user, err := s.repo.FindByPhone(ctx, phone)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	query := listUsersParams{
		Village: input.Village,
		Active:  input.Active,
		Limit:   input.Limit,
	}
	if input.Role != "" {
		role, err := enums.ParseUserRole(input.Role)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role filter")
		}
		query.Role = &role
	}
	if input.Cursor != "" {
		cursor, err := pagination.ParseCursor(input.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	ok, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return nil
}

func (s *service) TouchLogin(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	return s.repo.UpdateLastLogin(ctx, id, time.Now().UTC())
}
