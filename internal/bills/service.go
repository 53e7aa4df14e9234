package bills

import (
	"context"

	"github.com/agronond/mandi-backend/pkg/db/models"
	"github.com/agronond/mandi-backend/pkg/enums"
	pkgerrors "github.com/agronond/mandi-backend/pkg/errors"
	"github.com/agronond/mandi-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service exposes read access to settlement bills.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Bill, error)
	GetByCode(ctx context.Context, code string) (*models.Bill, error)
	ListForLot(ctx context.Context, lotRecordID uuid.UUID) ([]models.Bill, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

type service struct {
	repo Repository
}

// ListParams filters and paginates bill listings. PartyUserID restricts
// results to a single farmer or trader; staff may leave it unset.
type ListParams struct {
	Party         string
	PartyUserID   *uuid.UUID
	PaymentStatus string
	Limit         int
	Cursor        string
}

// ListResult wraps returned bills and the cursor for the next page.
type ListResult struct {
	Items  []models.Bill `json:"items"`
	Cursor string        `json:"cursor"`
}

// NewService wires the bills service dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "bills repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Bill, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bill id required")
	}
	bill, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bill not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bill")
	}
	return bill, nil
}

func (s *service) GetByCode(ctx context.Context, code string) (*models.Bill, error) {
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bill code required")
	}
	bill, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bill not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bill")
	}
	return bill, nil
}

func (s *service) ListForLot(ctx context.Context, lotRecordID uuid.UUID) ([]models.Bill, error) {
	if lotRecordID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lot record id required")
	}
	rows, err := s.repo.FindByLotRecord(ctx, lotRecordID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list lot bills")
	}
	return rows, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listBillsParams{
		Limit:       params.Limit,
		PartyUserID: params.PartyUserID,
	}
	if params.Party != "" {
		party, err := enums.ParseSettlementParty(params.Party)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid party filter")
		}
		query.Party = &party
	}
	if params.PaymentStatus != "" {
		status, err := enums.ParsePaymentStatus(params.PaymentStatus)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status filter")
		}
		query.PaymentStatus = &status
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bills")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}
