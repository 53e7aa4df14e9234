package controllers

import (
	"context"

	"github.com/google/uuid"

	"github.com/agronond/mandi-backend/api/middleware"
	"github.com/agronond/mandi-backend/internal/audit"
	"github.com/agronond/mandi-backend/pkg/enums"
	pkgerrors "github.com/agronond/mandi-backend/pkg/errors"
)

// actorFromContext reconstructs the audit actor seeded by the auth
// middleware.
func actorFromContext(ctx context.Context) (audit.Actor, error) {
	id, err := uuid.Parse(middleware.UserIDFromContext(ctx))
	if err != nil {
		return audit.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing actor identity")
	}
	role, err := enums.ParseUserRole(middleware.RoleFromContext(ctx))
	if err != nil {
		return audit.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing actor role")
	}
	return audit.Actor{UserID: id, Role: role}, nil
}
