package controllers

import (
	"net/http"
	"strings"

	"github.com/agronond/mandi-backend/api/responses"
	"github.com/agronond/mandi-backend/api/validators"
	"github.com/agronond/mandi-backend/internal/auth"
	pkgerrors "github.com/agronond/mandi-backend/pkg/errors"
	"github.com/agronond/mandi-backend/pkg/logger"
)

// RequestOTP sends a one-time login code to a registered phone.
func RequestOTP(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Phone string `json:"phone" validate:"required"`
		}
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.RequestOTP(r.Context(), auth.RequestOTPInput{
			Phone: payload.Phone,
			IP:    clientAddr(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// VerifyOTP exchanges a delivered code for an access/refresh pair.
func VerifyOTP(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Phone string `json:"phone" validate:"required"`
			Code  string `json:"code" validate:"required"`
		}
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.VerifyOTP(r.Context(), auth.VerifyOTPInput{
			Phone: payload.Phone,
			Code:  payload.Code,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// StaffLogin authenticates staff by custom code or phone plus password.
func StaffLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Identifier string `json:"identifier" validate:"required"`
			Password   string `json:"password" validate:"required"`
		}
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.StaffLogin(r.Context(), auth.StaffLoginInput{
			Identifier: payload.Identifier,
			Password:   payload.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// RefreshSession rotates the refresh token and mints a new access token.
func RefreshSession(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			AccessToken  string `json:"access_token" validate:"required"`
			RefreshToken string `json:"refresh_token" validate:"required"`
		}
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.Refresh(r.Context(), auth.RefreshInput{
			AccessToken:  payload.AccessToken,
			RefreshToken: payload.RefreshToken,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// Logout revokes the caller's server-side session.
func Logout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get("Authorization"))
		if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
			raw = strings.TrimSpace(raw[7:])
		}
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		if err := svc.Logout(r.Context(), raw); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

func clientAddr(r *http.Request) string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		if idx := strings.IndexByte(header, ','); idx > 0 {
			return strings.TrimSpace(header[:idx])
		}
		return strings.TrimSpace(header)
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host := r.RemoteAddr
	if idx := strings.LastIndexByte(host, ':'); idx > 0 {
		host = host[:idx]
	}
	return host
}
