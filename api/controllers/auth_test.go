package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agronond/mandi-backend/internal/auth"
	"github.com/agronond/mandi-backend/pkg/logger"
)

type testAuthService struct {
	requestOTPFn func(ctx context.Context, input auth.RequestOTPInput) (*auth.RequestOTPResponse, error)
	verifyOTPFn  func(ctx context.Context, input auth.VerifyOTPInput) (*auth.LoginResponse, error)
	staffLoginFn func(ctx context.Context, input auth.StaffLoginInput) (*auth.LoginResponse, error)
	refreshFn    func(ctx context.Context, input auth.RefreshInput) (*auth.LoginResponse, error)
	logoutFn     func(ctx context.Context, accessToken string) error
}

func (s *testAuthService) RequestOTP(ctx context.Context, input auth.RequestOTPInput) (*auth.RequestOTPResponse, error) {
	if s.requestOTPFn != nil {
		return s.requestOTPFn(ctx, input)
	}
	return &auth.RequestOTPResponse{}, nil
}

func (s *testAuthService) VerifyOTP(ctx context.Context, input auth.VerifyOTPInput) (*auth.LoginResponse, error) {
	if s.verifyOTPFn != nil {
		return s.verifyOTPFn(ctx, input)
	}
	return &auth.LoginResponse{}, nil
}

func (s *testAuthService) StaffLogin(ctx context.Context, input auth.StaffLoginInput) (*auth.LoginResponse, error) {
	if s.staffLoginFn != nil {
		return s.staffLoginFn(ctx, input)
	}
	return &auth.LoginResponse{}, nil
}

func (s *testAuthService) Refresh(ctx context.Context, input auth.RefreshInput) (*auth.LoginResponse, error) {
	if s.refreshFn != nil {
		return s.refreshFn(ctx, input)
	}
	return &auth.LoginResponse{}, nil
}

func (s *testAuthService) Logout(ctx context.Context, accessToken string) error {
	if s.logoutFn != nil {
		return s.logoutFn(ctx, accessToken)
	}
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestRequestOTPForwardsClientIP(t *testing.T) {
	var captured auth.RequestOTPInput
	svc := &testAuthService{
		requestOTPFn: func(ctx context.Context, input auth.RequestOTPInput) (*auth.RequestOTPResponse, error) {
			captured = input
			return &auth.RequestOTPResponse{ExpiresInSeconds: 300}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/otp/request", strings.NewReader(`{"phone":"9876543210"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	resp := httptest.NewRecorder()
	RequestOTP(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if captured.Phone != "9876543210" {
		t.Fatalf("unexpected phone %q", captured.Phone)
	}
	if captured.IP != "203.0.113.7" {
		t.Fatalf("expected first forwarded hop, got %q", captured.IP)
	}

	var envelope struct {
		Data struct {
			ExpiresInSeconds int `json:"expires_in_seconds"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.ExpiresInSeconds != 300 {
		t.Fatalf("unexpected expiry %d", envelope.Data.ExpiresInSeconds)
	}
}

func TestRequestOTPRejectsMissingPhone(t *testing.T) {
	called := false
	svc := &testAuthService{
		requestOTPFn: func(ctx context.Context, input auth.RequestOTPInput) (*auth.RequestOTPResponse, error) {
			called = true
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/otp/request", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	RequestOTP(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if called {
		t.Fatal("service should not run on invalid payload")
	}
}

func TestVerifyOTPPassesCredentials(t *testing.T) {
	var captured auth.VerifyOTPInput
	svc := &testAuthService{
		verifyOTPFn: func(ctx context.Context, input auth.VerifyOTPInput) (*auth.LoginResponse, error) {
			captured = input
			return &auth.LoginResponse{AccessToken: "token"}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/otp/verify", strings.NewReader(`{"phone":"9876543210","code":"123456"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	VerifyOTP(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if captured.Phone != "9876543210" || captured.Code != "123456" {
		t.Fatalf("unexpected input %+v", captured)
	}
}

func TestStaffLoginRejectsUnknownFields(t *testing.T) {
	svc := &testAuthService{}
	body := `{"identifier":"MCDB-2026-001","password":"secret","extra":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	StaffLogin(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field got %d", resp.Code)
	}
}

func TestLogoutRequiresBearer(t *testing.T) {
	svc := &testAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	resp := httptest.NewRecorder()
	Logout(svc, testLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without bearer got %d", resp.Code)
	}
}

func TestLogoutPassesToken(t *testing.T) {
	var captured string
	svc := &testAuthService{
		logoutFn: func(ctx context.Context, accessToken string) error {
			captured = accessToken
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	resp := httptest.NewRecorder()
	Logout(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if captured != "abc.def.ghi" {
		t.Fatalf("unexpected token %q", captured)
	}
}
