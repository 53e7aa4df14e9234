package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agronond/mandi-backend/api/controllers"
	"github.com/agronond/mandi-backend/api/middleware"
	"github.com/agronond/mandi-backend/internal/auth"
	"github.com/agronond/mandi-backend/internal/bills"
	"github.com/agronond/mandi-backend/internal/lots"
	"github.com/agronond/mandi-backend/internal/notifications"
	"github.com/agronond/mandi-backend/internal/reports"
	"github.com/agronond/mandi-backend/internal/transactions"
	"github.com/agronond/mandi-backend/internal/users"
	"github.com/agronond/mandi-backend/pkg/auth/session"
	"github.com/agronond/mandi-backend/pkg/config"
	"github.com/agronond/mandi-backend/pkg/db"
	"github.com/agronond/mandi-backend/pkg/enums"
	"github.com/agronond/mandi-backend/pkg/logger"
	"github.com/agronond/mandi-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	sessions sessionManager,
	authService auth.Service,
	userService users.Service,
	lotService lots.Service,
	transactionService transactions.Service,
	billService bills.Service,
	notificationService notifications.Service,
	reportService reports.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginPhoneLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbClient))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		// OTP request throttling lives in the auth service; the edge
		// limiter here only covers the password login surface.
		r.Post("/otp/request", controllers.RequestOTP(authService, logg))
		r.Post("/otp/verify", controllers.VerifyOTP(authService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.StaffLogin(authService, logg))
		r.Post("/refresh", controllers.RefreshSession(authService, logg))
		r.Post("/logout", controllers.Logout(authService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/users", func(r chi.Router) {
			r.With(middleware.RequireAnyRole(logg, enums.UserRoleCommittee, enums.UserRoleAdmin)).Group(func(r chi.Router) {
				r.Post("/", controllers.RegisterUser(userService, logg))
				r.Get("/", controllers.ListUsers(userService, logg))
				r.Get("/{userId}", controllers.GetUser(userService, logg))
				r.Post("/{userId}/active", controllers.SetUserActive(userService, logg))
			})
		})

		r.Route("/lots", func(r chi.Router) {
			r.Post("/", controllers.CreateLot(lotService, logg))
			r.Get("/", controllers.ListLots(lotService, logg))
			r.Get("/{lotId}", controllers.GetLot(lotService, logg))
			r.Get("/{lotId}/bills", controllers.ListLotBills(billService, logg))
			r.With(middleware.RequireAnyRole(logg, enums.UserRoleLilav, enums.UserRoleCommittee, enums.UserRoleAdmin)).
				Post("/{lotId}/rate", controllers.AssignLotRate(lotService, logg))
			r.With(middleware.RequireAnyRole(logg, enums.UserRoleWeight, enums.UserRoleCommittee, enums.UserRoleAdmin)).
				Post("/{lotId}/weight", controllers.FinalizeLotWeight(lotService, logg))
			r.With(middleware.RequireAnyRole(logg, enums.UserRoleAccountant, enums.UserRoleCommittee, enums.UserRoleAdmin)).
				Post("/{lotId}/payments", controllers.RecordLotPayment(lotService, logg))
			r.With(middleware.RequireAnyRole(logg, enums.UserRoleCommittee, enums.UserRoleAdmin)).
				Delete("/{lotId}", controllers.DeleteLot(lotService, logg))
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", controllers.ListTransactions(transactionService, logg))
			r.Get("/{txnId}", controllers.GetTransaction(transactionService, logg))
		})

		r.Route("/bills", func(r chi.Router) {
			r.Get("/", controllers.ListBills(billService, logg))
			r.Get("/{billId}", controllers.GetBill(billService, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationService, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(middleware.RequireAnyRole(logg, enums.UserRoleCommittee, enums.UserRoleAdmin, enums.UserRoleAccountant))
			r.Get("/daily-summary", controllers.DailySummaryReport(reportService, logg))
			r.Get("/transactions.csv", controllers.ExportTransactionsCSV(reportService, logg))
		})
	})

	return r
}
