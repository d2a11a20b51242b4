package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/birrflow/birrflow-backend/api/controllers"
	"github.com/birrflow/birrflow-backend/api/middleware"
	"github.com/birrflow/birrflow-backend/internal/accounts"
	"github.com/birrflow/birrflow-backend/internal/auth"
	"github.com/birrflow/birrflow-backend/internal/directory"
	"github.com/birrflow/birrflow-backend/internal/ledger"
	"github.com/birrflow/birrflow-backend/pkg/auth/session"
	"github.com/birrflow/birrflow-backend/pkg/config"
	"github.com/birrflow/birrflow-backend/pkg/db"
	"github.com/birrflow/birrflow-backend/pkg/logger"
	"github.com/birrflow/birrflow-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessions session.AccessSessionChecker,
	statusChecker middleware.AccountStatusChecker,
	authService auth.Service,
	accountService accounts.Service,
	ledgerService ledger.Service,
	directoryService directory.Service,
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
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.Login(authService, logg))
		r.Post("/refresh", controllers.Refresh(authService, logg))
		r.Post("/logout", controllers.Logout(authService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, statusChecker, logg))

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", controllers.DashboardAccounts(directoryService, logg))
			r.Post("/", controllers.AccountCreate(accountService, logg))
			r.Get("/{id}", controllers.AccountGet(accountService, logg))
			r.Get("/{id}/wallet", controllers.AccountWallet(accountService, logg))
			r.Get("/{id}/transactions", controllers.TransferHistory(ledgerService, logg))
			r.Patch("/{id}/active", controllers.AccountSetActive(accountService, logg))
			r.Delete("/{id}", controllers.AccountDelete(accountService, logg))
		})

		r.Route("/transfers", func(r chi.Router) {
			r.Post("/", controllers.TransferCreate(ledgerService, logg))
			r.Get("/candidates", controllers.TransferCandidates(directoryService, logg))
			r.Get("/{id}", controllers.TransferGet(ledgerService, logg))
		})

		r.Get("/dashboard/stats", controllers.DashboardStats(directoryService, logg))
	})

	return r
}
