package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/festpay/festpay-backend/api/controllers"
	"github.com/festpay/festpay-backend/api/middleware"
	authsvc "github.com/festpay/festpay-backend/internal/auth"
	"github.com/festpay/festpay-backend/internal/dispatch"
	"github.com/festpay/festpay-backend/internal/events"
	"github.com/festpay/festpay-backend/internal/orders"
	"github.com/festpay/festpay-backend/internal/reports"
	"github.com/festpay/festpay-backend/internal/stalls"
	"github.com/festpay/festpay-backend/internal/wallets"
	"github.com/festpay/festpay-backend/pkg/auth/session"
	"github.com/festpay/festpay-backend/pkg/config"
	"github.com/festpay/festpay-backend/pkg/db"
	"github.com/festpay/festpay-backend/pkg/enums"
	"github.com/festpay/festpay-backend/pkg/logger"
	"github.com/festpay/festpay-backend/pkg/redis"
)

type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       *redis.Client
	Sessions    *session.Manager
	Broker      dispatch.Broker
	AuthService authsvc.Service
	Wallets     wallets.Service
	WalletRepo  wallets.Repository
	Orders      orders.Service
	Stalls      stalls.Service
	Events      events.Service
	Reports     reports.Service
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

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
		cfg.AuthRateLimit.LoginIdentityLimit,
	)
	loginLimited := middleware.AuthRateLimit(loginPolicy, d.Redis, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB, d.Redis))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(loginLimited).Post("/organizer/register", controllers.OrganizerRegister(d.AuthService, logg))
		r.With(loginLimited).Post("/organizer/login", controllers.OrganizerLogin(d.AuthService, logg))
		r.With(loginLimited).Post("/stall/login", controllers.StallLogin(d.AuthService, logg))
		r.With(loginLimited).Post("/cashier/login", controllers.CashierLogin(d.AuthService, logg))
		r.With(loginLimited).Post("/visitor/login", controllers.VisitorLogin(d.AuthService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
			r.Post("/logout", controllers.Logout(d.AuthService, logg))
		})
	})

	r.Route("/api/v1/public", func(r chi.Router) {
		r.With(loginLimited).Post("/wallets", controllers.VisitorRegister(d.Wallets, logg))
		r.Get("/stalls/{stallId}/menu", controllers.VisitorMenu(d.Stalls, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))

		r.Route("/cashier", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.ActorRoleCashier), logg))
			r.Post("/topups", controllers.CashierTopUp(d.Wallets, logg))
			r.Post("/refunds", controllers.CashierRefund(d.Wallets, logg))
			r.Get("/ledger", controllers.CashierLedger(d.Reports, logg))
		})

		r.Route("/visitor", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.ActorRoleVisitor), logg))
			r.Get("/wallet", controllers.VisitorWallet(d.WalletRepo, logg))
			r.Post("/orders", controllers.VisitorPurchase(d.Orders, d.WalletRepo, logg))
			r.Get("/stalls/{stallId}/menu", controllers.VisitorMenu(d.Stalls, logg))
		})

		r.Route("/stall", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.ActorRoleStall), logg))
			r.Get("/orders/live", controllers.StallLiveOrders(d.Orders, logg))
			r.Get("/orders/stream", controllers.StallOrdersStream(d.Broker, cfg.Dispatch, logg))
			r.Post("/orders", controllers.StallManualOrder(d.Orders, logg))
			r.Post("/orders/{orderId}/complete", controllers.StallCompleteOrder(d.Orders, logg))

			r.Route("/menu", func(r chi.Router) {
				r.Get("/", controllers.StallMenuList(d.Stalls, logg))
				r.Post("/", controllers.StallMenuCreate(d.Stalls, logg))
				r.Patch("/{itemId}", controllers.StallMenuUpdate(d.Stalls, logg))
				r.Delete("/{itemId}", controllers.StallMenuDelete(d.Stalls, logg))
			})

			r.Patch("/profile", controllers.StallUpdateProfile(d.Stalls, logg))
			r.Post("/password", controllers.StallChangePassword(d.Stalls, logg))
		})

		r.Route("/organizer", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.ActorRoleOrganizer), logg))

			r.Route("/events", func(r chi.Router) {
				r.Post("/", controllers.OrganizerCreateEvent(d.Events, logg))
				r.Get("/", controllers.OrganizerListEvents(d.Events, logg))

				r.Route("/{eventId}", func(r chi.Router) {
					r.Get("/", controllers.OrganizerGetEvent(d.Events, logg))
					r.Patch("/", controllers.OrganizerUpdateEvent(d.Events, logg))

					r.Route("/stalls", func(r chi.Router) {
						r.Post("/", controllers.OrganizerCreateStall(d.Events, logg))
						r.Get("/", controllers.OrganizerListStalls(d.Events, logg))
						r.Patch("/{stallId}", controllers.OrganizerUpdateStall(d.Events, logg))
						r.Delete("/{stallId}", controllers.OrganizerDeleteStall(d.Events, logg))
						r.Post("/{stallId}/reset-password", controllers.OrganizerResetStallPassword(d.Events, logg))
					})

					r.Route("/cashiers", func(r chi.Router) {
						r.Post("/", controllers.OrganizerCreateCashier(d.Events, logg))
						r.Get("/", controllers.OrganizerListCashiers(d.Events, logg))
						r.Delete("/{cashierId}", controllers.OrganizerDeleteCashier(d.Events, logg))
						r.Post("/{cashierId}/reset-password", controllers.OrganizerResetCashierPassword(d.Events, logg))
					})

					r.Route("/reports", func(r chi.Router) {
						r.Get("/summary", controllers.OrganizerEventSummary(d.Events, d.Reports, logg))
						r.Get("/stalls", controllers.OrganizerStallSales(d.Events, d.Reports, logg))
					})
				})
			})
		})
	})

	return r
}
