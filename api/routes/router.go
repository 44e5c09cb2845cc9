package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abiball/abiball-backend/api/controllers"
	"github.com/abiball/abiball-backend/api/middleware"
	"github.com/abiball/abiball-backend/internal/documents"
	"github.com/abiball/abiball-backend/internal/events"
	"github.com/abiball/abiball-backend/internal/orders"
	"github.com/abiball/abiball-backend/internal/payments"
	"github.com/abiball/abiball-backend/internal/tickets"
	"github.com/abiball/abiball-backend/internal/users"
	"github.com/abiball/abiball-backend/pkg/config"
	"github.com/abiball/abiball-backend/pkg/logger"
	"github.com/abiball/abiball-backend/pkg/metrics"
	"github.com/abiball/abiball-backend/pkg/redis"
)

// Services bundles everything the router exposes over HTTP.
type Services struct {
	Users     users.Service
	Events    events.Service
	Orders    orders.Service
	Payments  payments.Service
	Tickets   tickets.Service
	Documents documents.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	healthDeps map[string]controllers.Pinger,
	gatherer prometheus.Gatherer,
	apiMetrics *metrics.APIMetrics,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, apiMetrics),
	)

	loginPolicy := middleware.NewLoginRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, healthDeps))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(svcs.Users, logg))
		login := controllers.AuthLogin(svcs.Users, logg)
		if redisClient != nil {
			r.With(middleware.LoginRateLimit(loginPolicy, redisClient, logg)).Post("/login", login)
		} else {
			r.Post("/login", login)
		}
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", controllers.UserMe(svcs.Users, logg))
			r.Get("/", controllers.UserList(svcs.Users, logg))
			r.Get("/{userId}", controllers.UserGet(svcs.Users, logg))
			r.Patch("/{userId}", controllers.UserUpdate(svcs.Users, logg))
		})

		r.Route("/events", func(r chi.Router) {
			r.Post("/", controllers.EventCreate(svcs.Events, logg))
			r.Get("/", controllers.EventList(svcs.Events, logg))
			r.Route("/{eventId}", func(r chi.Router) {
				r.Get("/", controllers.EventGet(svcs.Events, logg))
				r.Patch("/", controllers.EventUpdate(svcs.Events, logg))
				r.Delete("/", controllers.EventDelete(svcs.Events, logg))
				r.Post("/verify-password", controllers.EventVerifyPassword(svcs.Events, logg))
				r.Get("/tiers", controllers.EventTiers(svcs.Events, logg))
				r.Put("/tiers", controllers.EventReplaceTiers(svcs.Events, logg))
				r.Get("/bank-accounts", controllers.EventBankAccounts(svcs.Events, logg))
				r.Put("/bank-accounts", controllers.EventReplaceBankAccounts(svcs.Events, logg))
				r.Put("/users/{userId}/override", controllers.EventSetUserOverride(svcs.Events, logg))
				r.Post("/payment-requests", controllers.PaymentSendBulk(svcs.Payments, logg))
				r.Post("/tickets", controllers.TicketBulkGenerate(svcs.Tickets, logg))
				r.Get("/guest-list.csv", controllers.DocumentGuestList(svcs.Documents, logg))
				r.Get("/orders.csv", controllers.DocumentOrderSummary(svcs.Documents, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(svcs.Orders, logg))
			r.Get("/", controllers.OrderList(svcs.Orders, logg))
			r.Get("/mine", controllers.OrderListMine(svcs.Orders, logg))
			r.Get("/limits", controllers.OrderLimits(svcs.Orders, logg))
			r.Get("/statistics", controllers.OrderStatistics(svcs.Orders, logg))
			r.Post("/mark-paid", controllers.OrderQuickMarkPaid(svcs.Orders, logg))
			r.Post("/payment-errors", controllers.OrderMarkPaymentError(svcs.Orders, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", controllers.OrderGet(svcs.Orders, logg))
				r.Patch("/", controllers.OrderUpdate(svcs.Orders, logg))
				r.Delete("/", controllers.OrderDelete(svcs.Orders, logg))
				r.Post("/mark-paid", controllers.OrderMarkPaid(svcs.Orders, logg))
				r.Post("/mark-unpaid", controllers.OrderMarkUnpaid(svcs.Orders, logg))
				r.Post("/payment-requests", controllers.PaymentSendRequest(svcs.Payments, logg))
				r.Get("/payment-requests", controllers.PaymentListRequests(svcs.Payments, logg))
				r.Get("/payment-qr.png", controllers.PaymentQR(svcs.Payments, logg))
				r.Post("/tickets", controllers.TicketGenerate(svcs.Tickets, logg))
				r.Get("/tickets/{ticketNumber}", controllers.TicketDocument(svcs.Tickets, logg))
				r.Post("/tickets/{ticketNumber}/redeem", controllers.TicketRedeem(svcs.Tickets, logg))
				r.Post("/tickets/{ticketNumber}/birthdate", controllers.TicketCorrectBirthdate(svcs.Tickets, logg))
			})
		})

		r.Route("/payment-requests", func(r chi.Router) {
			r.Post("/{requestId}/mark-paid", controllers.PaymentMarkRequestPaid(svcs.Payments, logg))
		})

		r.Route("/checkin", func(r chi.Router) {
			r.Post("/scan", controllers.TicketScan(svcs.Tickets, logg))
			r.Post("/undo", controllers.TicketUndoRedemption(svcs.Tickets, logg))
			r.Get("/stats", controllers.TicketLiveStats(svcs.Tickets, logg))
			r.Get("/list", controllers.TicketLiveList(svcs.Tickets, logg))
		})
	})

	return r
}
