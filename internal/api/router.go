package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"github.com/sablebank/ledger/internal/api/handler"
	"github.com/sablebank/ledger/internal/api/middleware"
	"github.com/sablebank/ledger/internal/api/spec"
	"github.com/sablebank/ledger/internal/config"
	"github.com/sablebank/ledger/internal/idempotency"
	"github.com/sablebank/ledger/internal/repository"
	"github.com/sablebank/ledger/internal/service"
)

type Router struct {
	cfg         *config.Config
	logger      *zap.Logger
	db          *pgxpool.Pool
	redis       redis.Cmdable
	store       *repository.Store
	idemStore   *idempotency.Store
	accountSvc  *service.AccountService
	transferSvc *service.TransferService
	reversalSvc *service.ReversalService
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *pgxpool.Pool,
	redisClient redis.Cmdable,
	store *repository.Store,
	idemStore *idempotency.Store,
	accountSvc *service.AccountService,
	transferSvc *service.TransferService,
	reversalSvc *service.ReversalService,
) *Router {
	return &Router{
		cfg:         cfg,
		logger:      logger,
		db:          db,
		redis:       redisClient,
		store:       store,
		idemStore:   idemStore,
		accountSvc:  accountSvc,
		transferSvc: transferSvc,
		reversalSvc: reversalSvc,
	}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.RecoverMiddleware(api.logger))
	// The reversal endpoint is called cross-origin; preflight OPTIONS must
	// succeed with permissive headers.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Idempotency-Key", "X-Trace-ID"},
		MaxAge:         300,
	}))

	authHandler := handler.NewAuthHandler(api.store, api.cfg.JWTIssuer, api.cfg.JWTAudience)
	userHandler := handler.NewUserHandler(api.store)
	accountHandler := handler.NewAccountHandler(api.accountSvc)
	transferHandler := handler.NewTransferHandler(api.transferSvc)
	reversalHandler := handler.NewReversalHandler(api.reversalSvc)
	healthHandler := handler.NewHealthHandler(api.db, api.redis)

	r.Get("/healthz/live", healthHandler.Live)
	r.Get("/healthz/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", spec.OpenAPIHandler())
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))

	// Public routes.
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))
		r.Post("/v1/auth/login", authHandler.Login)
		r.Post("/v1/users", userHandler.CreateUser)
	})

	// Reversal trust boundary. The handler performs the bearer resolution
	// itself so failures carry the flat error codes its clients expect; only
	// POST and OPTIONS are accepted on this route.
	r.Route("/v1/reversals", func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))
		r.Post("/", reversalHandler.ReversePayment)
		r.MethodNotAllowed(reversalHandler.MethodNotAllowed)
	})

	// Protected routes.
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Use(middleware.AuthRateLimiter(api.cfg.AuthRateLimitRPS))

		r.Post("/v1/accounts", accountHandler.CreateAccount)
		r.Get("/v1/accounts/recipients", accountHandler.ListRecipients)
		r.Get("/v1/accounts/{id}/balance", accountHandler.GetBalance)
		r.Get("/v1/accounts/{id}/statement", accountHandler.GetStatement)

		r.With(middleware.IdempotencyMiddleware(api.idemStore, api.logger)).
			Post("/v1/transfers", transferHandler.Submit)
	})

	return r
}
