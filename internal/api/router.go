package api

import (
	"log/slog"
	"net/http"
	"time"

	"gemach-ledger/internal/api/handler"
	mw "gemach-ledger/internal/api/middleware"
	"gemach-ledger/internal/config"
	"gemach-ledger/internal/domain/blacklist"
	"gemach-ledger/internal/domain/debt"
	"gemach-ledger/internal/domain/loan"
	"gemach-ledger/internal/domain/party"
	"gemach-ledger/internal/domain/snapshot"
	"gemach-ledger/internal/domain/transfer"

	_ "gemach-ledger/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Services bundles everything the router needs to expose.
type Services struct {
	Party     party.PartyService
	Loan      loan.LoanService
	Debt      debt.DebtService
	Blacklist blacklist.Registry
	Transfer  transfer.Engine
	Snapshot  snapshot.SnapshotService
}

func SetupRouter(svcs Services, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(router, cfg, logger)
	setupMetricsEndpoint(router, cfg, logger)
	setupAuthRoutes(router, cfg, logger)
	setupPartyRoutes(router, cfg, svcs.Party, logger)
	setupLoanRoutes(router, cfg, svcs.Loan, svcs.Transfer, logger)
	setupDebtRoutes(router, cfg, svcs.Debt, logger)
	setupBlacklistRoutes(router, cfg, svcs.Blacklist, logger)
	setupSnapshotRoutes(router, cfg, svcs.Snapshot, logger)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	setupSwaggerEndpoint(router, logger)

	return router
}

func setupMiddleware(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(mw.NewRateLimiterMiddleware(cfg.Server.RateLimit, logger).Middleware)
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupSwaggerEndpoint(router *chi.Mux, logger *slog.Logger) {
	logger.Info("Setting up Swagger UI endpoint", "path", "/swagger/")
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
}

func setupAuthRoutes(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	authHandler := handler.NewAuthHandler(*cfg, logger)
	router.Route("/auth", func(r chi.Router) {
		r.Post("/token", authHandler.GenerateBearerToken)
	})
}

func setupPartyRoutes(router *chi.Mux, cfg *config.Config, svc party.PartyService, logger *slog.Logger) {
	h := handler.NewPartyHandler(svc, logger)

	router.Route("/borrowers", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/", h.RegisterBorrower)
		r.Get("/", h.ListBorrowers)
		r.Get("/{borrowerID}", h.GetBorrower)
	})

	router.Route("/guarantors", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/", h.RegisterGuarantor)
		r.Get("/", h.ListGuarantors)
		r.Get("/{guarantorID}", h.GetGuarantor)
	})
}

func setupLoanRoutes(router *chi.Mux, cfg *config.Config, svc loan.LoanService, engine transfer.Engine, logger *slog.Logger) {
	loanHandler := handler.NewLoanHandler(svc, logger)
	transferHandler := handler.NewTransferHandler(engine, cfg.Ledger.SystemActor, logger)

	router.Route("/loans", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/", loanHandler.CreateLoan)
		r.Get("/", loanHandler.ListLoans)
		r.Get("/overdue", loanHandler.ListOverdue)
		r.Route("/{loanID}", func(r chi.Router) {
			r.Get("/", loanHandler.GetLoan)
			r.Get("/balance", loanHandler.GetBalance)
			r.Post("/payments", loanHandler.RecordPayment)
			r.Post("/transfer/plan", transferHandler.Plan)
			r.Post("/transfer", transferHandler.Commit)
		})
	})
}

func setupDebtRoutes(router *chi.Mux, cfg *config.Config, svc debt.DebtService, logger *slog.Logger) {
	h := handler.NewDebtHandler(svc, logger)

	router.Route("/debts", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Get("/", h.ListDebts)
		r.Get("/{debtID}", h.GetDebt)
		r.Post("/{debtID}/payments", h.RecordPayment)
	})
}

func setupBlacklistRoutes(router *chi.Mux, cfg *config.Config, registry blacklist.Registry, logger *slog.Logger) {
	h := handler.NewBlacklistHandler(registry, cfg.Ledger.SystemActor, logger)

	router.Route("/blacklist", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Get("/", h.ListActive)
		r.Get("/history", h.History)
		r.Post("/", h.Block)
		r.Post("/{entryID}/unblock", h.Unblock)
	})
}

func setupSnapshotRoutes(router *chi.Mux, cfg *config.Config, svc snapshot.SnapshotService, logger *slog.Logger) {
	h := handler.NewSnapshotHandler(svc, logger)

	router.Route("/snapshot", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Get("/", h.Export)
		r.Post("/", h.Import)
		r.Get("/workbook", h.ExportWorkbook)
	})
}
