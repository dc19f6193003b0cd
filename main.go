package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/allocation"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/auth"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/config"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/db"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/finance"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/logger"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/middleware"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/profitsharing"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/report"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/students"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load(os.Getenv("FINANCE_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogPretty)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	gdb, err := db.Connect(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	// allocation and profit sharing tables live in the finance schema, so
	// finance goes first.
	inits := []struct {
		name string
		fn   func(*gorm.DB) error
	}{
		{"finance", finance.Init},
		{"allocation", allocation.Init},
		{"profit-sharing", profitsharing.Init},
	}
	for _, m := range inits {
		if err := m.fn(gdb); err != nil {
			log.Fatal().Err(err).Str("module", m.name).Msg("init failed")
		}
	}

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           newRouter(cfg, gdb, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("Server stopped")
}

func newRouter(cfg config.Config, gdb *gorm.DB, log zerolog.Logger) http.Handler {
	txns := finance.NewStore(gdb)
	sessions := auth.NewSessionInfo(gdb)
	admin := []func(http.Handler) http.Handler{
		middleware.SessionMiddleware(sessions),
		middleware.AdminMiddleware(sessions),
	}
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	reports := report.NewService(txns, txns, cfg.Finance)
	allocations := allocation.NewService(allocation.Deps{
		Mappings:      allocation.NewStore(gdb),
		Accumulations: allocation.NewStore(gdb),
		Transactions:  txns,
		Accounts:      txns,
		Students:      students.NewStore(gdb),
	}, cfg.Finance)
	sharing := profitsharing.NewService(profitsharing.NewStore(gdb), txns, txns, cfg.Finance)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Get("/", RootHandler)

	r.Mount("/auth", auth.SetupRoutes(sessions))
	r.Route("/finance", func(r chi.Router) {
		r.Mount("/reports", report.SetupRoutes(report.NewHandler(reports), limiter.Middleware))
		r.Mount("/allocation", allocation.SetupRoutes(allocation.NewHandler(allocations), admin...))
		r.Mount("/profit-sharing", profitsharing.SetupRoutes(profitsharing.NewHandler(sharing), admin...))
	})

	return r
}
