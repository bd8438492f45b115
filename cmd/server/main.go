package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"medeasy/pos/internal/api"
	"medeasy/pos/internal/config"
	"medeasy/pos/internal/database"
	"medeasy/pos/internal/logger"
	"medeasy/pos/internal/migrations"
	"medeasy/pos/internal/pos"
	"medeasy/pos/internal/seed"
	"medeasy/pos/internal/store"
)

func main() {
	_ = godotenv.Load()
	decimal.MarshalJSONWithoutQuotes = true

	cfg := config.Load()
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return err
	}

	st := store.New(db)
	svc := pos.New(st, log,
		pos.WithLowStockThreshold(cfg.LowStockThreshold),
		pos.WithExpiryWindow(cfg.ExpiryWindowDays),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seedStock(ctx, cfg, st, svc, log)

	handler := api.New(svc, st, log, api.Config{
		Secret:      cfg.Secret,
		TokenTTL:    cfg.TokenTTL,
		CORSOrigins: cfg.CORSOrigins,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("MedEasy POS server starting",
			zap.String("addr", srv.Addr),
			zap.String("driver", cfg.DatabaseDriver),
			zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// seedStock imports SEED_STOCK_FILE into the SEED_TENANT_EMAIL store. Failures
// are logged and do not stop the server.
func seedStock(ctx context.Context, cfg config.Config, st *store.Store, svc *pos.Service, log *zap.Logger) {
	if cfg.SeedStockFile == "" || cfg.SeedTenantEmail == "" {
		return
	}
	tenant, err := st.TenantByEmail(ctx, cfg.SeedTenantEmail)
	if err != nil {
		log.Warn("unable to resolve seed tenant", zap.String("email", cfg.SeedTenantEmail), zap.Error(err))
		return
	}
	res, err := seed.ImportFile(logger.WithContext(ctx, log), cfg.SeedStockFile, svc, tenant.ID)
	if err != nil {
		log.Warn("unable to seed stock", zap.String("file", cfg.SeedStockFile), zap.Error(err))
		return
	}
	for _, msg := range res.Errors {
		log.Debug("seed row skipped", zap.String("reason", msg))
	}
}
