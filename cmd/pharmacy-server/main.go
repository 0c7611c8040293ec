package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehutano/pharmacy-api/internal/config"
	"github.com/ehutano/pharmacy-api/internal/domain/claims"
	"github.com/ehutano/pharmacy-api/internal/domain/customer"
	"github.com/ehutano/pharmacy-api/internal/domain/dispensing"
	"github.com/ehutano/pharmacy-api/internal/domain/inventory"
	"github.com/ehutano/pharmacy-api/internal/domain/medicine"
	"github.com/ehutano/pharmacy-api/internal/domain/pos"
	"github.com/ehutano/pharmacy-api/internal/domain/prescription"
	"github.com/ehutano/pharmacy-api/internal/platform/auth"
	"github.com/ehutano/pharmacy-api/internal/platform/db"
	"github.com/ehutano/pharmacy-api/internal/platform/middleware"
	"github.com/ehutano/pharmacy-api/internal/platform/sig"
	"github.com/ehutano/pharmacy-api/internal/platform/ws"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pharmacy-server",
		Short: "ehutano+ pharmacy dispensing API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the pharmacy API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load a starter catalog of medicines and stock batches",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			return runSeed(ctx, pool)
		},
	}
}

func strPtr(s string) *string { return &s }

// runSeed loads a small demonstration catalog: common shelf medicines, one
// stock batch each, and a walk-in customer. Safe to run once on a fresh
// database only.
func runSeed(ctx context.Context, pool *pgxpool.Pool) error {
	medSvc := medicine.NewService(medicine.NewRepo(pool))
	invSvc := inventory.NewService(inventory.NewRepo(pool))
	custSvc := customer.NewService(customer.NewRepo(pool))

	meds := []*medicine.Medicine{
		{Name: "Paracetamol 500mg", GenericName: strPtr("Paracetamol"), Manufacturer: strPtr("CAPS Pharmaceuticals"), Category: strPtr("Analgesic"), PackSize: 20, UnitPrice: 0.25, Barcode: strPtr("6001234500017")},
		{Name: "Amoxicillin 250mg", GenericName: strPtr("Amoxicillin"), Manufacturer: strPtr("Varichem"), Category: strPtr("Antibiotic"), PackSize: 15, UnitPrice: 0.30, Barcode: strPtr("6001234500024")},
		{Name: "Ibuprofen 400mg", GenericName: strPtr("Ibuprofen"), Manufacturer: strPtr("CAPS Pharmaceuticals"), Category: strPtr("NSAID"), PackSize: 30, UnitPrice: 0.20, Barcode: strPtr("6001234500031")},
		{Name: "Cough Syrup 100ml", Category: strPtr("Cough and Cold"), PackSize: 1, UnitPrice: 2.00, Barcode: strPtr("6001234500048")},
	}

	for i, med := range meds {
		if err := medSvc.AddMedicine(ctx, med); err != nil {
			return fmt.Errorf("seed medicine %q: %w", med.Name, err)
		}
		batch := &inventory.Batch{
			MedicineID:    med.ID,
			BatchNumber:   fmt.Sprintf("B-%04d", i+1),
			StockQuantity: 200,
			ExpiryDate:    time.Now().AddDate(1, 6, 0),
		}
		if err := invSvc.ReceiveBatch(ctx, batch); err != nil {
			return fmt.Errorf("seed batch for %q: %w", med.Name, err)
		}
	}

	cust := &customer.Customer{
		FirstName:  "Tariro",
		LastName:   "Moyo",
		NationalID: "63-123456A63",
		Phone:      "+263771234567",
	}
	if _, err := custSvc.Save(ctx, cust); err != nil {
		return fmt.Errorf("seed customer: %w", err)
	}

	fmt.Printf("Seeded %d medicines with stock batches and 1 customer.\n", len(meds))
	return nil
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			SigningKey: []byte(cfg.JWTSecret),
		}))
	}

	api := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	api.Use(middleware.RateLimit(rateLimitCfg))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": cfg.PharmacyName,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Websocket hub for dispensing queue events
	hub := ws.NewHub()
	wsHandler := ws.NewHandler(hub)
	wsHandler.RegisterRoutes(api)

	interpreter := sig.NewInterpreter()

	// Domain services
	custSvc := customer.NewService(customer.NewRepo(pool))
	medSvc := medicine.NewService(medicine.NewRepo(pool))
	invSvc := inventory.NewService(inventory.NewRepo(pool))
	rxSvc := prescription.NewService(prescription.NewRepo(pool), interpreter, cfg.DispensingFee)
	posSvc := pos.NewService(pos.NewRepo(pool), cfg.ZWLRate)
	claimSvc := claims.NewService(claims.NewRepo(pool))

	dispSvc := dispensing.NewService(dispensing.NewStore(), pool, dispensing.Deps{
		Customers:     custSvc,
		Medicines:     medSvc,
		Prescriptions: rxSvc,
		Inventory:     invSvc,
		Sales:         posSvc,
		Claims:        claimSvc,
		Events:        hub,
	}, dispensing.Config{
		ClaimPolicy: cfg.ClaimPolicy,
		LabelFooter: cfg.LabelFooter,
	})

	// Domain handlers
	customer.NewHandler(custSvc).RegisterRoutes(api)
	medicine.NewHandler(medSvc).RegisterRoutes(api)
	inventory.NewHandler(invSvc).RegisterRoutes(api)
	prescription.NewHandler(rxSvc, hub).RegisterRoutes(api)
	dispensing.NewHandler(dispSvc).RegisterRoutes(api)
	pos.NewHandler(posSvc).RegisterRoutes(api)
	claims.NewHandler(claimSvc).RegisterRoutes(api)

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}
	return nil
}
