package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alnoor-clinic/platform/internal/adapters/legacy"
	"github.com/alnoor-clinic/platform/internal/appointment"
	"github.com/alnoor-clinic/platform/internal/audit"
	"github.com/alnoor-clinic/platform/internal/billing"
	"github.com/alnoor-clinic/platform/internal/doctor"
	"github.com/alnoor-clinic/platform/internal/finance"
	"github.com/alnoor-clinic/platform/internal/inventory"
	"github.com/alnoor-clinic/platform/internal/patient"
	"github.com/alnoor-clinic/platform/internal/shared/config"
	"github.com/alnoor-clinic/platform/internal/shared/database"
	"github.com/alnoor-clinic/platform/internal/shared/events"
	"github.com/alnoor-clinic/platform/internal/shared/metrics"
	secmiddleware "github.com/alnoor-clinic/platform/internal/shared/middleware"
	"github.com/alnoor-clinic/platform/internal/treatment"
)

// App holds all application dependencies
type App struct {
	Config *config.Config
	DB     *database.DB
	Bus    events.EventBus
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	app := &App{Config: cfg}

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	app.DB = db
	defer db.Close()

	if err := database.Migrate(ctx, db.Pool); err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}

	// Event bus: EventStoreDB when available, in-process otherwise.
	// The audit trail and domain events ride on whichever is active.
	if cfg.EventStore.Enabled {
		bus, err := events.NewBus(ctx, cfg.EventStore)
		if err != nil {
			fmt.Printf("Warning: EventStoreDB not available: %v\n", err)
			fmt.Println("Falling back to in-process event bus...")
			app.Bus = events.NewMemoryBus()
		} else {
			app.Bus = bus
			fmt.Println("EventStoreDB event bus initialized")
		}
	} else {
		app.Bus = events.NewMemoryBus()
	}
	defer app.Bus.Close()

	// Audit trail: EventStoreDB stream when the real bus is up,
	// Postgres chain otherwise
	var auditStore audit.Store
	if bus, ok := app.Bus.(*events.Bus); ok {
		esStore := audit.NewEventStoreRepository(bus.Client())
		if err := esStore.Initialize(ctx); err != nil {
			fmt.Printf("Warning: audit initialization failed: %v\n", err)
		}
		auditStore = esStore
	} else {
		auditStore = audit.NewRepository(db.Pool)
	}
	recorder := audit.NewRecorder(auditStore)
	if err := recorder.Start(ctx, app.Bus); err != nil {
		fmt.Printf("Warning: audit recorder failed to start: %v\n", err)
	} else {
		fmt.Println("Audit recorder started")
	}

	// Legacy importer
	if cfg.Legacy.Enabled {
		importer := legacy.New(cfg.Legacy, db.Pool)
		if err := importer.Start(ctx); err != nil {
			fmt.Printf("Warning: legacy importer failed to start: %v\n", err)
		} else {
			fmt.Println("Legacy importer started")
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				importer.Stop(stopCtx)
			}()
		}
	}

	limiter := secmiddleware.NewIPRateLimiter(50, 100)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(secmiddleware.InputSanitizer)
	r.Use(secmiddleware.CORS(secmiddleware.DefaultCORSConfig()))
	r.Use(limiter.Middleware)
	r.Use(metrics.Middleware)

	// Health checks
	r.Get("/health", healthHandler(app))
	r.Get("/ready", readyHandler(app))
	r.Handle("/metrics", metrics.Handler())

	r.Get("/", infoHandler)

	r.Route("/api/v1", func(r chi.Router) {
		patientRepo := patient.NewRepository(db.Pool)
		r.Mount("/patients", patient.NewHandler(patientRepo, app.Bus).Routes())

		doctorRepo := doctor.NewRepository(db.Pool)
		r.Mount("/doctors", doctor.NewHandler(doctorRepo, app.Bus).Routes())

		treatmentRepo := treatment.NewRepository(db.Pool)
		r.Mount("/treatments", treatment.NewHandler(treatmentRepo, app.Bus).Routes())

		appointmentRepo := appointment.NewRepository(db.Pool)
		engine := appointment.NewEngine(appointmentRepo, cfg.Scheduling)
		r.Mount("/appointments", appointment.NewHandler(appointmentRepo, engine, app.Bus).Routes())

		billingRepo := billing.NewRepository(db.Pool)
		generator := billing.NewGenerator(billingRepo, billingRepo)
		billingHandler := billing.NewHandler(billingRepo, generator, app.Bus)
		r.Mount("/payments", billingHandler.PaymentRoutes())
		r.Mount("/expenses", billingHandler.ExpenseRoutes())

		ledger := finance.NewStore(db.Pool)
		r.Mount("/reports", finance.NewHandler(finance.NewAggregator(ledger)).Routes())

		inventoryRepo := inventory.NewRepository(db.Pool)
		inventoryHandler := inventory.NewHandler(inventoryRepo, cfg.Inventory, app.Bus)
		r.Mount("/inventory", inventoryHandler.ItemRoutes())
		r.Mount("/suppliers", inventoryHandler.SupplierRoutes())

		r.Mount("/audit", audit.NewHandler(auditStore).Routes())
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		fmt.Println("\nShutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			fmt.Printf("Server shutdown error: %v\n", err)
		}
		close(done)
	}()

	fmt.Println("============================================")
	fmt.Println("Al-Noor Clinic Management Platform")
	fmt.Println("============================================")
	fmt.Printf("Environment: %s\n", cfg.Server.Env)
	fmt.Printf("Server:      http://localhost:%d\n", cfg.Server.Port)
	fmt.Printf("API:         http://localhost:%d/api/v1\n", cfg.Server.Port)
	fmt.Printf("Health:      http://localhost:%d/health\n", cfg.Server.Port)
	fmt.Println("============================================")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}

	<-done
	fmt.Println("Server stopped")
}

func infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"name":    "Al-Noor Clinic Management Platform",
		"version": "1.0.0",
		"docs":    "/api/v1",
	})
}

func healthHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
		})
	}
}

func readyHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"server": "ready",
		}

		if err := app.DB.Health(r.Context()); err != nil {
			checks["database"] = "not ready: " + err.Error()
		} else {
			checks["database"] = "ready"
		}

		if err := app.Bus.Health(); err != nil {
			checks["events"] = "not ready: " + err.Error()
		} else {
			checks["events"] = "ready"
		}

		allReady := true
		for _, status := range checks {
			if status != "ready" {
				allReady = false
				break
			}
		}

		status := http.StatusOK
		if !allReady {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"status": map[bool]string{true: "ready", false: "not ready"}[allReady],
			"checks": checks,
		})
	}
}
