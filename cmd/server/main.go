package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crm-campaigns/backend/internal/config"
	"crm-campaigns/backend/internal/db"
	"crm-campaigns/backend/internal/db/migrate"
	"crm-campaigns/backend/internal/delivery"
	"crm-campaigns/backend/internal/events"
	"crm-campaigns/backend/internal/security"
	"crm-campaigns/backend/internal/server"
	"crm-campaigns/backend/internal/telemetry/otel"

	campaignhandler "crm-campaigns/backend/internal/campaign/handler"
	campaignrepo "crm-campaigns/backend/internal/campaign/repository"
	campaignservice "crm-campaigns/backend/internal/campaign/service"
	customerhandler "crm-campaigns/backend/internal/customer/handler"
	customerrepo "crm-campaigns/backend/internal/customer/repository"
	deliveryhandler "crm-campaigns/backend/internal/delivery/handler"
	orderhandler "crm-campaigns/backend/internal/order/handler"
	orderrepo "crm-campaigns/backend/internal/order/repository"
	"crm-campaigns/backend/internal/segment/engine"
	segmenthandler "crm-campaigns/backend/internal/segment/handler"
	segmentrepo "crm-campaigns/backend/internal/segment/repository"
	segmentservice "crm-campaigns/backend/internal/segment/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	if cfg.AutoMigrate {
		if err := migrate.Run(cfg.DatabaseURL, migrate.Up); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		if version, dirty, err := migrate.Version(cfg.DatabaseURL); err == nil {
			log.Printf("migrate: schema at version %d (dirty=%v)", version, dirty)
		}
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	providers, err := otel.NewProviders(ctx, otel.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	publisher, err := events.Open(cfg, providers.LoggerProvider)
	if err != nil {
		log.Fatalf("events: %v", err)
	}
	emitter := events.NewAsync(publisher)
	log.Printf("events: publishing via %s", cfg.ResolvedEventBackend())

	customers := customerrepo.NewPostgresRepository(database)
	orders := orderrepo.NewPostgresRepository(database)
	segments := segmentrepo.NewPostgresRepository(database)
	campaigns := campaignrepo.NewPostgresRepository(database)
	logs := campaignrepo.NewLogPostgresRepository(database)

	resolver := engine.NewResolver(customers, engine.Mode(cfg.AudienceMode))
	vendor := delivery.NewSimulatedVendor(cfg.DeliverySuccessRate, nil)
	processor := delivery.NewProcessor(logs)
	dispatcher := campaignservice.NewDispatcher(segments, resolver, vendor, campaigns, logs, emitter, cfg.FanoutBatchSize)
	segmentSvc := segmentservice.NewService(segments, resolver)
	launcher := segmentservice.NewAutoLauncher(segmentSvc, dispatcher, cfg.AutoLaunchNamedSegments, cfg.DefaultCampaignMessage)
	deliveryHandler := deliveryhandler.NewHandler(processor, vendor)

	deps := server.Deps{
		Customers:    customerhandler.NewHandler(customers, emitter),
		Orders:       orderhandler.NewHandler(orders, emitter),
		Segments:     segmenthandler.NewHandler(segmentSvc, launcher),
		Campaigns:    campaignhandler.NewHandler(dispatcher),
		Delivery:     deliveryHandler,
		HealthPinger: database,
		CORSOrigin:   cfg.CORSOrigin,
	}
	if cfg.AuthEnabled() {
		verifier, err := security.NewVerifier(cfg.JWTPublicKey, cfg.JWTIssuer, cfg.JWTAudience)
		if err != nil {
			log.Fatalf("auth: %v", err)
		}
		deps.Verifier = verifier
		log.Println("auth: operator routes require a bearer token")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.New(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s (audience mode %s)", cfg.HTTPAddr, cfg.AudienceMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	deliveryHandler.Wait()
	if err := emitter.Drain(shutdownCtx); err != nil {
		log.Printf("events: drain: %v", err)
	}
	if err := publisher.Close(); err != nil {
		log.Printf("events: close: %v", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry: shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
