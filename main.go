package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"lumber-tickets/internal/config"
	"lumber-tickets/internal/database"
	"lumber-tickets/internal/httpapi"
	"lumber-tickets/internal/kafka"
	"lumber-tickets/internal/logger"
	ticket_db "lumber-tickets/internal/tickets/db"
	tickets "lumber-tickets/internal/tickets/service"
	"lumber-tickets/internal/tickets/ticket_api"
)

func main() {
	log := logger.NewLogger()
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()

	bunDB, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open database: %v", err))
	}
	defer bunDB.Close()

	ctx := context.Background()
	if err := database.InitSchema(ctx, bunDB); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to initialize schema: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("SQLite database ready at %s", cfg.Database.Path))

	var events tickets.EventPublisher
	if cfg.Kafka.Enabled {
		topics := []string{
			cfg.Kafka.Topics.TicketCreated,
			cfg.Kafka.Topics.TicketUpdated,
			cfg.Kafka.Topics.TicketDeleted,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, topics); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics)
		defer producer.Close()
		events = producer
		log.Info("KAFKA", fmt.Sprintf("Ticket events enabled, brokers: %v", cfg.Kafka.Brokers))
	}

	service := tickets.NewTicketService(&ticket_db.DB{Bun: bunDB}, events)
	handler := ticket_api.NewHandler(service, log, cfg.Server.Debug)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))
	r.Use(httpapi.RequestLogger(log))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Route("/api", func(r chi.Router) {
		handler.RegisterRoutes(r)
	})
	log.Info("ROUTER", "Ticket routes registered under /api/tickets")

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Lumber ticket service running on %s", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	} else {
		log.Info("HTTP", "Ticket service shutdown complete")
	}
}
