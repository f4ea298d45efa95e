package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itsmessk/infoziant-courses/config"
	"github.com/itsmessk/infoziant-courses/db"
	apphttp "github.com/itsmessk/infoziant-courses/http"
	"github.com/itsmessk/infoziant-courses/http/handlers"
	"github.com/itsmessk/infoziant-courses/logger"
	"github.com/itsmessk/infoziant-courses/services"
	"github.com/itsmessk/infoziant-courses/services/kafka"

	netHttp "net/http"
)

func main() {
	cfg := config.Load()

	database, err := db.Open(cfg)
	if err != nil {
		logger.Fatal("Error initializing database: %v", err)
	}
	defer database.Close()

	userStore := db.NewUserStore(database)
	courseStore := db.NewCourseStore(database)
	paymentStore := db.NewPaymentStore(database)

	// Kafka is optional; without brokers dispatch falls back to direct SMTP.
	kafkaEnabled := cfg.KafkaBrokers != ""
	if kafkaEnabled {
		kafka.InitProducer(cfg.KafkaBrokers)
		if err := kafka.InitConsumer(cfg.KafkaBrokers); err != nil {
			logger.Error("Error initializing Kafka consumer: %v", err)
			kafkaEnabled = false
		}
	}

	mailer := services.NewMailer(cfg)
	dispatcher := services.NewDispatcher(mailer, kafkaEnabled)

	if kafkaEnabled {
		kafka.RegisterEmailProcessor(dispatcher.ProcessEmailEvent)
		kafka.StartConsumer()
	}

	gateway, err := services.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	if err != nil {
		logger.Fatal("Error initializing payment gateway: %v", err)
	}

	var publish services.EventPublisher
	if kafkaEnabled {
		publish = kafka.Publish
	}

	enrollments := services.NewEnrollmentService(services.EnrollmentConfig{
		KeyID:     cfg.RazorpayKeyID,
		KeySecret: cfg.RazorpayKeySecret,
		Currency:  cfg.Currency,
		Mode:      cfg.RazorpayMode,
	}, paymentStore, courseStore, userStore, gateway, publish, dispatcher)

	auth := services.NewAuthService(userStore, dispatcher, cfg.JWTSecret, cfg.BaseURL)

	// Repair enrollments dropped between the payment write and the grant.
	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if repaired, err := enrollments.Reconcile(startupCtx); err != nil {
		logger.Error("Startup enrollment reconciliation failed: %v", err)
	} else if repaired > 0 {
		logger.Info("Startup reconciliation granted %d missing enrollments", repaired)
	}
	cancel()

	mux := apphttp.SetupRoutes(apphttp.Handlers{
		Auth:     auth,
		Users:    handlers.NewUserHandler(auth, userStore),
		Courses:  handlers.NewCourseHandler(courseStore),
		Payments: handlers.NewPaymentHandler(enrollments),
	})

	server := &netHttp.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != netHttp.ErrServerClosed {
			logger.Fatal("Server error: %v", err)
		}
	}()

	<-sigChan
	logger.Info("Shutdown signal received")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down HTTP server: %v", err)
	}

	if kafkaEnabled {
		if err := kafka.StopConsumer(); err != nil {
			logger.Error("Error stopping Kafka consumer: %v", err)
		}
		if err := kafka.Close(); err != nil {
			logger.Error("Error closing Kafka producer: %v", err)
		}
	}

	logger.Info("Server shutdown complete")
}
