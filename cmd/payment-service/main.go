package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"ms-foodcourt/internal/config"
	"ms-foodcourt/internal/logger"
	orderclient "ms-foodcourt/internal/order/client"
	"ms-foodcourt/internal/payment"
	handlers "ms-foodcourt/internal/payment/handlers"
)

func main() {
	logger := logger.NewLogger("payment-service")
	defer logger.Close()

	logger.Info("APP", "Starting Payment Service initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	}

	cfg := config.Load()

	apiBaseURL := os.Getenv("ORDER_API_URL")
	if apiBaseURL == "" {
		apiBaseURL = "http://localhost:8086"
	}
	internalToken := os.Getenv("INTERNAL_API_TOKEN")
	if internalToken == "" {
		logger.Fatal("CONFIG", "INTERNAL_API_TOKEN not set")
	}

	orders := orderclient.New(apiBaseURL, internalToken, logger)

	paymentService, err := payment.NewService(cfg.Stripe, cfg.Server.StorefrontURL, orders, logger)
	if err != nil {
		logger.Fatal("STRIPE", fmt.Sprintf("Failed to initialize payment service: %v", err))
	}

	handler := handlers.NewStripeHandler(paymentService, logger)

	r := gin.Default()
	r.GET("/health", handler.Health)
	api := r.Group("/api/payment")
	{
		api.POST("/create-checkout-session", handler.CreateCheckoutSession)
		api.POST("/webhook", handler.Webhook)
	}

	port := os.Getenv("PAYMENT_PORT")
	if port == "" {
		port = ":8087"
	}

	server := &http.Server{
		Addr:    port,
		Handler: r,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 Payment Service running on %s", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "✅ Payment Service shutdown complete")
	}
}
