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

	"beloop-server/internal/config"
	"beloop-server/internal/domain"
	"beloop-server/internal/handler"

	"github.com/joho/godotenv"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		log.Printf("Server stopped: %v", err)
		os.Exit(1)
	}
}

func run() error {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	ctx := context.Background()

	// Wiring
	container := config.NewContainer(ctx)
	defer func() {
		if err := container.Close(); err != nil {
			container.Logger.Error("Failed to close dependencies", err)
		}
	}()

	if err := container.SeedDemoUser(ctx); err != nil {
		container.Logger.Error("Failed to seed demo user", err)
	}

	logger := container.Logger
	frontendURL := container.Config.GetFrontendURL()

	// Handlers
	handlers := handler.Handlers{
		Auth:         handler.NewAuthHandler(container.AuthService, frontendURL, logger),
		Account:      handler.NewAccountHandler(container.AccountService, logger),
		Membership:   handler.NewMembershipHandler(container.MembershipService, logger),
		Chat:         handler.NewChatHandler(container.ChatService, logger),
		Conversation: handler.NewConversationHandler(container.ChatHistoryService, logger),
		Subscription: handler.NewSubscriptionHandler(container.PaymentService, logger),
		Favorite:     handler.NewFavoriteHandler(container.FavoriteService, logger),
	}

	authMiddleware := handler.NewAuthMiddleware(
		container.AuthService,
		logger,
	)

	// Router
	router := handler.NewRouter(
		handlers,
		authMiddleware.Middleware,
		container.Config.GetAllowedOrigins(),
		logger,
	)

	server := &http.Server{
		Addr:              ":" + container.Config.GetServerPort(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	logger.Info("Server listening", "address", server.Addr, "chat_backend", container.ChatModel.Name())
	return serve(ctx, server, quit, logger)
}

// serve runs server until it fails or a signal arrives on quit, then shuts
// it down gracefully.
func serve(ctx context.Context, server *http.Server, quit <-chan os.Signal, logger domain.Logger) error {
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("Server failed to start", err)
		return err
	case <-quit:
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", err)
		_ = server.Close()
		return err
	}

	logger.Info("Server exited")
	return nil
}
