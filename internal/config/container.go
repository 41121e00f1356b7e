package config

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"beloop-server/internal/domain"
	"beloop-server/internal/infra/supabase"
	"beloop-server/internal/repository"
	"beloop-server/internal/service"
	"beloop-server/pkg/logger"
)

type userSeeder interface {
	SeedUser(ctx context.Context, email, password, name string) error
}

// Container holds all application dependencies
type Container struct {
	Config         domain.Config
	Logger         domain.Logger
	SupabaseClient domain.SupabaseClient

	UserRepository         domain.UserRepository
	MembershipRepository   domain.MembershipRepository
	SubscriptionRepository domain.SubscriptionRepository
	ChatRepository         domain.ChatRepository
	FavoriteRepository     domain.FavoriteRepository

	ChatModel domain.ChatModel

	AuthService        domain.AuthService
	MembershipService  domain.MembershipService
	PaymentService     domain.PaymentService
	ChatService        domain.ChatService
	ChatHistoryService domain.ChatHistoryService
	FavoriteService    domain.FavoriteService
	AccountService     domain.AccountService

	seeder  userSeeder
	closers []func() error
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context) *Container {
	config := NewConfig()
	return NewContainerWithConfig(ctx, config, logger.NewLogger(config.GetLogLevel()))
}

// NewContainerWithConfig wires the application from an explicit config.
// Users, conversations and favorites live in Supabase when it is configured
// and reachable; everything else is kept in process memory.
func NewContainerWithConfig(ctx context.Context, config domain.Config, appLogger domain.Logger) *Container {
	c := &Container{
		Config: config,
		Logger: appLogger,
	}

	c.UserRepository = repository.NewMemoryUserRepository()
	c.ChatRepository = repository.NewMemoryChatRepository()
	c.FavoriteRepository = repository.NewMemoryFavoriteRepository()
	c.MembershipRepository = repository.NewMemoryMembershipRepository()
	c.SubscriptionRepository = repository.NewMemorySubscriptionRepository()

	supabaseClient := supabase.NewClient(config, appLogger)
	if supabaseClient.Configured() {
		if err := supabaseClient.Initialize(); err != nil {
			appLogger.Warn("Supabase unavailable, falling back to in-memory storage", "error", err)
		} else {
			c.SupabaseClient = supabaseClient
			c.UserRepository = repository.NewSupabaseUserRepository(supabaseClient, appLogger)
			c.ChatRepository = repository.NewSupabaseChatRepository(supabaseClient, appLogger)
			c.FavoriteRepository = repository.NewSupabaseFavoriteRepository(supabaseClient, appLogger)
		}
	} else {
		appLogger.Info("Supabase not configured, using in-memory storage")
	}

	c.ChatModel = c.newChatModel(ctx)

	tokens := service.NewTokenService(sessionSecret(config, appLogger), config.GetSessionTTL())
	var google domain.OAuthProvider
	if g := service.NewGoogleOAuth(config.GetGoogleClientID(), config.GetGoogleClientSecret(), config.GetGoogleRedirectURL()); g != nil {
		google = g
	}
	authService := service.NewAuthService(c.UserRepository, tokens, google, appLogger)
	c.AuthService = authService
	c.seeder = authService

	membershipService := service.NewMembershipService(c.MembershipRepository, appLogger)
	c.MembershipService = membershipService

	processor := service.NewMockProcessor(config.GetPaymentDelay(), config.GetPaymentFailureRate(), appLogger)
	c.PaymentService = service.NewPaymentService(c.SubscriptionRepository, processor, membershipService, appLogger)

	c.ChatService = service.NewChatService(c.ChatRepository, membershipService, c.ChatModel, config.GetGeminiModel(), appLogger)
	c.ChatHistoryService = service.NewChatHistoryService(c.ChatRepository, membershipService, appLogger)
	c.FavoriteService = service.NewFavoriteService(c.FavoriteRepository, appLogger)
	c.AccountService = service.NewAccountService(c.UserRepository, membershipService, c.PaymentService, c.FavoriteRepository, c.ChatRepository)

	return c
}

// sessionSecret returns JWT_SECRET, or a random secret for this process when
// it is unset. Sessions signed with a random secret end at restart.
func sessionSecret(config domain.Config, appLogger domain.Logger) string {
	if secret := config.GetJWTSecret(); secret != "" {
		return secret
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic("config: failed to generate session secret: " + err.Error())
	}
	appLogger.Warn("JWT_SECRET not set, using a random per-process secret; sessions will not survive a restart")
	return hex.EncodeToString(buf)
}

// newChatModel picks the Gemini API when a key is set, then Vertex AI when a
// GCP project is set, and otherwise the offline echo model.
func (c *Container) newChatModel(ctx context.Context) domain.ChatModel {
	if key := c.Config.GetGeminiAPIKey(); key != "" {
		model, err := service.NewGeminiModel(ctx, key)
		if err == nil {
			c.Logger.Info("Chat backend ready", "backend", model.Name(), "model", c.Config.GetGeminiModel())
			return model
		}
		c.Logger.Error("Failed to initialize Gemini API client", err)
	}

	if project := c.Config.GetGCPProjectID(); project != "" {
		model, err := service.NewVertexModel(ctx, project, c.Config.GetGCPLocation())
		if err == nil {
			c.closers = append(c.closers, model.Close)
			c.Logger.Info("Chat backend ready", "backend", model.Name(), "project", project, "location", c.Config.GetGCPLocation())
			return model
		}
		c.Logger.Error("Failed to initialize Vertex AI client", err, "project", project)
	}

	c.Logger.Warn("No Gemini credentials configured, chat runs in demo mode")
	return service.NewEchoModel()
}

// SeedDemoUser creates the configured demo account if it does not exist yet.
func (c *Container) SeedDemoUser(ctx context.Context) error {
	email := c.Config.GetDemoUserEmail()
	if email == "" {
		return nil
	}
	if err := c.seeder.SeedUser(ctx, email, c.Config.GetDemoUserPassword(), "Demo User"); err != nil {
		return err
	}
	c.Logger.Info("Demo user ready", "email", email)
	return nil
}

// Close releases clients opened by the container.
func (c *Container) Close() error {
	var firstErr error
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// GetConfig returns the configuration instance
func (c *Container) GetConfig() domain.Config {
	return c.Config
}

// GetLogger returns the logger instance
func (c *Container) GetLogger() domain.Logger {
	return c.Logger
}
