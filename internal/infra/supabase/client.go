package supabase

import (
	"fmt"
	"strings"

	"beloop-server/internal/domain"

	"github.com/supabase-community/supabase-go"
)

// Client implements the domain.SupabaseClient interface. The server talks to
// Supabase with the service key; row ownership is enforced in the repositories.
type Client struct {
	client *supabase.Client
	config domain.Config
	logger domain.Logger
}

// NewClient creates a new Supabase client instance
func NewClient(config domain.Config, logger domain.Logger) *Client {
	return &Client{
		config: config,
		logger: logger,
	}
}

// Configured reports whether Supabase credentials were provided.
func (s *Client) Configured() bool {
	return s.config.GetSupabaseURL() != "" && s.config.GetSupabaseKey() != ""
}

// Initialize establishes a connection to Supabase
func (s *Client) Initialize() error {
	if !s.Configured() {
		return fmt.Errorf("supabase URL and key must be provided")
	}

	supabaseURL := strings.TrimRight(s.config.GetSupabaseURL(), "/")
	client, err := supabase.NewClient(supabaseURL, s.config.GetSupabaseKey(), &supabase.ClientOptions{})
	if err != nil {
		return fmt.Errorf("failed to create Supabase client: %w", err)
	}

	s.client = client
	s.logger.Info("Supabase client initialized successfully", "url", supabaseURL)
	return nil
}

func (s *Client) DB() *supabase.Client {
	return s.client
}
