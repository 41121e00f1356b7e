package repository

import (
	"encoding/json"
	"fmt"
	"strings"

	"beloop-server/internal/domain"

	"github.com/supabase-community/supabase-go"
)

func dbClient(sc domain.SupabaseClient) (*supabase.Client, error) {
	client := sc.DB()
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}
	return client, nil
}

// decodeRows unmarshals a PostgREST response body; an empty body is no rows.
func decodeRows[T any](data []byte) ([]T, error) {
	var rows []T
	if len(data) == 0 {
		return rows, nil
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return rows, nil
}

// isUniqueViolation matches Postgres error 23505 as surfaced by PostgREST.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key")
}
