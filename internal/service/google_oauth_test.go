package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestGoogleOAuth(t *testing.T, userinfo string, userinfoStatus int) *GoogleOAuth {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(userinfoStatus)
		_, _ = w.Write([]byte(userinfo))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	g := NewGoogleOAuth("client-id", "client-secret", "http://localhost/callback")
	g.config.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
	g.userInfoURL = srv.URL + "/userinfo"
	return g
}

func TestNewGoogleOAuth_MissingCredentials(t *testing.T) {
	assert.Nil(t, NewGoogleOAuth("", "secret", ""))
	assert.Nil(t, NewGoogleOAuth("id", "", ""))
}

func TestGoogleOAuth_AuthCodeURL(t *testing.T) {
	g := NewGoogleOAuth("client-id", "client-secret", "http://localhost/callback")
	u, err := url.Parse(g.AuthCodeURL("state-123"))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "http://localhost/callback", q.Get("redirect_uri"))
	assert.Contains(t, q.Get("scope"), "email")
}

func TestGoogleOAuth_Exchange(t *testing.T) {
	g := newTestGoogleOAuth(t, `{"sub":"g-1","email":"Test@Gmail.com","email_verified":true,"name":"Test","picture":"https://img"}`, http.StatusOK)

	identity, err := g.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "g-1", identity.Subject)
	assert.Equal(t, "Test@Gmail.com", identity.Email)
	assert.True(t, identity.EmailVerified)
	assert.Equal(t, "https://img", identity.Picture)
}

func TestGoogleOAuth_ExchangeFailures(t *testing.T) {
	g := newTestGoogleOAuth(t, `{"sub":"g-1"}`, http.StatusOK)

	_, err := g.Exchange(context.Background(), "bad-code")
	assert.Error(t, err)

	_, err = g.Exchange(context.Background(), "good-code")
	assert.ErrorContains(t, err, "missing subject or email")

	g = newTestGoogleOAuth(t, `{}`, http.StatusInternalServerError)
	_, err = g.Exchange(context.Background(), "good-code")
	assert.ErrorContains(t, err, "status: 500")
}
