package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newProviderServer(t *testing.T, profile, emails string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" || r.Form.Get("code_verifier") == "" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok","token_type":"bearer"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(profile))
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(emails))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testProvider(name string, srv *httptest.Server) *OAuthProvider {
	return &OAuthProvider{
		Name: name,
		Config: &oauth2.Config{
			ClientID:     "id",
			ClientSecret: "secret",
			Endpoint: oauth2.Endpoint{
				AuthURL:   srv.URL + "/authorize",
				TokenURL:  srv.URL + "/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
			RedirectURL: "https://vibe.example.com/api/auth/" + name + "/callback",
		},
		UserInfoURL: srv.URL + "/user",
		EmailsURL:   srv.URL + "/user/emails",
	}
}

func TestNewOAuthService_OnlyConfiguredProviders(t *testing.T) {
	s := NewOAuthService(&config.OAuthConfig{
		GitHub: config.OAuthProvider{ClientID: "id", ClientSecret: "secret"},
	}, "https://vibe.example.com/")
	assert.Equal(t, []string{ProviderGitHub}, s.Providers())

	_, err := s.AuthCodeURL(ProviderGoogle, "state", oauth2.GenerateVerifier())
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestAuthCodeURL_CarriesStateAndChallenge(t *testing.T) {
	s := NewOAuthService(&config.OAuthConfig{
		Google: config.OAuthProvider{ClientID: "id", ClientSecret: "secret"},
	}, "https://vibe.example.com")

	raw, err := s.AuthCodeURL(ProviderGoogle, "xyz", oauth2.GenerateVerifier())
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "xyz", q.Get("state"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))
	assert.Equal(t, "https://vibe.example.com/api/auth/google/callback", q.Get("redirect_uri"))
}

func TestExchange_Google(t *testing.T) {
	srv := newProviderServer(t, `{"email":"ada@example.com","email_verified":true,"name":"Ada","picture":"https://img/ada.png"}`, `[]`)
	s := NewOAuthService(&config.OAuthConfig{}, "")
	s.Register(testProvider(ProviderGoogle, srv))

	profile, err := s.Exchange(context.Background(), ProviderGoogle, "good-code", oauth2.GenerateVerifier())
	require.NoError(t, err)
	assert.Equal(t, ProviderGoogle, profile.Provider)
	assert.Equal(t, "ada@example.com", profile.Email)
	assert.Equal(t, "Ada", profile.Name)

	_, err = s.Exchange(context.Background(), ProviderGoogle, "bad-code", oauth2.GenerateVerifier())
	assert.Error(t, err)
}

func TestExchange_GoogleUnverifiedEmail(t *testing.T) {
	srv := newProviderServer(t, `{"email":"ada@example.com","email_verified":false}`, `[]`)
	s := NewOAuthService(&config.OAuthConfig{}, "")
	p := testProvider(ProviderGoogle, srv)
	p.EmailsURL = ""
	s.Register(p)

	_, err := s.Exchange(context.Background(), ProviderGoogle, "good-code", oauth2.GenerateVerifier())
	assert.Error(t, err)
}

func TestExchange_GitHubPrivateEmail(t *testing.T) {
	srv := newProviderServer(t,
		`{"login":"ada","name":"","email":null,"avatar_url":"https://img/ada.png"}`,
		`[{"email":"old@example.com","primary":false,"verified":true},{"email":"ada@example.com","primary":true,"verified":true}]`)
	s := NewOAuthService(&config.OAuthConfig{}, "")
	s.Register(testProvider(ProviderGitHub, srv))

	profile, err := s.Exchange(context.Background(), ProviderGitHub, "good-code", oauth2.GenerateVerifier())
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", profile.Email)
	assert.Equal(t, "ada", profile.Name, "login stands in for a missing display name")
}
