package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

// OAuthProvider is one configured sign-in provider.
type OAuthProvider struct {
	Name        string
	Config      *oauth2.Config
	UserInfoURL string
	// EmailsURL is queried when the profile carries no public email (GitHub).
	EmailsURL string
	parse     func(body []byte) (*OAuthProfile, error)
}

type OAuthService struct {
	providers map[string]*OAuthProvider
}

// NewOAuthService registers every provider that has credentials configured.
func NewOAuthService(cfg *config.OAuthConfig, baseURL string) *OAuthService {
	s := &OAuthService{providers: map[string]*OAuthProvider{}}
	callback := func(name string) string {
		return strings.TrimRight(baseURL, "/") + "/api/auth/" + name + "/callback"
	}

	if cfg.Google.Enabled() {
		s.Register(&OAuthProvider{
			Name: ProviderGoogle,
			Config: &oauth2.Config{
				ClientID:     cfg.Google.ClientID,
				ClientSecret: cfg.Google.ClientSecret,
				Endpoint:     endpoints.Google,
				RedirectURL:  callback(ProviderGoogle),
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
			parse:       parseGoogleProfile,
		})
	}
	if cfg.GitHub.Enabled() {
		s.Register(&OAuthProvider{
			Name: ProviderGitHub,
			Config: &oauth2.Config{
				ClientID:     cfg.GitHub.ClientID,
				ClientSecret: cfg.GitHub.ClientSecret,
				Endpoint:     endpoints.GitHub,
				RedirectURL:  callback(ProviderGitHub),
				Scopes:       []string{"read:user", "user:email"},
			},
			UserInfoURL: "https://api.github.com/user",
			EmailsURL:   "https://api.github.com/user/emails",
			parse:       parseGitHubProfile,
		})
	}
	return s
}

// Register adds or replaces a provider. Providers without a parser get the
// one matching their name.
func (s *OAuthService) Register(p *OAuthProvider) {
	if p.parse == nil {
		switch p.Name {
		case ProviderGitHub:
			p.parse = parseGitHubProfile
		default:
			p.parse = parseGoogleProfile
		}
	}
	s.providers[p.Name] = p
}

func (s *OAuthService) Providers() []string {
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *OAuthService) provider(name string) (*OAuthProvider, error) {
	p, ok := s.providers[name]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return p, nil
}

// AuthCodeURL builds the provider redirect with a PKCE challenge derived
// from verifier.
func (s *OAuthService) AuthCodeURL(name, state, verifier string) (string, error) {
	p, err := s.provider(name)
	if err != nil {
		return "", err
	}
	return p.Config.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier)), nil
}

// Exchange trades the callback code for a token and loads the profile.
func (s *OAuthService) Exchange(ctx context.Context, name, code, verifier string) (*OAuthProfile, error) {
	p, err := s.provider(name)
	if err != nil {
		return nil, err
	}
	token, err := p.Config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	client := p.Config.Client(ctx, token)
	body, err := getJSON(ctx, client, p.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	profile, err := p.parse(body)
	if err != nil {
		return nil, err
	}
	profile.Provider = p.Name

	if profile.Email == "" && p.EmailsURL != "" {
		body, err := getJSON(ctx, client, p.EmailsURL)
		if err != nil {
			return nil, fmt.Errorf("fetch emails: %w", err)
		}
		profile.Email, err = primaryGitHubEmail(body)
		if err != nil {
			return nil, err
		}
	}
	if profile.Email == "" {
		return nil, fmt.Errorf("%s account has no verified email address", p.Name)
	}
	return profile, nil
}

func getJSON(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %d", url, resp.StatusCode)
	}
	return body, nil
}

func parseGoogleProfile(body []byte) (*OAuthProfile, error) {
	var info struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("decode google profile: %w", err)
	}
	if !info.EmailVerified {
		info.Email = ""
	}
	return &OAuthProfile{Email: info.Email, Name: info.Name, Image: info.Picture}, nil
}

func parseGitHubProfile(body []byte) (*OAuthProfile, error) {
	var info struct {
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("decode github profile: %w", err)
	}
	name := info.Name
	if name == "" {
		name = info.Login
	}
	return &OAuthProfile{Email: info.Email, Name: name, Image: info.AvatarURL}, nil
}

func primaryGitHubEmail(body []byte) (string, error) {
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := json.Unmarshal(body, &emails); err != nil {
		return "", fmt.Errorf("decode github emails: %w", err)
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email, nil
		}
	}
	return "", nil
}
