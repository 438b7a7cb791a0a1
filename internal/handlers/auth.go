package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/config"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/middleware"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/services"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/logger"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"golang.org/x/oauth2"
)

const (
	oauthSessionName = "vibe_oauth"
	oauthSessionTTL  = 10 * time.Minute
)

type AuthHandler struct {
	authService  *services.AuthService
	oauthService *services.OAuthService
	store        sessions.Store
	jwt          config.JWTConfig
	oauth        config.OAuthConfig
	frontendURL  string
}

func NewAuthHandler(svc *services.Services) *AuthHandler {
	cfg := svc.Config
	secret := cfg.OAuth.SessionSecret
	if secret == "" {
		secret = cfg.JWT.Secret
	}
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/api/auth",
		MaxAge:   int(oauthSessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.JWT.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	frontend := cfg.Server.BaseURL
	if len(cfg.Server.AllowOrigins) > 0 && cfg.Server.AllowOrigins[0] != "*" {
		frontend = cfg.Server.AllowOrigins[0]
	}

	return &AuthHandler{
		authService:  svc.Auth,
		oauthService: svc.OAuth,
		store:        store,
		jwt:          cfg.JWT,
		oauth:        cfg.OAuth,
		frontendURL:  strings.TrimRight(frontend, "/"),
	}
}

func (h *AuthHandler) refreshCookieName() string {
	return h.jwt.CookieName + "_refresh"
}

// Providers lists the configured sign-in providers
// GET /api/auth/providers
func (h *AuthHandler) Providers(c *gin.Context) {
	response.Success(c, gin.H{"providers": h.oauthService.Providers()})
}

// Login starts the OAuth dance. State and the PKCE verifier live in a
// short-lived signed cookie until the callback.
// GET /api/auth/:provider/login
func (h *AuthHandler) Login(c *gin.Context) {
	provider := c.Param("provider")
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	url, err := h.oauthService.AuthCodeURL(provider, state, verifier)
	if err != nil {
		handleError(c, err)
		return
	}

	session, _ := h.store.Get(c.Request, oauthSessionName)
	session.Values["provider"] = provider
	session.Values["state"] = state
	session.Values["verifier"] = verifier
	session.Values["redirect"] = safeRedirect(c.Query("redirect"))
	if err := session.Save(c.Request, c.Writer); err != nil {
		handleError(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

// Callback finishes sign-in, sets the session cookies and sends the browser
// back to the frontend.
// GET /api/auth/:provider/callback
func (h *AuthHandler) Callback(c *gin.Context) {
	provider := c.Param("provider")
	session, err := h.store.Get(c.Request, oauthSessionName)
	if err != nil || session.IsNew {
		response.BadRequest(c, "sign-in session expired, please try again")
		return
	}
	state, _ := session.Values["state"].(string)
	verifier, _ := session.Values["verifier"].(string)
	stored, _ := session.Values["provider"].(string)
	redirect, _ := session.Values["redirect"].(string)

	session.Options.MaxAge = -1
	_ = session.Save(c.Request, c.Writer)

	if providerErr := c.Query("error"); providerErr != "" {
		response.BadRequest(c, "sign-in was cancelled: "+providerErr)
		return
	}
	if state == "" || stored != provider || c.Query("state") != state {
		response.BadRequest(c, "invalid sign-in state")
		return
	}

	profile, err := h.oauthService.Exchange(c.Request.Context(), provider, c.Query("code"), verifier)
	if err != nil {
		logger.Warn().Err(err).Str("provider", provider).Msg("[Auth] code exchange failed")
		response.Unauthorized(c, "sign-in failed")
		return
	}

	result, err := h.authService.SignIn(profile, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		handleError(c, err)
		return
	}
	h.setSessionCookies(c, result)

	if redirect == "" {
		redirect = "/"
	}
	c.Redirect(http.StatusFound, h.frontendURL+redirect)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh rotates the refresh token and issues a new access token
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, _ := c.Cookie(h.refreshCookieName())
	if token == "" {
		var req refreshRequest
		_ = c.ShouldBindJSON(&req)
		token = req.RefreshToken
	}

	result, err := h.authService.Refresh(token, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		handleError(c, err)
		return
	}
	h.setSessionCookies(c, result)
	response.Success(c, gin.H{
		"accessToken": result.AccessToken,
		"expiresAt":   result.AccessExpireAt,
		"user":        result.User,
	})
}

// Logout revokes the refresh token and clears both cookies
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, _ := c.Cookie(h.refreshCookieName()); token != "" {
		if err := h.authService.RevokeRefreshToken(token); err != nil {
			logger.Warn().Err(err).Msg("[Auth] revoke refresh token failed")
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.jwt.CookieName, "", -1, "/", "", h.jwt.Secure, true)
	c.SetCookie(h.refreshCookieName(), "", -1, "/api/auth", "", h.jwt.Secure, true)
	response.Success(c, nil)
}

// Me returns the signed-in user
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authService.GetUserByID(middleware.GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"user":    user,
		"isAdmin": user.IsAdmin() || h.oauth.IsAdminEmail(user.Email),
	})
}

func (h *AuthHandler) setSessionCookies(c *gin.Context, result *services.LoginResult) {
	now := time.Now()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.jwt.CookieName, result.AccessToken,
		int(result.AccessExpireAt.Sub(now).Seconds()), "/", "", h.jwt.Secure, true)
	c.SetCookie(h.refreshCookieName(), result.RefreshToken,
		int(result.RefreshExpireAt.Sub(now).Seconds()), "/api/auth", "", h.jwt.Secure, true)
}

// safeRedirect keeps post-login redirects on our own frontend.
func safeRedirect(path string) string {
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") || strings.Contains(path, "\\") {
		return ""
	}
	return path
}
