// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"plantcare/internal/app"
	"plantcare/internal/config"
)

// OIDC holds the SSO provider wiring.
type OIDC struct {
	OAuth2   *oauth2.Config
	Verifier *oidc.IDTokenVerifier
}

// NewOIDC discovers the provider at cfg.Issuer.
func NewOIDC(ctx context.Context, cfg config.OIDCConfig) (*OIDC, error) {
	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, err
	}
	return &OIDC{
		OAuth2: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
		Verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(s.access.SessionTTL().Seconds()),
	})
}

func (s *Server) handleAuthConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled":     s.authEnabled(),
		"sso_enabled": s.authEnabled() && s.sso != nil,
	})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r)
	if session == nil {
		writeJSON(w, http.StatusOK, map[string]any{"subject": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"subject":    session.Subject,
		"expires_at": session.ExpiresAt,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.access == nil {
		writeError(w, http.StatusNotFound, "login disabled")
		return
	}
	var req struct {
		Password string `json:"password"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	token, err := s.access.Login(r.Context(), req.Password)
	if errors.Is(err, app.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		s.log.Error("login failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil && s.access != nil {
		if err := s.access.Logout(r.Context(), cookie.Value); err != nil {
			s.log.Warn("logout: delete session", zap.Error(err))
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSSOLogin(w http.ResponseWriter, r *http.Request) {
	if s.sso == nil || s.access == nil {
		writeError(w, http.StatusNotFound, "sso disabled")
		return
	}
	state, err := generateState()
	if err != nil {
		s.log.Error("sso: generate state", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode, // Lax required for cross-site redirect returns
		MaxAge:   300,
	})
	http.Redirect(w, r, s.sso.OAuth2.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleSSOCallback(w http.ResponseWriter, r *http.Request) {
	if s.sso == nil || s.access == nil {
		writeError(w, http.StatusNotFound, "sso disabled")
		return
	}

	state, err := r.Cookie("oauth_state")
	if err != nil || state.Value == "" || r.URL.Query().Get("state") != state.Value {
		writeError(w, http.StatusBadRequest, "invalid state")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", MaxAge: -1, Path: "/"})

	token, err := s.sso.OAuth2.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		s.log.Warn("sso: exchange code", zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to exchange token")
		return
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		writeError(w, http.StatusBadGateway, "no id_token")
		return
	}
	idToken, err := s.sso.Verifier.Verify(r.Context(), rawIDToken)
	if err != nil {
		s.log.Warn("sso: verify id token", zap.Error(err))
		writeError(w, http.StatusUnauthorized, "failed to verify token")
		return
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Sub           string `json:"sub"`
	}
	if err := idToken.Claims(&claims); err != nil {
		writeError(w, http.StatusBadGateway, "failed to parse claims")
		return
	}
	if claims.Email != "" && !claims.EmailVerified {
		s.log.Warn("sso: unverified email", zap.String("email", claims.Email))
		writeError(w, http.StatusForbidden, "email not verified")
		return
	}
	subject := claims.Email
	if subject == "" {
		subject = claims.Sub
	}

	sessionToken, err := s.access.LoginSubject(r.Context(), subject)
	if errors.Is(err, app.ErrForbiddenSubject) {
		s.log.Warn("sso: identity rejected", zap.String("subject", subject))
		writeError(w, http.StatusForbidden, "not allowed")
		return
	}
	if err != nil {
		s.log.Error("sso: create session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	s.setSessionCookie(w, sessionToken)
	http.Redirect(w, r, "/", http.StatusFound)
}

func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
