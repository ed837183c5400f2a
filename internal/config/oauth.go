package config

import (
	"errors"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/facebook"
	"github.com/markbates/goth/providers/google"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

// GoogleOAuthConfig sert à l'échange d'un code d'autorisation Google (flux SPA).
func GoogleOAuthConfig(cfg *Config) *oauth2.Config {
	return &oauth2.Config{
		RedirectURL:  "postmessage",
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: googleoauth.Endpoint,
	}
}

// InitOAuthProviders configure goth (Google, Facebook) pour le flux OAuth web.
func InitOAuthProviders(cfg *Config) {
	if cfg.SessionSecret == "" {
		zap.S().Warn("⚠️ SESSION_SECRET manquant, OAuth web désactivé")
		return
	}

	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.MaxAge(86400 * 30)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = store

	// Le provider vient du paramètre de route ":provider", recopié en query par le handler
	gothic.GetProviderName = func(req *http.Request) (string, error) {
		if provider := req.URL.Query().Get("provider"); provider != "" {
			return provider, nil
		}
		if provider := req.FormValue("provider"); provider != "" {
			return provider, nil
		}
		return "", errors.New("provider not found")
	}

	var providers []goth.Provider

	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		providers = append(providers, google.New(
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.BaseURL+"/api/auth/oauth/google/callback",
			"email", "profile",
		))
		zap.S().Info("✅ Google OAuth activé")
	}

	if cfg.FacebookClientID != "" && cfg.FacebookClientSecret != "" {
		providers = append(providers, facebook.New(
			cfg.FacebookClientID,
			cfg.FacebookClientSecret,
			cfg.BaseURL+"/api/auth/oauth/facebook/callback",
			"email",
		))
		zap.S().Info("✅ Facebook OAuth activé")
	}

	if len(providers) == 0 {
		zap.S().Warn("⚠️ Aucun provider OAuth configuré")
		return
	}

	goth.UseProviders(providers...)
	zap.S().Infof("✅ %d OAuth provider(s) initialisé(s)", len(providers))
}
