// Package auth vérifie les identités fournies par les providers externes.
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"vendora_back_end/internal/config"
)

var tokenInfoURL = "https://oauth2.googleapis.com/tokeninfo?id_token="

var (
	ErrInvalidGoogleToken = errors.New("token Google invalide")
	ErrAudienceMismatch   = errors.New("client ID non autorisé")
)

// GoogleProfile est l'identité extraite d'un ID token Google.
type GoogleProfile struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// GoogleVerifier valide un ID token (ou un code d'autorisation) Google.
type GoogleVerifier interface {
	Verify(ctx context.Context, token string) (*GoogleProfile, error)
}

// Google est le vérificateur actif; les tests le remplacent.
var Google GoogleVerifier = &googleVerifier{client: &http.Client{Timeout: 10 * time.Second}}

type googleVerifier struct {
	client *http.Client
}

// looksLikeJWT distingue un ID token d'un code d'autorisation.
func looksLikeJWT(token string) bool {
	return strings.Count(token, ".") == 2
}

func (v *googleVerifier) Verify(ctx context.Context, token string) (*GoogleProfile, error) {
	idToken := token
	if !looksLikeJWT(token) {
		exchanged, err := v.exchange(ctx, token)
		if err != nil {
			return nil, err
		}
		idToken = exchanged
	}
	return v.tokenInfo(ctx, idToken)
}

// exchange échange un code d'autorisation (flux SPA "postmessage") contre un ID token.
func (v *googleVerifier) exchange(ctx context.Context, code string) (string, error) {
	conf := config.GoogleOAuthConfig(config.App)
	ctx = context.WithValue(ctx, oauth2.HTTPClient, v.client)
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return "", errors.Wrap(ErrInvalidGoogleToken, err.Error())
	}
	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		return "", ErrInvalidGoogleToken
	}
	return idToken, nil
}

func (v *googleVerifier) tokenInfo(ctx context.Context, idToken string) (*GoogleProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tokenInfoURL+url.QueryEscape(idToken), nil)
	if err != nil {
		return nil, errors.Wrap(err, "requête tokeninfo")
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "vérification Google")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrInvalidGoogleToken
	}

	var payload struct {
		Audience      string `json:"aud"`
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified string `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "décodage tokeninfo")
	}

	if clientID := config.App.GoogleClientID; clientID != "" && payload.Audience != clientID {
		return nil, ErrAudienceMismatch
	}

	return &GoogleProfile{
		Subject:       payload.Subject,
		Email:         strings.ToLower(payload.Email),
		EmailVerified: payload.EmailVerified == "true",
		Name:          payload.Name,
		Picture:       payload.Picture,
	}, nil
}
