package user

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendora_back_end/internal/auth"
	"vendora_back_end/internal/models"
	"vendora_back_end/internal/store"
	"vendora_back_end/internal/store/memstore"
	"vendora_back_end/internal/utils"
)

// fakeGoogle associe un token à un profil; les autres tokens sont invalides.
type fakeGoogle map[string]*auth.GoogleProfile

func (f fakeGoogle) Verify(_ context.Context, token string) (*auth.GoogleProfile, error) {
	if token == "boom" {
		return nil, errors.New("tokeninfo injoignable")
	}
	if p, ok := f[token]; ok {
		return p, nil
	}
	return nil, auth.ErrInvalidGoogleToken
}

func useGoogle(t *testing.T, f fakeGoogle) {
	t.Helper()
	prev := auth.Google
	auth.Google = f
	t.Cleanup(func() { auth.Google = prev })
}

func googleRouter(u *models.User) *gin.Engine {
	r := gin.New()
	r.POST("/google", GoogleLogin)
	if u != nil {
		r.POST("/google/link", as(u), LinkGoogle)
		r.POST("/google/unlink", as(u), UnlinkGoogle)
	}
	return r
}

func TestGoogleLogin_CreatesVerifiedUser(t *testing.T) {
	memstore.Install()
	useGoogle(t, fakeGoogle{
		"good":    {Subject: "g-1", Email: "new@example.com", Name: "New Person", Picture: "http://img/p.png"},
		"noemail": {Subject: "g-2"},
	})
	r := googleRouter(nil)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/google", `{}`).Code)
	w := do(r, http.MethodPost, "/google", `{"token":"forged"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid Google token")
	assert.Equal(t, http.StatusInternalServerError, do(r, http.MethodPost, "/google", `{"token":"boom"}`).Code)
	w = do(r, http.MethodPost, "/google", `{"token":"noemail"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Email not provided")

	w = do(r, http.MethodPost, "/google", `{"token":"good"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	claims, err := utils.ParseJWT(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", claims.Email)

	u, err := store.Users.FindByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID.Hex(), claims.UserID)
	assert.True(t, u.IsEmailVerified)
	assert.Equal(t, "g-1", u.SocialLogins.Google.ID)
	assert.Equal(t, "http://img/p.png", u.Avatar.URL)
	assert.NotEmpty(t, u.Password)
	assert.NotNil(t, u.LastLogin)

	// seconde connexion: même compte, pas de doublon
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/google", `{"token":"good"}`).Code)
	all, err := store.Users.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGoogleLogin_LinksExistingEmail(t *testing.T) {
	memstore.Install()
	existing := newUser(t, "Old")
	existing.Avatar.URL = "http://img/mine.png"
	require.NoError(t, store.Users.Save(context.Background(), existing))
	useGoogle(t, fakeGoogle{"tok": {Subject: "g-9", Email: existing.Email, Name: "Old", Picture: "http://img/google.png"}})

	w := do(googleRouter(nil), http.MethodPost, "/google", `{"token":"tok"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	u, err := store.Users.FindByID(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "g-9", u.SocialLogins.Google.ID)
	assert.Equal(t, "http://img/mine.png", u.Avatar.URL)
}

func TestLinkAndUnlinkGoogle(t *testing.T) {
	memstore.Install()
	owner := newUser(t, "Owner")
	other := newUser(t, "Other")
	other.SocialLogins.Google = models.SocialAccount{ID: "g-taken", Email: "taken@example.com"}
	require.NoError(t, store.Users.Save(context.Background(), other))
	useGoogle(t, fakeGoogle{
		"mine":  {Subject: "g-owner", Email: "owner@gmail.com"},
		"taken": {Subject: "g-taken", Email: "taken@example.com"},
	})
	r := googleRouter(owner)

	w := do(r, http.MethodPost, "/google/unlink", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No Google account linked")

	w = do(r, http.MethodPost, "/google/link", `{"token":"taken"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already linked to another user")

	w = do(r, http.MethodPost, "/google/link", `{"token":"mine"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	saved, err := store.Users.FindByID(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "g-owner", saved.SocialLogins.Google.ID)

	w = do(r, http.MethodPost, "/google/unlink", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	saved, err = store.Users.FindByID(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Empty(t, saved.SocialLogins.Google.ID)
}
