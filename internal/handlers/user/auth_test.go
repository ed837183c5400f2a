package user

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendora_back_end/internal/models"
	"vendora_back_end/internal/store"
	"vendora_back_end/internal/store/memstore"
	"vendora_back_end/internal/utils"
)

var (
	otpPattern   = regexp.MustCompile(`>(\d{6})</span>`)
	resetPattern = regexp.MustCompile(`/reset-password/([0-9a-f]{64})`)
)

func authRouter() *gin.Engine {
	r := gin.New()
	r.POST("/send-otp", SendOTP)
	r.POST("/verify-otp", VerifyOTP)
	r.POST("/resend-otp", ResendOTP)
	r.POST("/register", Register)
	r.POST("/login", Login)
	r.POST("/forgot-password", ForgotPassword)
	r.POST("/reset-password", ResetPassword)
	return r
}

func TestOTPSignupThenLogin(t *testing.T) {
	memstore.Install()
	emails := captureEmails(t)
	r := authRouter()

	w := do(r, http.MethodPost, "/send-otp", `{"name":"Ada","email":"Ada@Example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, *emails, 1)
	m := otpPattern.FindStringSubmatch((*emails)[0])
	require.Len(t, m, 2)

	// pas de connexion avant vérification
	w = do(r, http.MethodPost, "/login", `{"email":"ada@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"emailNotVerified":true`)

	// les codes générés vont de 100000 à 999999
	w = do(r, http.MethodPost, "/verify-otp", `{"email":"ada@example.com","otp":"000000"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/verify-otp", `{"email":"ada@example.com","otp":"`+m[1]+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var verified struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verified))
	claims, err := utils.ParseJWT(verified.Token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims.Email)

	w = do(r, http.MethodPost, "/send-otp", `{"name":"Ada","email":"ada@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/login", `{"email":"ada@example.com","password":"secret1","rememberMe":true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"rememberMe":true`)

	u, err := store.Users.FindByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.NotNil(t, u.LastLogin)

	notifs, err := store.Notifications.List(context.Background(), store.NotificationQuery{Recipient: u.ID, Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotifWelcome, notifs[0].Type)
}

func TestSendOTP_EmailFailure(t *testing.T) {
	memstore.Install()
	prev := utils.SendEmail
	utils.SendEmail = func(_, _, _ string) error { return assert.AnError }
	t.Cleanup(func() { utils.SendEmail = prev })

	w := do(authRouter(), http.MethodPost, "/send-otp", `{"name":"Bob","email":"bob@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to send OTP email")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	memstore.Install()
	r := authRouter()

	w := do(r, http.MethodPost, "/register", `{"name":"Cy","email":"cy@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(r, http.MethodPost, "/register", `{"name":"Cy","email":"CY@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "User already exists")

	w = do(r, http.MethodPost, "/register", `{"name":"C","email":"not-an-email","password":"123"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignup_RejectsPrivilegedRoles(t *testing.T) {
	memstore.Install()
	captureEmails(t)
	r := authRouter()

	for _, role := range []string{models.RoleAdmin, models.RoleModerator} {
		w := do(r, http.MethodPost, "/register", `{"name":"Eve","email":"eve@example.com","password":"secret1","role":"`+role+`"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code, role)
		w = do(r, http.MethodPost, "/send-otp", `{"name":"Eve","email":"eve@example.com","password":"secret1","role":"`+role+`"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code, role)
	}
	_, err := store.Users.FindByEmail(context.Background(), "eve@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)

	w := do(r, http.MethodPost, "/register", `{"name":"Sol","email":"sol@example.com","password":"secret1","role":"seller"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	u, err := store.Users.FindByEmail(context.Background(), "sol@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSeller, u.Role)
}

func verifiedUser(t *testing.T, email, password string) *models.User {
	t.Helper()
	u := models.NewUser("Dee", email, "")
	hashed, err := utils.HashPassword(password)
	require.NoError(t, err)
	u.Password = hashed
	u.IsOTPVerified = true
	u.IsEmailVerified = true
	require.NoError(t, store.Users.Create(context.Background(), u))
	return u
}

func TestLogin_LocksAfterRepeatedFailures(t *testing.T) {
	memstore.Install()
	verifiedUser(t, "dee@example.com", "right-pass")
	r := authRouter()

	for i := 0; i < models.MaxLoginAttempts; i++ {
		w := do(r, http.MethodPost, "/login", `{"email":"dee@example.com","password":"wrong-pass"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w := do(r, http.MethodPost, "/login", `{"email":"dee@example.com","password":"right-pass"}`)
	assert.Equal(t, http.StatusLocked, w.Code)

	w = do(r, http.MethodPost, "/login", `{"email":"nobody@example.com","password":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid email or password")
}

func TestForgotAndResetPassword(t *testing.T) {
	memstore.Install()
	emails := captureEmails(t)
	verifiedUser(t, "eve@example.com", "old-pass")
	r := authRouter()

	w := do(r, http.MethodPost, "/forgot-password", `{"email":"ghost@example.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, *emails)

	w = do(r, http.MethodPost, "/forgot-password", `{"email":"eve@example.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, *emails, 1)
	m := resetPattern.FindStringSubmatch((*emails)[0])
	require.Len(t, m, 2)

	w = do(r, http.MethodPost, "/reset-password", `{"token":"bogus","newPassword":"new-pass"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/reset-password", `{"token":"`+m[1]+`","newPassword":"new-pass"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// le jeton est à usage unique
	w = do(r, http.MethodPost, "/reset-password", `{"token":"`+m[1]+`","newPassword":"other-pass"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/login", `{"email":"eve@example.com","password":"new-pass"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChangePassword(t *testing.T) {
	memstore.Install()
	u := verifiedUser(t, "fay@example.com", "old-pass")
	r := gin.New()
	r.PUT("/change-password", as(u), ChangePassword)

	w := do(r, http.MethodPut, "/change-password", `{"currentPassword":"nope","newPassword":"new-pass"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPut, "/change-password", `{"currentPassword":"old-pass","newPassword":"new-pass"}`)
	require.Equal(t, http.StatusOK, w.Code)

	saved, err := store.Users.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, utils.CheckPassword("new-pass", saved.Password))
}
