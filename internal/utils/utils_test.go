package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"vendora_back_end/internal/models"
)

func TestPassword_Argon2RoundTrip(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.True(t, IsArgon2Hash(hash))

	assert.True(t, CheckPassword("secret123", hash))
	assert.False(t, CheckPassword("wrong", hash))
}

func TestPassword_LegacyBcrypt(t *testing.T) {
	raw, err := bcrypt.GenerateFromPassword([]byte("legacy-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, IsBcryptHash(string(raw)))
	assert.True(t, CheckPassword("legacy-pass", string(raw)))
	assert.False(t, CheckPassword("other", string(raw)))
}

func TestNeedsRehash(t *testing.T) {
	fresh, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.False(t, NeedsRehash(fresh))

	// même mot de passe, coût mémoire plus ancien
	salt := []byte("0123456789abcdef")
	older := argonParams{memory: 64 * 1024, time: 1, threads: 4, keyLen: 32}
	oldHash := older.encode(salt, argon2.IDKey([]byte("secret123"), salt, older.time, older.memory, older.threads, older.keyLen))
	assert.True(t, CheckPassword("secret123", oldHash))
	assert.True(t, NeedsRehash(oldHash))

	raw, err := bcrypt.GenerateFromPassword([]byte("legacy-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, NeedsRehash(string(raw)))

	assert.False(t, NeedsRehash("not-a-hash"))
	assert.False(t, CheckPassword("x", "$argon2i$v=19$m=1,t=1,p=1$c2FsdA$a2V5"))
}

func TestPassword_GarbageHashIsRejected(t *testing.T) {
	assert.False(t, CheckPassword("x", "not-a-hash"))
}

func TestJWT_RoundTrip(t *testing.T) {
	u := models.NewUser("Alice", "alice@example.com", models.RoleAdmin)

	token, err := GenerateJWT(u, time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID.Hex(), claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.JTI)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestJWT_RejectsTampered(t *testing.T) {
	u := models.NewUser("Bob", "bob@example.com", "")
	token, err := GenerateJWT(u, time.Hour)
	require.NoError(t, err)

	_, err = ParseJWT(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidation_ReportsJSONFieldNames(t *testing.T) {
	gin.SetMode(gin.TestMode)

	type body struct {
		Email string `json:"email" binding:"required,email"`
		Name  string `json:"name" binding:"required,min=2"`
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	var b body
	b.Email = "nope"
	b.Name = "A"
	err := binding.Validator.ValidateStruct(&b)
	require.Error(t, err)

	errs := ValidationErrors(err)
	require.Len(t, errs, 2)
	assert.Equal(t, "email", errs[0].Field)
	assert.Equal(t, "name", errs[1].Field)
	assert.Equal(t, "name must be at least 2 characters", errs[1].Message)

	AbortValidation(c, err)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Validation failed")
}

func TestPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=0&limit=500", nil)

	page, limit := Pagination(c, 20, 100)
	assert.Equal(t, 1, page)
	assert.Equal(t, 100, limit)
	assert.Equal(t, 3, TotalPages(21, 10))
	assert.Equal(t, 0, TotalPages(0, 10))
}

func TestOrderStatusEmail_UsesSeam(t *testing.T) {
	var gotTo, gotSubject, gotBody string
	orig := SendEmail
	SendEmail = func(to, subject, body string) error {
		gotTo, gotSubject, gotBody = to, subject, body
		return nil
	}
	defer func() { SendEmail = orig }()

	order := &models.Order{
		OrderNumber:    "ORD-1-001",
		TrackingNumber: "TRACK42",
		OrderItems:     []models.OrderItem{{Name: "Lamp <b>", Price: 12.5, Quantity: 2}},
		TotalPrice:     25,
	}
	require.NoError(t, SendOrderStatusEmail(order, "c@example.com", models.OrderShipped))

	assert.Equal(t, "c@example.com", gotTo)
	assert.Contains(t, gotSubject, "shipped")
	assert.Contains(t, gotBody, "TRACK42")
	assert.Contains(t, gotBody, "Lamp &lt;b&gt;")
	assert.Contains(t, gotBody, "$25.00")
}
