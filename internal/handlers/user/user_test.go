package user

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"vendora_back_end/internal/middleware"
	"vendora_back_end/internal/models"
	"vendora_back_end/internal/store"
	"vendora_back_end/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// as simule AuthRequired pour un utilisateur donné.
func as(u *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CtxUser, u)
		c.Set("user_id", u.ID.Hex())
		c.Set("email", u.Email)
		c.Set("role", u.Role)
		c.Set("name", u.Name)
		c.Next()
	}
}

func newUser(t *testing.T, name string) *models.User {
	t.Helper()
	u := models.NewUser(name, strings.ToLower(name)+"-"+primitive.NewObjectID().Hex()+"@example.com", "")
	require.NoError(t, store.Users.Create(context.Background(), u))
	return u
}

func newProduct(t *testing.T, name string, price float64, stock int) *models.Product {
	t.Helper()
	p := models.NewProduct(primitive.NewObjectID())
	p.Name = name
	p.Description = "A product for tests"
	p.Category = "Toys"
	p.Price = price
	p.Stock = stock
	require.NoError(t, store.Products.Create(context.Background(), p))
	return p
}

// captureEmails remplace l'envoi SMTP le temps du test.
func captureEmails(t *testing.T) *[]string {
	t.Helper()
	var bodies []string
	prev := utils.SendEmail
	utils.SendEmail = func(_, _, body string) error {
		bodies = append(bodies, body)
		return nil
	}
	t.Cleanup(func() { utils.SendEmail = prev })
	return &bodies
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
