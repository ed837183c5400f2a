package user

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"vendora_back_end/internal/models"
	"vendora_back_end/internal/store"
	"vendora_back_end/internal/store/memstore"
)

func cartRouter(u *models.User) *gin.Engine {
	r := gin.New()
	g := r.Group("/cart", as(u))
	g.GET("", GetCart)
	g.GET("/count", GetCartCount)
	g.POST("/add", AddToCart)
	g.PUT("/update", UpdateCartItem)
	g.DELETE("/remove/:productId", RemoveFromCart)
	g.DELETE("/clear", ClearCart)
	return r
}

type cartResponse struct {
	Message string      `json:"message"`
	Cart    models.Cart `json:"cart"`
}

func TestCart_AddMergesLinesAndChecksStock(t *testing.T) {
	memstore.Install()
	u := newUser(t, "Gus")
	p := newProduct(t, "Robot", 15, 4)
	r := cartRouter(u)
	add := `{"productId":"` + p.ID.Hex() + `","quantity":2}`

	w := do(r, http.MethodPost, "/cart/add", add)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodPost, "/cart/add", add)
	require.Equal(t, http.StatusOK, w.Code)
	var resp cartResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Cart.Items, 1)
	assert.Equal(t, 4, resp.Cart.Items[0].Quantity)
	assert.Equal(t, 4, resp.Cart.TotalItems)
	assert.Equal(t, 60.0, resp.Cart.TotalPrice)
	require.NotNil(t, resp.Cart.Items[0].ProductRef)
	assert.Equal(t, "Robot", resp.Cart.Items[0].ProductRef.Name)

	w = do(r, http.MethodPost, "/cart/add", `{"productId":"`+p.ID.Hex()+`","quantity":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"currentInCart":4`)

	w = do(r, http.MethodPost, "/cart/add", `{"productId":"`+p.ID.Hex()+`","quantity":9}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"availableStock":4`)

	w = do(r, http.MethodPost, "/cart/add", `{"productId":"`+primitive.NewObjectID().Hex()+`","quantity":1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/cart/count", "")
	assert.JSONEq(t, `{"count":4}`, w.Body.String())
}

func TestCart_UpdateRemoveClear(t *testing.T) {
	memstore.Install()
	u := newUser(t, "Hal")
	a := newProduct(t, "Kite", 10, 10)
	b := newProduct(t, "Yoyo", 2, 10)
	r := cartRouter(u)

	w := do(r, http.MethodPut, "/cart/update", `{"productId":"`+a.ID.Hex()+`","quantity":1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Cart not found")

	do(r, http.MethodPost, "/cart/add", `{"productId":"`+a.ID.Hex()+`","quantity":1}`)
	do(r, http.MethodPost, "/cart/add", `{"productId":"`+b.ID.Hex()+`","quantity":1}`)

	w = do(r, http.MethodPut, "/cart/update", `{"productId":"`+a.ID.Hex()+`","quantity":3}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp cartResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 32.0, resp.Cart.TotalPrice)

	w = do(r, http.MethodPut, "/cart/update", `{"productId":"`+b.ID.Hex()+`","quantity":0}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Cart.Items, 1)

	w = do(r, http.MethodDelete, "/cart/remove/"+b.ID.Hex(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodDelete, "/cart/remove/"+a.ID.Hex(), "")
	require.Equal(t, http.StatusOK, w.Code)

	do(r, http.MethodPost, "/cart/add", `{"productId":"`+b.ID.Hex()+`","quantity":2}`)
	w = do(r, http.MethodDelete, "/cart/clear", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":0}`, do(r, http.MethodGet, "/cart/count", "").Body.String())
}

func TestGetCart_DropsInactiveProducts(t *testing.T) {
	memstore.Install()
	ctx := context.Background()
	u := newUser(t, "Ivy")
	keep := newProduct(t, "Puzzle", 8, 5)
	gone := newProduct(t, "Drone", 80, 5)

	cart := models.NewCart(u.ID)
	cart.AddItem(keep.ID, 1, keep.Price)
	cart.AddItem(gone.ID, 1, gone.Price)
	require.NoError(t, store.Carts.Save(ctx, cart))

	gone.IsActive = false
	require.NoError(t, store.Products.Update(ctx, gone, "isActive"))

	w := do(cartRouter(u), http.MethodGet, "/cart", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got models.Cart
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.Items, 1)
	assert.Equal(t, 8.0, got.TotalPrice)

	saved, err := store.Carts.FindByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, saved.Items, 1)
}
