package product

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"vendora_back_end/internal/models"
	"vendora_back_end/internal/services"
	"vendora_back_end/internal/store"
	"vendora_back_end/internal/store/memstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func as(u *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", u.ID.Hex())
		c.Set("email", u.Email)
		c.Set("role", u.Role)
		c.Set("name", u.Name)
		c.Next()
	}
}

func newUser(t *testing.T, name, role string) *models.User {
	t.Helper()
	u := models.NewUser(name, strings.ToLower(name)+"@example.com", role)
	require.NoError(t, store.Users.Create(context.Background(), u))
	return u
}

func newProduct(t *testing.T, seller primitive.ObjectID, name, category string, price float64) *models.Product {
	t.Helper()
	p := models.NewProduct(seller)
	p.Name = name
	p.Description = "Description of " + name
	p.Category = category
	p.Price = price
	p.Stock = 10
	require.NoError(t, store.Products.Create(context.Background(), p))
	return p
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

func productRouter(u *models.User) *gin.Engine {
	r := gin.New()
	r.GET("/products", GetProducts)
	r.GET("/products/featured/list", GetFeaturedProducts)
	r.GET("/products/search", SearchProducts)
	r.GET("/products/:id", GetProduct)

	authed := r.Group("/products", as(u))
	authed.POST("", CreateProduct)
	authed.PUT("/:id", UpdateProduct)
	authed.DELETE("/:id", DeleteProduct)
	authed.DELETE("", DeleteAllProducts)
	authed.POST("/:id/images", UploadProductImage)
	authed.POST("/:id/reviews", AddReview)
	return r
}

func TestGetProducts_FiltersSortsAndPaginates(t *testing.T) {
	memstore.Install()
	seller := newUser(t, "Seller", models.RoleAdmin)
	newProduct(t, seller.ID, "Cheap Book", "Books", 5)
	newProduct(t, seller.ID, "Pricey Book", "Books", 50)
	newProduct(t, seller.ID, "Tennis Racket", "Sports", 80)
	hidden := newProduct(t, seller.ID, "Old Book", "Books", 1)
	hidden.IsActive = false
	require.NoError(t, store.Products.Update(context.Background(), hidden, "isActive"))

	w := do(productRouter(seller), http.MethodGet, "/products?category=Books&sortBy=price_desc&limit=1", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Products   []models.Product       `json:"products"`
		Pagination map[string]interface{} `json:"pagination"`
		Filters    struct {
			Categories []string `json:"categories"`
		} `json:"filters"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "Pricey Book", resp.Products[0].Name)
	require.NotNil(t, resp.Products[0].SellerRef)
	assert.Equal(t, "Seller", resp.Products[0].SellerRef.Name)
	assert.Empty(t, resp.Products[0].SellerRef.Email)
	assert.EqualValues(t, 2, resp.Pagination["totalProducts"])
	assert.Equal(t, true, resp.Pagination["hasNext"])
	assert.ElementsMatch(t, []string{"Books", "Sports"}, resp.Filters.Categories)

	w = do(productRouter(seller), http.MethodGet, "/products?sortBy=cheapest", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(productRouter(seller), http.MethodGet, "/products?limit=500", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetProduct_CountsViewsAndHidesInactive(t *testing.T) {
	memstore.Install()
	seller := newUser(t, "Vendor", models.RoleAdmin)
	p := newProduct(t, seller.ID, "Globe", "Toys", 12)
	r := productRouter(seller)

	w := do(r, http.MethodGet, "/products/"+p.ID.Hex(), "")
	require.Equal(t, http.StatusOK, w.Code)
	var got models.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Views)
	require.NotNil(t, got.SellerRef)
	assert.Equal(t, seller.Email, got.SellerRef.Email)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/products/"+primitive.NewObjectID().Hex(), "").Code)

	p.IsActive = false
	require.NoError(t, store.Products.Update(context.Background(), p, "isActive"))
	w = do(r, http.MethodGet, "/products/"+p.ID.Hex(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Product not available")
}

func TestGetFeaturedProducts(t *testing.T) {
	memstore.Install()
	seller := newUser(t, "Star", models.RoleAdmin)
	star := newProduct(t, seller.ID, "Telescope", "Electronics", 300)
	star.IsFeatured = true
	require.NoError(t, store.Products.Update(context.Background(), star, "isFeatured"))
	newProduct(t, seller.ID, "Cable", "Electronics", 3)

	w := do(productRouter(seller), http.MethodGet, "/products/featured/list", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got []models.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Telescope", got[0].Name)
}

func TestSearchProducts_FallsBackToDatabase(t *testing.T) {
	memstore.Install()
	seller := newUser(t, "Finder", models.RoleAdmin)
	newProduct(t, seller.ID, "Wireless Mouse", "Electronics", 20)
	newProduct(t, seller.ID, "Garden Hose", "Sports", 15)
	r := productRouter(seller)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/products/search?q=%20", "").Code)

	w := do(r, http.MethodGet, "/products/search?q=mouse", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"source":"database"`)
	assert.Contains(t, w.Body.String(), "Wireless Mouse")
	assert.NotContains(t, w.Body.String(), "Garden Hose")
}

// fakeIndex renvoie des identifiants dans un ordre imposé.
type fakeIndex struct {
	ids []primitive.ObjectID
}

func (f fakeIndex) Index(context.Context, *models.Product) error     { return nil }
func (f fakeIndex) Remove(context.Context, primitive.ObjectID) error { return nil }
func (f fakeIndex) Search(context.Context, string, int) ([]primitive.ObjectID, error) {
	return f.ids, nil
}

func TestSearchProducts_KeepsRelevanceOrder(t *testing.T) {
	memstore.Install()
	seller := newUser(t, "Ranker", models.RoleAdmin)
	a := newProduct(t, seller.ID, "Alpha", "Books", 1)
	b := newProduct(t, seller.ID, "Beta", "Books", 2)
	off := newProduct(t, seller.ID, "Gamma", "Books", 3)
	off.IsActive = false
	require.NoError(t, store.Products.Update(context.Background(), off, "isActive"))

	prev := services.Search
	services.Search = fakeIndex{ids: []primitive.ObjectID{b.ID, off.ID, a.ID}}
	t.Cleanup(func() { services.Search = prev })

	w := do(productRouter(seller), http.MethodGet, "/products/search?q=anything", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Products []models.Product `json:"products"`
		Total    int              `json:"total"`
		Source   string           `json:"source"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "elasticsearch", resp.Source)
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Products, 2)
	assert.Equal(t, "Beta", resp.Products[0].Name)
	assert.Equal(t, "Alpha", resp.Products[1].Name)
}

func TestCreateUpdateDeleteProduct(t *testing.T) {
	memstore.Install()
	ctx := context.Background()
	admin := newUser(t, "Admin", models.RoleAdmin)
	r := productRouter(admin)

	w := do(r, http.MethodPost, "/products", `{"name":"Lamp","description":"A very bright lamp","category":"Furniture","price":10,"stock":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/products", `{"name":"Lamp","description":"A very bright lamp","category":"Electronics","price":0,"stock":0}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Product models.Product `json:"product"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "lamp", created.Product.Slug)
	assert.Equal(t, admin.ID, created.Product.Seller)
	id := created.Product.ID.Hex()

	w = do(r, http.MethodPut, "/products/"+id, `{"name":"Desk Lamp","stock":4}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	saved, err := store.Products.FindByID(ctx, created.Product.ID)
	require.NoError(t, err)
	assert.Equal(t, "desk-lamp", saved.Slug)
	assert.Equal(t, 4, saved.Stock)

	w = do(r, http.MethodDelete, "/products/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	saved, err = store.Products.FindByID(ctx, created.Product.ID)
	require.NoError(t, err)
	assert.False(t, saved.IsActive)

	w = do(r, http.MethodDelete, "/products", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deletedCount":1`)
}

func TestUpdateProduct_PriceDropNotifiesWishlists(t *testing.T) {
	memstore.Install()
	ctx := context.Background()
	admin := newUser(t, "Boss", models.RoleAdmin)
	fan := newUser(t, "Fan", models.RoleUser)
	p := newProduct(t, admin.ID, "Speaker", "Electronics", 100)

	wl := models.NewWishlist(fan.ID)
	wl.AddProduct(p.ID, "")
	require.NoError(t, store.Wishlists.Save(ctx, wl))

	r := productRouter(admin)
	w := do(r, http.MethodPut, "/products/"+p.ID.Hex(), `{"price":120}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPut, "/products/"+p.ID.Hex(), `{"price":80}`)
	require.Equal(t, http.StatusOK, w.Code)

	notifs, err := store.Notifications.List(ctx, store.NotificationQuery{Recipient: fan.ID, Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotifPriceDrop, notifs[0].Type)
	assert.Contains(t, notifs[0].Message, "$80.00 (was $120.00)")
}

func TestAddReview(t *testing.T) {
	memstore.Install()
	ctx := context.Background()
	seller := newUser(t, "Maker", models.RoleAdmin)
	buyer := newUser(t, "Buyer", models.RoleUser)
	p := newProduct(t, seller.ID, "Kettle", "Electronics", 30)

	paid := models.NewOrder(buyer.ID, []models.OrderItem{{Product: p.ID, Name: p.Name, Price: p.Price, Quantity: 1}}, models.ShippingAddress{}, "")
	paid.MarkAsPaid(models.PaymentResult{ID: "pi"})
	require.NoError(t, store.Orders.Create(ctx, paid))

	r := productRouter(buyer)
	path := "/products/" + p.ID.Hex() + "/reviews"

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, path, `{"rating":6,"comment":"great kettle"}`).Code)

	w := do(r, http.MethodPost, path, `{"rating":4,"comment":"boils fast"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"verified":true`)

	w = do(r, http.MethodPost, path, `{"rating":5,"comment":"changed my mind"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Product already reviewed")

	saved, err := store.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, saved.Rating)
	assert.Equal(t, 1, saved.NumReviews)

	notifs, err := store.Notifications.List(ctx, store.NotificationQuery{Recipient: seller.ID, Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotifProductReview, notifs[0].Type)
}

func imageRequest(t *testing.T, path string, withFile bool) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if withFile {
		part, err := mw.CreateFormFile("file", "photo.png")
		require.NoError(t, err)
		_, err = part.Write([]byte("\x89PNG\r\n\x1a\n"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.WriteField("isPrimary", "true"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadProductImage(t *testing.T) {
	memstore.Install()
	admin := newUser(t, "Shooter", models.RoleAdmin)
	p := newProduct(t, admin.ID, "Camera", "Electronics", 250)
	r := productRouter(admin)
	path := "/products/" + p.ID.Hex() + "/images"

	prev := services.UploadFile
	t.Cleanup(func() { services.UploadFile = prev })

	services.UploadFile = func(context.Context, string, *multipart.FileHeader) (string, error) {
		return "", services.ErrStorageUnavailable
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, imageRequest(t, path, true))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, imageRequest(t, path, false))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	services.UploadFile = func(_ context.Context, folder string, fh *multipart.FileHeader) (string, error) {
		return "http://cdn.local/" + folder + "/" + fh.Filename, nil
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, imageRequest(t, path, true))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	saved, err := store.Products.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, saved.Images, 1)
	assert.Equal(t, "http://cdn.local/products/photo.png", saved.Images[0].URL)
	assert.Equal(t, "Camera", saved.Images[0].Alt)
	assert.True(t, saved.Images[0].IsPrimary)
}

// orderDuringRead vend tout le stock entre la lecture du produit par le
// handler et son écriture, comme une commande concurrente.
type orderDuringRead struct {
	store.ProductStore
	sold bool
}

func (s *orderDuringRead) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, err := s.ProductStore.FindByID(ctx, id)
	if err == nil && !s.sold {
		s.sold = true
		if derr := s.ProductStore.DecrementStock(ctx, id, p.Stock); derr != nil {
			return nil, derr
		}
	}
	return p, err
}

func TestProductWrites_KeepConcurrentStockDecrement(t *testing.T) {
	prev := services.UploadFile
	t.Cleanup(func() { services.UploadFile = prev })
	services.UploadFile = func(_ context.Context, folder string, fh *multipart.FileHeader) (string, error) {
		return "http://cdn.local/" + folder + "/" + fh.Filename, nil
	}

	cases := []struct {
		name string
		send func(r http.Handler, p *models.Product) *httptest.ResponseRecorder
	}{
		{"review", func(r http.Handler, p *models.Product) *httptest.ResponseRecorder {
			return do(r, http.MethodPost, "/products/"+p.ID.Hex()+"/reviews", `{"rating":5,"comment":"solid build"}`)
		}},
		{"image", func(r http.Handler, p *models.Product) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, imageRequest(t, "/products/"+p.ID.Hex()+"/images", true))
			return w
		}},
		{"price update", func(r http.Handler, p *models.Product) *httptest.ResponseRecorder {
			return do(r, http.MethodPut, "/products/"+p.ID.Hex(), `{"price":9}`)
		}},
		{"deactivate", func(r http.Handler, p *models.Product) *httptest.ResponseRecorder {
			return do(r, http.MethodDelete, "/products/"+p.ID.Hex(), "")
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			memstore.Install()
			ctx := context.Background()
			admin := newUser(t, "Keeper", models.RoleAdmin)
			p := newProduct(t, admin.ID, "Drill", "Electronics", 12)
			store.Products = &orderDuringRead{ProductStore: store.Products}

			w := tc.send(productRouter(admin), p)
			require.Less(t, w.Code, 300, w.Body.String())

			saved, err := store.Products.FindByID(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, 0, saved.Stock)
			assert.ErrorIs(t, store.Products.DecrementStock(ctx, p.ID, 1), store.ErrInsufficientStock)
		})
	}
}

func TestUpdateProduct_OnlyWritesSentFields(t *testing.T) {
	memstore.Install()
	ctx := context.Background()
	admin := newUser(t, "Editor", models.RoleAdmin)
	p := newProduct(t, admin.ID, "Blender", "Electronics", 40)
	require.NoError(t, store.Products.IncrementViews(ctx, p.ID))
	require.NoError(t, store.Products.AdjustWishlistCount(ctx, []primitive.ObjectID{p.ID}, 1))

	w := do(productRouter(admin), http.MethodPut, "/products/"+p.ID.Hex(), `{"brand":"Whirl","stock":0}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	saved, err := store.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Whirl", saved.Brand)
	assert.Equal(t, 0, saved.Stock)
	assert.Equal(t, models.ProductOutOfStock, saved.Status)
	assert.Equal(t, 1, saved.Views)
	assert.Equal(t, 1, saved.WishlistCount)
	assert.Equal(t, 40.0, saved.Price)
}
