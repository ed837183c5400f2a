package payement

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
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

// fakeGateway simule Stripe en mémoire.
type fakeGateway struct {
	status     string
	intents    map[string]*services.PaymentIntent
	event      *services.WebhookEvent
	webhookErr error
	refundErr  error
	created    []int64
	refunded   []int64
}

func (f *fakeGateway) CreateIntent(_ context.Context, amount int64, _ string, _ map[string]string) (*services.PaymentIntent, error) {
	f.created = append(f.created, amount)
	return &services.PaymentIntent{ID: "pi_test", ClientSecret: "pi_test_secret", Status: "requires_payment_method", Amount: amount}, nil
}

func (f *fakeGateway) GetIntent(_ context.Context, id string) (*services.PaymentIntent, error) {
	if pi, ok := f.intents[id]; ok {
		return pi, nil
	}
	return &services.PaymentIntent{ID: id, Status: f.status}, nil
}

func (f *fakeGateway) Refund(_ context.Context, _ string, amount int64, _ string) (*services.Refund, error) {
	if f.refundErr != nil {
		return nil, f.refundErr
	}
	f.refunded = append(f.refunded, amount)
	return &services.Refund{ID: "re_test", Amount: float64(amount) / 100, Status: "succeeded"}, nil
}

func (f *fakeGateway) ParseWebhook(_ []byte, signature string) (*services.WebhookEvent, error) {
	if f.webhookErr != nil {
		return nil, f.webhookErr
	}
	if signature == "" {
		return nil, errors.New("signature manquante")
	}
	return f.event, nil
}

func useGateway(t *testing.T, g services.PaymentGateway) {
	t.Helper()
	prev := services.Payments
	services.Payments = g
	t.Cleanup(func() { services.Payments = prev })
}

// as simule AuthRequired pour un utilisateur donné.
func as(u *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", u.ID.Hex())
		c.Set("email", u.Email)
		c.Set("role", u.Role)
		c.Set("name", u.Name)
		c.Next()
	}
}

func newUser(t *testing.T, role string) *models.User {
	t.Helper()
	u := models.NewUser("Sam", primitive.NewObjectID().Hex()+"@example.com", role)
	require.NoError(t, store.Users.Create(context.Background(), u))
	return u
}

func newProduct(t *testing.T, name string, price float64, stock int) *models.Product {
	t.Helper()
	p := models.NewProduct(primitive.NewObjectID())
	p.Name = name
	p.Description = "A product for tests"
	p.Category = "Books"
	p.Price = price
	p.Stock = stock
	require.NoError(t, store.Products.Create(context.Background(), p))
	return p
}

func fillCart(t *testing.T, user primitive.ObjectID, lines map[*models.Product]int) {
	t.Helper()
	cart := models.NewCart(user)
	for p, qty := range lines {
		cart.AddItem(p.ID, qty, p.Price)
	}
	require.NoError(t, store.Carts.Save(context.Background(), cart))
}

func newPaidlessOrder(t *testing.T, user primitive.ObjectID, total float64) *models.Order {
	t.Helper()
	items := []models.OrderItem{{Product: primitive.NewObjectID(), Name: "Book", Price: total, Quantity: 1}}
	o := models.NewOrder(user, items, models.ShippingAddress{FullName: "Sam", Address: "1 Main St", City: "Paris", State: "IDF", Country: "FR"}, "")
	require.NoError(t, store.Orders.Create(context.Background(), o))
	return o
}

func do(r http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const address = `"shippingAddress":{"fullName":"Sam","address":"1 Main St","city":"Paris","state":"IDF","country":"FR"}`

func orderRouter(u *models.User) *gin.Engine {
	r := gin.New()
	r.POST("/orders", as(u), CreateOrder)
	r.PUT("/orders/:id/status", as(u), UpdateOrderStatus)
	r.GET("/orders", as(u), GetAllOrders)
	r.DELETE("/orders", as(u), DeleteAllOrders)
	r.POST("/payment/create-intent", as(u), CreatePaymentIntent)
	r.POST("/payment/confirm", as(u), ConfirmPayment)
	r.POST("/payment/refund", as(u), CreateRefund)
	r.GET("/payment/history", as(u), GetPaymentHistory)
	r.POST("/payment/webhook", StripeWebhook)
	return r
}

func TestCreateOrder_SnapshotsCartAndDecrementsStock(t *testing.T) {
	memstore.Install()
	ctx := context.Background()
	u := newUser(t, models.RoleUser)
	book := newProduct(t, "Go in Action", 20, 5)
	fillCart(t, u.ID, map[*models.Product]int{book: 2})

	w := do(orderRouter(u), http.MethodPost, "/orders", `{`+address+`,"paymentMethod":"stripe"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Order models.Order `json:"order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 40.0, resp.Order.TotalPrice)
	assert.Equal(t, models.OrderPending, resp.Order.Status)
	require.Len(t, resp.Order.OrderItems, 1)
	assert.Equal(t, "Go in Action", resp.Order.OrderItems[0].Name)

	got, err := store.Products.FindByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)

	cart, err := store.Carts.FindByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	notifs, err := store.Notifications.List(ctx, store.NotificationQuery{Recipient: u.ID, Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotifOrderPlaced, notifs[0].Type)
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	memstore.Install()
	u := newUser(t, models.RoleUser)

	w := do(orderRouter(u), http.MethodPost, "/orders", `{`+address+`}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Cart is empty")
}

func TestCreateOrder_InsufficientStockLeavesStockUntouched(t *testing.T) {
	memstore.Install()
	ctx := context.Background()
	u := newUser(t, models.RoleUser)
	plenty := newProduct(t, "Plenty", 5, 10)
	scarce := newProduct(t, "Scarce", 5, 1)
	fillCart(t, u.ID, map[*models.Product]int{plenty: 2, scarce: 3})

	w := do(orderRouter(u), http.MethodPost, "/orders", `{`+address+`}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Insufficient stock for Scarce. Available: 1")

	got, err := store.Products.FindByID(ctx, plenty.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Stock)
}

func TestCreateOrder_MissingAddress(t *testing.T) {
	memstore.Install()
	u := newUser(t, models.RoleUser)

	w := do(orderRouter(u), http.MethodPost, "/orders", `{"paymentMethod":"bitcoin"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReserveStock_RollsBackOnShortage(t *testing.T) {
	memstore.Install()
	ctx := context.Background()
	a := newProduct(t, "A", 1, 4)
	b := newProduct(t, "B", 1, 1)

	short, err := reserveStock(ctx, []models.OrderItem{
		{Product: a.ID, Name: a.Name, Quantity: 3},
		{Product: b.ID, Name: b.Name, Quantity: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, "B", short)

	got, err := store.Products.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Stock)
}

func TestCreatePaymentIntent(t *testing.T) {
	memstore.Install()
	gw := &fakeGateway{}
	useGateway(t, gw)
	owner := newUser(t, models.RoleUser)
	stranger := newUser(t, models.RoleUser)
	order := newPaidlessOrder(t, owner.ID, 12.34)
	body := `{"orderId":"` + order.ID.Hex() + `"}`

	w := do(orderRouter(stranger), http.MethodPost, "/payment/create-intent", body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(orderRouter(owner), http.MethodPost, "/payment/create-intent", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"clientSecret":"pi_test_secret"`)
	assert.Equal(t, []int64{1234}, gw.created)

	saved, err := store.Orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "pi_test", saved.StripePaymentIntentID)

	w = do(orderRouter(owner), http.MethodPost, "/payment/create-intent", `{"orderId":"`+primitive.NewObjectID().Hex()+`"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConfirmPayment(t *testing.T) {
	memstore.Install()
	ctx := context.Background()
	gw := &fakeGateway{status: "processing"}
	useGateway(t, gw)
	owner := newUser(t, models.RoleUser)
	order := newPaidlessOrder(t, owner.ID, 50)
	order.StripePaymentIntentID = "pi_test"
	require.NoError(t, store.Orders.Save(ctx, order))
	body := `{"orderId":"` + order.ID.Hex() + `","paymentIntentId":"pi_test"}`

	w := do(orderRouter(owner), http.MethodPost, "/payment/confirm", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Payment not completed")

	gw.status = services.IntentSucceeded
	w = do(orderRouter(owner), http.MethodPost, "/payment/confirm", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	paid, err := store.Orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	assert.Equal(t, models.OrderProcessing, paid.Status)
	require.NotNil(t, paid.PaymentResult)
	assert.Equal(t, owner.Email, paid.PaymentResult.EmailAddress)

	u, err := store.Users.FindByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, u.TotalOrders)

	// une seconde confirmation ne recompte pas la commande
	w = do(orderRouter(owner), http.MethodPost, "/payment/confirm", body)
	require.Equal(t, http.StatusOK, w.Code)
	u, err = store.Users.FindByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, u.TotalOrders)
}

func TestConfirmPayment_RejectsIntentOfAnotherOrder(t *testing.T) {
	memstore.Install()
	ctx := context.Background()
	owner := newUser(t, models.RoleUser)
	cheap := newPaidlessOrder(t, owner.ID, 1)
	cheap.StripePaymentIntentID = "pi_cheap"
	require.NoError(t, store.Orders.Save(ctx, cheap))
	pricey := newPaidlessOrder(t, owner.ID, 5000)
	pricey.StripePaymentIntentID = "pi_pricey"
	require.NoError(t, store.Orders.Save(ctx, pricey))

	useGateway(t, &fakeGateway{intents: map[string]*services.PaymentIntent{
		"pi_cheap": {ID: "pi_cheap", Status: services.IntentSucceeded, Amount: 100, Metadata: map[string]string{"orderId": cheap.ID.Hex()}},
		"pi_meta":  {ID: "pi_meta", Status: services.IntentSucceeded, Amount: 500000, Metadata: map[string]string{"orderId": pricey.ID.Hex()}},
	}})
	r := orderRouter(owner)

	w := do(r, http.MethodPost, "/payment/confirm", `{"orderId":"`+pricey.ID.Hex()+`","paymentIntentId":"pi_cheap"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "does not match")

	got, err := store.Orders.FindByID(ctx, pricey.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPaid)
	u, err := store.Users.FindByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Zero(t, u.TotalOrders)

	// l'intent recréé côté client porte la commande dans ses métadonnées
	w = do(r, http.MethodPost, "/payment/confirm", `{"orderId":"`+pricey.ID.Hex()+`","paymentIntentId":"pi_meta"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got, err = store.Orders.FindByID(ctx, pricey.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPaid)
	assert.Equal(t, "pi_meta", got.PaymentResult.ID)
}

func TestMarkOrderPaid_CountsOnlyFirstPayment(t *testing.T) {
	memstore.Install()
	ctx := context.Background()
	owner := newUser(t, models.RoleUser)
	order := newPaidlessOrder(t, owner.ID, 30)
	intent := &services.PaymentIntent{ID: "pi_once", Status: services.IntentSucceeded}

	// deux copies lues avant tout paiement, comme un confirm et un webhook simultanés
	first, err := store.Orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	second, err := store.Orders.FindByID(ctx, order.ID)
	require.NoError(t, err)

	require.NoError(t, markOrderPaid(ctx, first, intent, owner.Email))
	require.NoError(t, markOrderPaid(ctx, second, intent, owner.Email))

	u, err := store.Users.FindByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, u.TotalOrders)
	assert.Equal(t, 30.0, u.TotalSpent)

	notifs, err := store.Notifications.List(ctx, store.NotificationQuery{Recipient: owner.ID, Type: models.NotifPaymentReceived, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, notifs, 1)
}

func TestStripeWebhook(t *testing.T) {
	memstore.Install()
	ctx := context.Background()
	owner := newUser(t, models.RoleUser)
	order := newPaidlessOrder(t, owner.ID, 10)
	order.StripePaymentIntentID = "pi_hook"
	require.NoError(t, store.Orders.Save(ctx, order))

	gw := &fakeGateway{event: &services.WebhookEvent{
		Type:   services.EventPaymentSucceeded,
		Intent: &services.PaymentIntent{ID: "pi_hook", Status: services.IntentSucceeded},
	}}
	useGateway(t, gw)
	r := orderRouter(owner)

	w := do(r, http.MethodPost, "/payment/webhook", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Webhook Error")

	w = do(r, http.MethodPost, "/payment/webhook", strings.Repeat("x", MaxWebhookBody+1), "Stripe-Signature", "t=1,v1=abc")
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	for i := 0; i < 2; i++ {
		w = do(r, http.MethodPost, "/payment/webhook", `{}`, "Stripe-Signature", "t=1,v1=abc")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"received":true}`, w.Body.String())
	}

	paid, err := store.Orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)

	u, err := store.Users.FindByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, u.TotalOrders)
}

func TestStripeWebhook_PaymentFailedNotifies(t *testing.T) {
	memstore.Install()
	ctx := context.Background()
	owner := newUser(t, models.RoleUser)
	order := newPaidlessOrder(t, owner.ID, 10)
	order.StripePaymentIntentID = "pi_fail"
	require.NoError(t, store.Orders.Save(ctx, order))

	useGateway(t, &fakeGateway{event: &services.WebhookEvent{
		Type:   services.EventPaymentFailed,
		Intent: &services.PaymentIntent{ID: "pi_fail", LastError: "card declined"},
	}})

	w := do(orderRouter(owner), http.MethodPost, "/payment/webhook", `{}`, "Stripe-Signature", "sig")
	require.Equal(t, http.StatusOK, w.Code)

	notifs, err := store.Notifications.List(ctx, store.NotificationQuery{Recipient: owner.ID, Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotifPaymentFailed, notifs[0].Type)
	assert.Equal(t, models.PriorityHigh, notifs[0].Priority)
	assert.Contains(t, notifs[0].Message, "card declined")
}

func TestCreateRefund(t *testing.T) {
	memstore.Install()
	ctx := context.Background()
	gw := &fakeGateway{}
	useGateway(t, gw)
	owner := newUser(t, models.RoleUser)
	order := newPaidlessOrder(t, owner.ID, 30)
	body := `{"orderId":"` + order.ID.Hex() + `","amount":12.5}`

	w := do(orderRouter(owner), http.MethodPost, "/payment/refund", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	order.StripePaymentIntentID = "pi_paid"
	order.MarkAsPaid(models.PaymentResult{ID: "pi_paid", Status: services.IntentSucceeded})
	require.NoError(t, store.Orders.Save(ctx, order))

	w = do(orderRouter(owner), http.MethodPost, "/payment/refund", `{"orderId":"`+order.ID.Hex()+`","reason":"because"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(orderRouter(owner), http.MethodPost, "/payment/refund", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []int64{1250}, gw.refunded)

	refunded, err := store.Orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderRefunded, refunded.Status)
	assert.Equal(t, "re_test", refunded.RefundID)
	assert.Equal(t, 12.5, refunded.RefundAmount)
}

func TestCreateRefund_GatewayError(t *testing.T) {
	memstore.Install()
	ctx := context.Background()
	useGateway(t, &fakeGateway{refundErr: errors.New("stripe down")})
	admin := newUser(t, models.RoleAdmin)
	order := newPaidlessOrder(t, primitive.NewObjectID(), 30)
	order.StripePaymentIntentID = "pi_paid"
	order.MarkAsPaid(models.PaymentResult{ID: "pi_paid"})
	require.NoError(t, store.Orders.Save(ctx, order))

	w := do(orderRouter(admin), http.MethodPost, "/payment/refund", `{"orderId":"`+order.ID.Hex()+`"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	unchanged, err := store.Orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderProcessing, unchanged.Status)
}

func TestGetPaymentHistory_OnlyPaidOrders(t *testing.T) {
	memstore.Install()
	ctx := context.Background()
	owner := newUser(t, models.RoleUser)
	paid := newPaidlessOrder(t, owner.ID, 10)
	paid.MarkAsPaid(models.PaymentResult{ID: "pi"})
	require.NoError(t, store.Orders.Save(ctx, paid))
	newPaidlessOrder(t, owner.ID, 99)

	w := do(orderRouter(owner), http.MethodGet, "/payment/history", "")
	require.Equal(t, http.StatusOK, w.Code)

	var history []paymentHistoryEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, paid.ID.Hex(), history[0].ID)
	assert.Equal(t, 10.0, history[0].TotalPrice)
}

func TestUpdateOrderStatus(t *testing.T) {
	memstore.Install()
	ctx := context.Background()
	admin := newUser(t, models.RoleAdmin)
	owner := newUser(t, models.RoleUser)
	order := newPaidlessOrder(t, owner.ID, 10)
	path := "/orders/" + order.ID.Hex() + "/status"

	w := do(orderRouter(admin), http.MethodPut, path, `{"status":"lost"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(orderRouter(admin), http.MethodPut, path, `{"status":"shipped","trackingNumber":"TRK1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `Order status updated to \"shipped\" successfully`)

	saved, err := store.Orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, saved.Status)
	assert.Equal(t, "TRK1", saved.TrackingNumber)

	notifs, err := store.Notifications.List(ctx, store.NotificationQuery{Recipient: owner.ID, Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotifOrderShipped, notifs[0].Type)

	w = do(orderRouter(admin), http.MethodPut, "/orders/"+primitive.NewObjectID().Hex()+"/status", `{"status":"shipped"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetAllOrdersAndDeleteAll(t *testing.T) {
	memstore.Install()
	admin := newUser(t, models.RoleAdmin)
	owner := newUser(t, models.RoleUser)

	w := do(orderRouter(admin), http.MethodDelete, "/orders", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	for i := 0; i < 3; i++ {
		newPaidlessOrder(t, owner.ID, 10)
	}

	w = do(orderRouter(admin), http.MethodGet, "/orders?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Orders     []models.Order         `json:"orders"`
		Pagination map[string]interface{} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Orders, 2)
	assert.EqualValues(t, 3, resp.Pagination["totalOrders"])
	assert.EqualValues(t, 2, resp.Pagination["totalPages"])
	require.NotNil(t, resp.Orders[0].UserRef)
	assert.Equal(t, owner.Email, resp.Orders[0].UserRef.Email)

	w = do(orderRouter(admin), http.MethodDelete, "/orders", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "All orders deleted!")
}
