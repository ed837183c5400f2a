package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"vendora_back_end/internal/config"
	"vendora_back_end/internal/database"
	"vendora_back_end/internal/handlers/admin"
	"vendora_back_end/internal/handlers/notification"
	"vendora_back_end/internal/handlers/payement"
	"vendora_back_end/internal/handlers/product"
	"vendora_back_end/internal/handlers/user"
	"vendora_back_end/internal/middleware"
	"vendora_back_end/internal/utils"
)

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Stripe-Signature"},
		ExposeHeaders:    []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range cfg.CORSOrigins {
		if o == "*" {
			c.AllowAllOrigins = true
			c.AllowCredentials = false
			return c
		}
	}
	c.AllowOrigins = cfg.CORSOrigins
	if len(c.AllowOrigins) == 0 {
		c.AllowAllOrigins = true
		c.AllowCredentials = false
	}
	return c
}

// RegisterRoutes monte le middleware global et toutes les routes /api.
func RegisterRoutes(r *gin.Engine) {
	r.Use(middleware.RequestLogger(), gin.Recovery(), cors.New(corsConfig(config.App)))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Hello World from backend"})
	})
	r.GET("/health", health)

	api := r.Group("/api", middleware.APIRateLimit())

	// Le webhook lit le corps brut: aucun middleware ne doit le consommer avant
	r.POST("/api/payment/webhook", payement.StripeWebhook)

	registerAuthRoutes(api.Group("/auth"))
	registerProductRoutes(api.Group("/products"))
	registerCartRoutes(api.Group("/cart", middleware.AuthRequired()))
	registerOrderRoutes(api.Group("/orders"))
	registerPaymentRoutes(api.Group("/payment"))
	registerWishlistRoutes(api.Group("/wishlist"))
	registerNotificationRoutes(api.Group("/notifications", middleware.AuthRequired()))
	registerAdminRoutes(api.Group("/admin", middleware.AuthRequired(), middleware.RequireAdmin))
}

func health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := database.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "down"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up", "time": time.Now().UTC()})
}

func registerAuthRoutes(auth *gin.RouterGroup) {
	protect := middleware.AuthRequired()

	auth.POST("/send-otp", middleware.RegisterRateLimit(), user.SendOTP)
	auth.POST("/verify-otp", user.VerifyOTP)
	auth.POST("/resend-otp", middleware.RegisterRateLimit(), user.ResendOTP)
	auth.POST("/register", middleware.RegisterRateLimit(), user.Register)
	auth.POST("/login", middleware.LoginRateLimit(), user.Login)
	auth.POST("/logout", protect, user.Logout)
	auth.GET("/verify", protect, user.VerifyToken)

	auth.GET("/profile", protect, user.GetProfile)
	auth.PUT("/profile", protect, user.UpdateProfile)
	auth.DELETE("/profile", protect, user.DeleteAccount)
	auth.POST("/avatar", protect, user.UploadAvatar)
	auth.PUT("/change-password", protect, user.ChangePassword)
	auth.POST("/forgot-password", middleware.ForgotPasswordRateLimit(), user.ForgotPassword)
	auth.POST("/reset-password", user.ResetPassword)

	auth.GET("/addresses", protect, user.ListAddresses)
	auth.POST("/addresses", protect, user.AddAddress)
	auth.PUT("/addresses/:addressId", protect, user.UpdateAddress)
	auth.PATCH("/addresses/:addressId/default", protect, user.SetDefaultAddress)
	auth.DELETE("/addresses/:addressId", protect, user.DeleteAddress)

	auth.POST("/google", user.GoogleLogin)
	auth.POST("/google/link", protect, user.LinkGoogle)
	auth.POST("/google/unlink", protect, user.UnlinkGoogle)
	auth.GET("/oauth/:provider", user.BeginAuth)
	auth.GET("/oauth/:provider/callback", user.CallbackAuth)

	admins := auth.Group("/users", protect, middleware.RequireAdmin)
	admins.GET("", admin.GetAllUsers)
	admins.DELETE("", middleware.AuditCriticalActions(utils.ACTION_USER_DELETE_ALL, utils.RESOURCE_USER), admin.DeleteAllUsers)
	admins.DELETE("/:id", middleware.AuditCriticalActions(utils.ACTION_USER_DELETE, utils.RESOURCE_USER), admin.DeleteUser)
	admins.PUT("/:userId/role", admin.UpdateUserRole)
}

func registerProductRoutes(products *gin.RouterGroup) {
	adminOnly := []gin.HandlerFunc{middleware.AuthRequired(), middleware.RequireAdmin}

	products.GET("", product.GetProducts)
	products.GET("/featured/list", product.GetFeaturedProducts)
	products.GET("/search", middleware.SearchRateLimit(), product.SearchProducts)
	products.GET("/:id", middleware.OptionalAuth(), product.GetProduct)

	products.POST("", append(adminOnly, product.CreateProduct)...)
	products.PUT("/:id", append(adminOnly, middleware.AuditPriceChanges(), product.UpdateProduct)...)
	products.DELETE("/:id", append(adminOnly, product.DeleteProduct)...)
	products.DELETE("", append(adminOnly, product.DeleteAllProducts)...)
	products.POST("/:id/images", append(adminOnly, product.UploadProductImage)...)
	products.POST("/:id/reviews", middleware.AuthRequired(), product.AddReview)
}

func registerCartRoutes(cart *gin.RouterGroup) {
	cart.GET("", user.GetCart)
	cart.GET("/count", user.GetCartCount)
	cart.POST("/add", middleware.CartRateLimit(), user.AddToCart)
	cart.PUT("/update", middleware.CartRateLimit(), user.UpdateCartItem)
	cart.DELETE("/remove/:productId", user.RemoveFromCart)
	cart.DELETE("/clear", user.ClearCart)
}

func registerOrderRoutes(orders *gin.RouterGroup) {
	protect := middleware.AuthRequired()

	orders.POST("", protect, payement.CreateOrder)
	orders.GET("/my-orders", protect, user.GetMyOrders)
	orders.GET("/:id", protect, user.GetOrderByID)
	orders.PUT("/:id/cancel", protect, user.CancelOrder)

	orders.PUT("/:id/status", protect, middleware.RequireAdmin, payement.UpdateOrderStatus)
	orders.GET("", protect, middleware.RequireAdmin, payement.GetAllOrders)
	orders.DELETE("", protect, middleware.RequireAdmin, payement.DeleteAllOrders)
}

func registerPaymentRoutes(payment *gin.RouterGroup) {
	protect := middleware.AuthRequired()

	payment.GET("/config", payement.GetPaymentConfig)
	payment.POST("/create-intent", protect, payement.CreatePaymentIntent)
	payment.POST("/confirm", protect, payement.ConfirmPayment)
	payment.POST("/refund", protect, payement.CreateRefund)
	payment.GET("/history", protect, payement.GetPaymentHistory)
}

func registerWishlistRoutes(wishlist *gin.RouterGroup) {
	protect := middleware.AuthRequired()

	wishlist.GET("/shared/:shareToken", user.GetSharedWishlist)
	wishlist.GET("/check/:productId", middleware.OptionalAuth(), user.CheckWishlist)

	wishlist.GET("", protect, user.GetWishlist)
	wishlist.PUT("", protect, user.UpdateWishlist)
	wishlist.DELETE("", protect, user.ClearWishlist)
	wishlist.POST("/share", protect, user.ShareWishlist)
	wishlist.POST("/:productId", protect, user.AddToWishlist)
	wishlist.DELETE("/:productId", protect, user.RemoveFromWishlist)
	wishlist.POST("/:productId/move-to-cart", protect, user.MoveToCart)
}

func registerNotificationRoutes(n *gin.RouterGroup) {
	n.GET("", notification.GetNotifications)
	n.GET("/unread-count", notification.GetUnreadCount)
	n.PATCH("/read", notification.MarkManyAsRead)
	n.PATCH("/read-all", notification.MarkAllAsRead)
	n.PATCH("/:notificationId/read", notification.MarkAsRead)
	n.DELETE("", notification.DeleteNotifications)
	n.DELETE("/:notificationId", notification.DeleteNotification)

	adminOnly := n.Group("/admin", middleware.RequireAdmin)
	adminOnly.POST("/create", notification.CreateNotification)
	adminOnly.GET("/stats", notification.GetNotificationStats)
	adminOnly.DELETE("/cleanup", notification.CleanupNotifications)
}

func registerAdminRoutes(a *gin.RouterGroup) {
	a.GET("/dashboard", payement.GetDashboardStats)
	a.GET("/dashboard/recent-orders", payement.GetRecentOrders)
	a.GET("/audit-logs", admin.GetAuditLogs)
	a.GET("/audit-logs/stats", admin.GetAuditStats)
	a.GET("/audit-logs/:resource/:resourceId", admin.GetAuditLogsByResource)
}
