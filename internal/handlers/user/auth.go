package user

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vendora_back_end/internal/cache"
	"vendora_back_end/internal/middleware"
	"vendora_back_end/internal/models"
	"vendora_back_end/internal/services"
	"vendora_back_end/internal/store"
	"vendora_back_end/internal/utils"
)

// ================== INSCRIPTION PAR OTP ==================

type signupInput struct {
	Name     string `json:"name" binding:"required,min=2,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	// admin et moderator ne s'obtiennent que via PUT /users/:userId/role
	Role string `json:"role" binding:"omitempty,oneof=user seller"`
}

// SendOTP crée (ou met à jour) un compte non vérifié et envoie le code par email.
func SendOTP(c *gin.Context) {
	var input signupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.AbortValidation(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		serverError(c, "Error hashing password", err)
		return
	}

	user, err := store.Users.FindByEmail(ctx, input.Email)
	isNew := false
	switch {
	case err == nil && user.IsOTPVerified:
		c.JSON(http.StatusBadRequest, gin.H{"message": "User already exists with this email"})
		return
	case err == nil:
		user.Name = input.Name
		user.Password = hashed
		if input.Role != "" {
			user.Role = input.Role
		}
	case errors.Is(err, store.ErrNotFound):
		user = models.NewUser(input.Name, input.Email, input.Role)
		user.Password = hashed
		isNew = true
	default:
		serverError(c, "Error looking up user", err)
		return
	}

	otp, err := user.GenerateOTP()
	if err != nil {
		serverError(c, "Error generating OTP", err)
		return
	}

	if isNew {
		err = store.Users.Create(ctx, user)
	} else {
		err = store.Users.Save(ctx, user)
	}
	if err != nil {
		serverError(c, "Error saving user", err)
		return
	}

	if err := utils.SendOTPEmail(user.Email, user.Name, otp); err != nil {
		zap.S().Errorw("❌ Envoi OTP impossible", "email", user.Email, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send OTP email. Please try again."})
		return
	}

	zap.S().Infof("📧 OTP envoyé à %s", user.Email)
	c.JSON(http.StatusOK, gin.H{
		"message": "OTP sent successfully to your email",
		"email":   user.Email,
		"otpSent": true,
	})
}

// VerifyOTP valide le code et termine l'inscription.
func VerifyOTP(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required,email"`
		OTP   string `json:"otp" binding:"required,len=6,numeric"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.AbortValidation(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user, err := store.Users.FindByEmail(ctx, input.Email)
	if err != nil {
		notFoundOr500(c, err, "User not found")
		return
	}

	if !user.VerifyOTP(input.OTP) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid or expired OTP"})
		return
	}

	user.IsOTPVerified = true
	user.IsEmailVerified = true
	user.ClearOTP()
	if err := store.Users.Save(ctx, user); err != nil {
		serverError(c, "Error saving user", err)
		return
	}

	token, err := utils.GenerateJWT(user, utils.TokenTTL)
	if err != nil {
		serverError(c, "Error generating token", err)
		return
	}

	services.Notify(ctx, user.ID, models.NotifWelcome, "Welcome to Vendora!",
		"Your email has been verified. Happy shopping!", nil)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Email verified successfully. Registration completed!",
		"user":    user.Summary(),
		"token":   token,
	})
}

// ResendOTP régénère un code pour un compte non vérifié.
func ResendOTP(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.AbortValidation(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := store.Users.FindByEmail(ctx, input.Email)
	if err != nil {
		notFoundOr500(c, err, "User not found")
		return
	}
	if user.IsOTPVerified {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email already verified"})
		return
	}

	otp, err := user.GenerateOTP()
	if err != nil {
		serverError(c, "Error generating OTP", err)
		return
	}
	if err := store.Users.Save(ctx, user); err != nil {
		serverError(c, "Error saving user", err)
		return
	}

	if err := utils.SendOTPEmail(user.Email, user.Name, otp); err != nil {
		zap.S().Errorw("❌ Renvoi OTP impossible", "email", user.Email, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resend OTP email. Please try again."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "OTP resent successfully to your email",
		"email":   user.Email,
	})
}

// ================== AUTH LOCALE ==================

// Register crée directement un compte (sans OTP).
func Register(c *gin.Context) {
	var input signupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.AbortValidation(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := store.Users.FindByEmail(ctx, input.Email); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "User already exists with this email"})
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		serverError(c, "Error looking up user", err)
		return
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		serverError(c, "Error hashing password", err)
		return
	}

	user := models.NewUser(input.Name, input.Email, input.Role)
	user.Password = hashed
	if err := store.Users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "User already exists with this email"})
			return
		}
		serverError(c, "Error creating user", err)
		return
	}

	token, err := utils.GenerateJWT(user, utils.TokenTTL)
	if err != nil {
		serverError(c, "Error generating token", err)
		return
	}

	zap.S().Infof("👤 Nouvel utilisateur: %s", user.Email)
	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user.Summary(),
		"token":   token,
	})
}

func Login(c *gin.Context) {
	var input struct {
		Email      string `json:"email" binding:"required,email"`
		Password   string `json:"password" binding:"required"`
		RememberMe bool   `json:"rememberMe"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.AbortValidation(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user, err := store.Users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
			return
		}
		serverError(c, "Error looking up user", err)
		return
	}

	if !user.IsOTPVerified || !user.IsEmailVerified {
		c.JSON(http.StatusUnauthorized, gin.H{
			"message":          "Please verify your email before logging in",
			"emailNotVerified": true,
			"email":            user.Email,
		})
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Account is deactivated"})
		return
	}

	if user.IsLocked() {
		c.JSON(http.StatusLocked, gin.H{
			"message": "Account temporarily locked due to too many failed login attempts",
		})
		return
	}

	if !utils.CheckPassword(input.Password, user.Password) {
		user.RegisterFailedLogin()
		if err := store.Users.Save(ctx, user); err != nil {
			zap.S().Warnf("⚠️ Impossible d'enregistrer l'échec de connexion: %v", err)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}

	// bcrypt importé ou anciens paramètres argon2: on re-hashe au passage
	if utils.NeedsRehash(user.Password) {
		if rehashed, err := utils.HashPassword(input.Password); err == nil {
			user.Password = rehashed
		}
	}

	now := time.Now()
	user.ResetLoginAttempts()
	user.LastLogin = &now
	if err := store.Users.Save(ctx, user); err != nil {
		serverError(c, "Error saving user", err)
		return
	}

	ttl := utils.TokenTTL
	if input.RememberMe {
		ttl = utils.RememberTokenTTL
	}
	token, err := utils.GenerateJWT(user, ttl)
	if err != nil {
		serverError(c, "Error generating token", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Login successful",
		"user":       user.SummaryWithAvatar(),
		"token":      token,
		"rememberMe": input.RememberMe,
	})
}

// Logout révoque le token courant jusqu'à son expiration.
func Logout(c *gin.Context) {
	tokenID := c.GetString(middleware.CtxTokenID)
	exp, _ := c.Get(middleware.CtxTokenExp)
	expiresAt, _ := exp.(time.Time)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := cache.BlacklistToken(ctx, tokenID, time.Until(expiresAt)); err != nil {
		serverError(c, "Error during logout", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// VerifyToken confirme la validité du token (protect).
func VerifyToken(c *gin.Context) {
	user := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"user":  user.Summary(),
	})
}
