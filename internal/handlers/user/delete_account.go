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
	"vendora_back_end/internal/services"
	"vendora_back_end/internal/store"
	"vendora_back_end/internal/utils"
)

// DeleteAccount supprime le compte de l'utilisateur connecté et ses données personnelles.
// Les commandes sont conservées pour la comptabilité.
// 🟢 DELETE /api/auth/profile
func DeleteAccount(c *gin.Context) {
	var input struct {
		Password        string `json:"password"`
		ConfirmDeletion bool   `json:"confirmDeletion"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.AbortValidation(c, err)
		return
	}
	if !input.ConfirmDeletion {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Account deletion must be confirmed"})
		return
	}

	user := middleware.CurrentUser(c)

	// Les comptes sociaux n'ont pas de mot de passe
	if user.Password != "" {
		if input.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Password is required to delete the account"})
			return
		}
		if !utils.CheckPassword(input.Password, user.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Incorrect password"})
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	zap.S().Infof("🗑️ Début de la suppression du compte: %s (%s)", user.Email, user.ID.Hex())

	if err := store.Carts.DeleteByUser(ctx, user.ID); err != nil {
		zap.S().Warnf("⚠️ Panier non supprimé: %v", err)
	}

	wishlist, err := store.Wishlists.FindByUser(ctx, user.ID)
	switch {
	case err == nil:
		if ids := wishlist.ProductIDs(); len(ids) > 0 {
			if err := store.Products.AdjustWishlistCount(ctx, ids, -1); err != nil {
				zap.S().Warnf("⚠️ Compteurs wishlist non mis à jour: %v", err)
			}
		}
		if err := store.Wishlists.DeleteByUser(ctx, user.ID); err != nil {
			zap.S().Warnf("⚠️ Wishlist non supprimée: %v", err)
		}
	case !errors.Is(err, store.ErrNotFound):
		zap.S().Warnf("⚠️ Wishlist illisible: %v", err)
	}

	if deleted, err := store.Notifications.DeleteAllFor(ctx, user.ID); err != nil {
		zap.S().Warnf("⚠️ Notifications non supprimées: %v", err)
	} else {
		zap.S().Infof("✅ %d notification(s) supprimée(s)", deleted)
	}

	if user.Avatar.URL != "" {
		if err := services.DeleteFile(ctx, user.Avatar.URL); err != nil {
			zap.S().Warnf("⚠️ Avatar non supprimé: %v", err)
		}
	}

	if err := store.Users.Delete(ctx, user.ID); err != nil {
		serverError(c, "Error deleting account", err)
		return
	}

	if exp, ok := c.Get(middleware.CtxTokenExp); ok {
		if expiresAt, ok := exp.(time.Time); ok {
			if err := cache.BlacklistToken(ctx, c.GetString(middleware.CtxTokenID), time.Until(expiresAt)); err != nil {
				zap.S().Warnf("⚠️ Token non révoqué: %v", err)
			}
		}
	}

	utils.LogAction(c, utils.ACTION_USER_DELETE, utils.RESOURCE_USER, user.ID.Hex(), nil, nil)
	zap.S().Infof("✅ Compte %s supprimé", user.Email)

	c.JSON(http.StatusOK, gin.H{
		"message":   "Your account and personal data have been permanently deleted",
		"deletedAt": time.Now().UTC().Format(time.RFC3339),
	})
}
