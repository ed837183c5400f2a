package user

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"vendora_back_end/internal/middleware"
	"vendora_back_end/internal/models"
	"vendora_back_end/internal/store"
	"vendora_back_end/internal/utils"
)

//
// --- HANDLERS ADRESSES ---
//

// 🟢 GET /api/auth/addresses
func ListAddresses(c *gin.Context) {
	user := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{"addresses": user.Addresses})
}

// 🟢 POST /api/auth/addresses
func AddAddress(c *gin.Context) {
	var input models.Address
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.AbortValidation(c, err)
		return
	}
	if input.Street == "" || input.City == "" || input.Country == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Street, city and country are required"})
		return
	}
	input.ID = primitive.NilObjectID

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user := middleware.CurrentUser(c)
	addr := *user.AddAddress(input)
	if err := store.Users.Save(ctx, user); err != nil {
		serverError(c, "Error saving address", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Address added successfully",
		"address":   addr,
		"addresses": user.Addresses,
	})
}

// 🟢 PUT /api/auth/addresses/:addressId
func UpdateAddress(c *gin.Context) {
	addressID, ok := utils.ParseObjectID(c.Param("addressId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Address not found"})
		return
	}

	var input models.Address
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.AbortValidation(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user := middleware.CurrentUser(c)
	addr := user.UpdateAddress(addressID, input)
	if addr == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Address not found"})
		return
	}
	updated := *addr
	if err := store.Users.Save(ctx, user); err != nil {
		serverError(c, "Error saving address", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Address updated successfully",
		"address": updated,
	})
}

// 🟢 PATCH /api/auth/addresses/:addressId/default
func SetDefaultAddress(c *gin.Context) {
	addressID, ok := utils.ParseObjectID(c.Param("addressId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Address not found"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user := middleware.CurrentUser(c)
	if !user.SetDefaultAddress(addressID) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Address not found"})
		return
	}
	if err := store.Users.Save(ctx, user); err != nil {
		serverError(c, "Error saving address", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Default address updated",
		"addresses": user.Addresses,
	})
}

// 🟢 DELETE /api/auth/addresses/:addressId
func DeleteAddress(c *gin.Context) {
	addressID, ok := utils.ParseObjectID(c.Param("addressId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Address not found"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user := middleware.CurrentUser(c)
	if !user.RemoveAddress(addressID) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Address not found"})
		return
	}
	if err := store.Users.Save(ctx, user); err != nil {
		serverError(c, "Error deleting address", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Address deleted successfully",
		"addresses": user.Addresses,
	})
}
