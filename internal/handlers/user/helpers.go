package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vendora_back_end/internal/store"
)

// serverError journalise l'erreur et renvoie un 500 au message stable.
func serverError(c *gin.Context, message string, err error) {
	zap.S().Errorw("❌ "+message, "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"message": message})
}

// notFoundOr500 traduit store.ErrNotFound en 404.
func notFoundOr500(c *gin.Context, err error, notFoundMessage string) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": notFoundMessage})
		return
	}
	serverError(c, "Server error", err)
}
