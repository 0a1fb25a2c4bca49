package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const Version = "1.0.0"

// Health answers liveness checks. It does not touch the store.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "active",
		"version": Version,
		"message": "HelpBot service is healthy.",
	})
}
