package util

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// SafeErrorResponse returns a JSON error response, logging details but only exposing safe info to users
func SafeErrorResponse(c *gin.Context, statusCode int, userMessage string, err error) {
	if err != nil {
		log.Error("request failed", "path", c.Request.URL.Path, "status", statusCode, "err", err)
	}

	response := gin.H{
		"success": false,
		"error":   userMessage,
	}

	// Only include detailed error in development mode
	if os.Getenv("GIN_MODE") != "release" && err != nil {
		response["details"] = err.Error()
	}

	c.JSON(statusCode, response)
}
