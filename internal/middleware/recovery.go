package middleware

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/shailum17/BazaarBuddy-sub000/pkg/log"
	"github.com/shailum17/BazaarBuddy-sub000/pkg/utils"
)

// Recovery panic recovery middleware
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.WithFields(map[string]interface{}{
			"error":  recovered,
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
			"stack":  string(debug.Stack()),
		}).Error("Panic recovered")

		utils.Error(c, utils.CodeInternalError, "Internal server error")
		c.Abort()
	})
}
