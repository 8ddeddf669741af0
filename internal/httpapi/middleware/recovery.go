package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/common"
)

// Recovery converts panics into the standard JSON error envelope instead of
// a dropped connection.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("event=panic_recovered path=%s panic=%v", c.FullPath(), r)
				common.Fail(c, http.StatusInternalServerError, 50000, "internal server error")
				c.Abort()
			}
		}()
		c.Next()
	}
}
