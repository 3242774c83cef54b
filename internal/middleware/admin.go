package middleware

import (
	"sft-go/internal/utils"

	"github.com/gin-gonic/gin"
)

// AdminMiddleware 管理员权限中间件,必须挂在AuthMiddleware之后
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetUserID(c); !ok {
			utils.Unauthorized(c, "未认证")
			c.Abort()
			return
		}
		if !IsAdmin(c) {
			utils.Forbidden(c, "需要管理员权限")
			c.Abort()
			return
		}
		c.Next()
	}
}
