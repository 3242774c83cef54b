package middleware

import (
	"os"

	"sft-go/internal/utils"

	"github.com/gin-gonic/gin"
)

// InternalAPIAuth 内部API认证中间件
// 用于训练服务回调上报任务进度，使用内部密钥认证
func InternalAPIAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		internalKey := os.Getenv("INTERNAL_API_KEY")
		if internalKey == "" {
			// 默认密钥（生产环境应该从环境变量设置）
			internalKey = "sft-internal-api-key-2024"
		}

		requestKey := c.GetHeader("X-Internal-API-Key")

		if requestKey != internalKey {
			utils.Unauthorized(c, "无效的内部API密钥")
			c.Abort()
			return
		}

		c.Next()
	}
}
