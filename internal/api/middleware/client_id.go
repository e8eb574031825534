package middleware

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
)

const clientIDKey = "clientID"

// 客户端标识由前端首次启动时生成并持久化，服务端只校验形状。
var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// ValidClientID 校验客户端标识是否合法。
func ValidClientID(id string) bool {
	return clientIDPattern.MatchString(id)
}

// ClientIDMiddleware 要求请求携带 X-Client-ID，用于无账号模式下归属资源。
func ClientIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Client-ID")
		if !ValidClientID(id) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing or invalid X-Client-ID"})
			return
		}
		c.Set(clientIDKey, id)
		c.Next()
	}
}

// GetClientID 从上下文中取出客户端标识。
func GetClientID(c *gin.Context) (string, bool) {
	value, ok := c.Get(clientIDKey)
	if !ok {
		return "", false
	}
	id, ok := value.(string)
	return id, ok
}
