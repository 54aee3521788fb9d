package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/memorybook/memorybook/session"
	"github.com/memorybook/memorybook/utils"
)

// ContextSessionKey stores the request's admin session store in the Gin context.
const ContextSessionKey = "admin_session"

// AdminRequired rejects requests that do not carry a valid admin session cookie.
func AdminRequired(secret []byte, secure bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		store := session.NewCookieStore(ctx, secret, secure)
		if !store.Get() {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "admin session required")
			ctx.Abort()
			return
		}
		ctx.Set(ContextSessionKey, store)
		ctx.Next()
	}
}
