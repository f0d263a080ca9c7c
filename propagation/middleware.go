package propagation

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Middleware stores the headers of every served request in its context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithInbound(r.Context(), r.Header)))
	})
}

// GinMiddleware is Middleware for a gin engine.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(WithInbound(c.Request.Context(), c.Request.Header))
		c.Next()
	}
}
