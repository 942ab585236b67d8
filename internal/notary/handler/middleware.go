package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AdminSecretHeader carries the shared secret for privileged routes.
const AdminSecretHeader = "X-Admin-Secret"

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// RequireAdmin returns a middleware that admits only requests whose
// X-Admin-Secret matches the bcrypt hash. An empty hash disables the route.
func RequireAdmin(secretHash []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(secretHash) == 0 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "privileged append is disabled"})
			return
		}
		secret := c.GetHeader(AdminSecretHeader)
		if secret == "" || bcrypt.CompareHashAndPassword(secretHash, []byte(secret)) != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid admin secret"})
			return
		}
		c.Next()
	}
}

// RequestID returns a middleware that propagates X-Request-ID, generating one
// when the client did not send it.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
