package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"inkwell/auth"
	"inkwell/models"
)

const userKey = "user"

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.Split(header, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// requireAuth resolves the bearer credential to a user and aborts with 401
// when it is missing, invalid or expired.
func (m *Module) requireAuth(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
		return
	}

	user := m.tokens.ResolveUser(token)
	if user == nil {
		m.log.Debug("rejected request with invalid token", zap.String("path", c.FullPath()))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	c.Set(userKey, user)
	c.Next()
}

// optionalAuth resolves the caller when a valid credential is present and
// stays silent otherwise. Used where a route behaves differently for admins.
func (m *Module) optionalAuth(c *gin.Context) {
	if token := bearerToken(c); token != "" {
		if user := m.tokens.ResolveUser(token); user != nil {
			c.Set(userKey, user)
		}
	}
	c.Next()
}

func (m *Module) requireAdmin(c *gin.Context) {
	if !auth.CanModerate(currentUser(c)) {
		forbidden(c, "Admin access required")
		return
	}
	c.Next()
}

func (m *Module) requireWriter(c *gin.Context) {
	if !auth.CanAuthor(currentUser(c)) {
		forbidden(c, "Writer access required")
		return
	}
	c.Next()
}

func currentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}
