package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"stayfinder/internal/domain/user"
)

const principalContextKey = "stayfinder.principal"

// principal is the caller identity resolved by the edge gateway and forwarded
// in trusted headers. This service never authenticates credentials itself.
type principal struct {
	ID   string
	Role user.Role
}

// HeaderAuthMiddleware trusts X-User-ID / X-User-Role set by the gateway.
// Requests without both headers pass through anonymous; handlers that need a
// principal reject them.
type HeaderAuthMiddleware struct {
	Logger *slog.Logger
}

func (m HeaderAuthMiddleware) Handle(c *gin.Context) {
	id := strings.TrimSpace(c.GetHeader("X-User-ID"))
	rawRole := c.GetHeader("X-User-Role")
	if id == "" || rawRole == "" {
		c.Next()
		return
	}
	role, err := user.ParseRole(rawRole)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Debug("rejecting unknown role header", "role", rawRole)
		}
		c.Next()
		return
	}
	setPrincipal(c, principal{ID: id, Role: role})
	c.Next()
}

func setPrincipal(c *gin.Context, p principal) {
	c.Set(principalContextKey, p)
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal{}, false
	}
	p, ok := val.(principal)
	return p, ok
}

func requirePrincipal(c *gin.Context) (principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return principal{}, false
	}
	return p, true
}
