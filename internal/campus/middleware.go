package campus

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"eas/internal/auth"
)

const scopeKey = "campus.scope"

// ScopeMiddleware resolves the campus scope from verified claims. Every
// versioned route runs behind it; handlers read the scope, never raw claims.
func ScopeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := auth.ClaimsFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"code": "unauthorized", "message": "missing credentials"}})
			return
		}
		role := Role(claims.Role)
		if !role.Valid() || claims.CampusID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"code": "unauthorized", "message": "malformed credentials"}})
			return
		}
		scope := Scope{
			UserID:              claims.Subject,
			Role:                role,
			CampusID:            claims.CampusID,
			AccessibleCampusIDs: claims.AccessibleCampusIDs,
		}
		c.Set(scopeKey, scope)
		c.Header("X-Campus-ID", strconv.FormatInt(scope.CampusID, 10))
		c.Next()
	}
}

// ScopeFrom returns the scope stored by ScopeMiddleware.
func ScopeFrom(c *gin.Context) (Scope, bool) {
	v, ok := c.Get(scopeKey)
	if !ok {
		return Scope{}, false
	}
	scope, ok := v.(Scope)
	return scope, ok
}

// RequireRole allows only the listed roles through.
func RequireRole(roles ...Role) gin.HandlerFunc {
	allowed := make(map[Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		scope, ok := ScopeFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"code": "unauthorized", "message": "missing credentials"}})
			return
		}
		if !allowed[scope.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": gin.H{"code": "forbidden", "message": "insufficient role"}})
			return
		}
		c.Next()
	}
}
