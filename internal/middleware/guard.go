package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gocard/gateway/internal/models"
	"gocard/gateway/internal/session"
)

const (
	// SessionKey is where the guard stores the resolved session in the
	// request context.
	SessionKey = "session"
	// CredentialCookie is the fallback credential location for browser
	// navigation, where no Authorization header can be attached.
	CredentialCookie = "token"

	publicEntry = "/"
)

// Credential extracts the bearer credential from the Authorization header,
// falling back to the session cookie.
func Credential(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie(CredentialCookie); err == nil {
		return cookie
	}
	return ""
}

// Guard protects a browser-facing view. An unresolved role, or a resolved
// role outside the allow-list, is sent back to the public entry route with
// 303 See Other so the guarded page never enters browser history. An empty
// allow-list admits any resolved role.
func Guard(resolver session.Resolver, allowed ...models.Role) gin.HandlerFunc {
	allowSet := make(map[models.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowSet[role] = struct{}{}
	}

	return func(c *gin.Context) {
		sess := resolver.Resolve(c.Request.Context(), Credential(c))
		if !sess.Resolved() {
			c.Redirect(http.StatusSeeOther, publicEntry)
			c.Abort()
			return
		}

		if len(allowSet) > 0 {
			if _, ok := allowSet[sess.Role]; !ok {
				c.Redirect(http.StatusSeeOther, publicEntry)
				c.Abort()
				return
			}
		}

		c.Set(SessionKey, sess)
		c.Next()
	}
}

// RequireSession is the API-subtree counterpart of Guard: it answers JSON
// instead of redirecting.
func RequireSession(resolver session.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := resolver.Resolve(c.Request.Context(), Credential(c))
		if !sess.Resolved() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(SessionKey, sess)
		c.Next()
	}
}

// RequireRoles gates an API route group to the listed roles. It must run
// after RequireSession or Guard.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	roleSet := make(map[models.Role]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(c *gin.Context) {
		sess, ok := SessionFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if _, ok := roleSet[sess.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// SessionFrom returns the session stored by Guard or RequireSession.
func SessionFrom(c *gin.Context) (models.Session, bool) {
	val, exists := c.Get(SessionKey)
	if !exists {
		return models.Session{}, false
	}
	sess, ok := val.(models.Session)
	return sess, ok
}
