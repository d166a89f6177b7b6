package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gtead/marketplace-backend/internal/logger"
	"github.com/gtead/marketplace-backend/internal/requestdata"
	"github.com/gtead/marketplace-backend/internal/services"
	"github.com/gtead/marketplace-backend/internal/types"
)

// SessionCookieName carries the signed session id.
const SessionCookieName = "gtead_session"

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
	oidcService services.OIDCService
}

// NewAuthMiddleware builds the session middleware. oidcService may be
// nil when the delegated provider is not configured.
func NewAuthMiddleware(log *logger.Logger, authService services.AuthService, oidcService services.OIDCService) *AuthMiddleware {
	return &AuthMiddleware{
		log:         log.With("middleware", "AuthMiddleware"),
		authService: authService,
		oidcService: oidcService,
	}
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{"message": "Unauthorized", "code": "unauthorized"},
	})
}

// Authenticate resolves the session cookie into request data. It never
// aborts; routes that need a user stack RequireAuth on top, so public
// routes can still see who is asking.
func (am *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(SessionCookieName)
		if err != nil || cookie == "" {
			c.Next()
			return
		}
		sid, ok := am.authService.VerifyCookie(cookie)
		if !ok {
			am.log.Debug("Session cookie failed signature check")
			c.Next()
			return
		}
		user, session, err := am.authService.SessionUser(c.Request.Context(), sid)
		if err != nil {
			c.Next()
			return
		}
		if !am.refreshProviderTokens(c, session) {
			c.Next()
			return
		}
		ctx := requestdata.WithRequestData(c.Request.Context(), &requestdata.RequestData{
			SessionID: sid,
			User:      user,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// refreshProviderTokens silently renews an expired delegated access
// token. Returns false when the session can no longer be trusted.
func (am *AuthMiddleware) refreshProviderTokens(c *gin.Context, session *types.Session) bool {
	if session.Provider != types.SessionProviderOIDC {
		return true
	}
	if session.TokenExpiresAt == nil || time.Now().Before(*session.TokenExpiresAt) {
		return true
	}
	if am.oidcService == nil || session.RefreshToken == "" {
		am.log.Debug("Delegated session expired with no refresh path", "sid", session.SID)
		return false
	}
	tokens, err := am.oidcService.Refresh(c.Request.Context(), session.RefreshToken)
	if err != nil {
		am.log.Warn("Provider token refresh failed", "sid", session.SID, "error", err)
		return false
	}
	session.AccessToken = tokens.AccessToken
	session.RefreshToken = tokens.RefreshToken
	session.TokenExpiresAt = tokens.ExpiresAt
	if err := am.authService.UpdateSession(c.Request.Context(), session); err != nil {
		am.log.Warn("Failed to persist refreshed tokens", "sid", session.SID, "error", err)
		return false
	}
	return true
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := requestdata.GetRequestData(c.Request.Context())
		if rd == nil || rd.User == nil {
			unauthorized(c)
			return
		}
		c.Next()
	}
}

// RequireRole layers on RequireAuth; an authenticated user with the
// wrong role gets 403, not 401.
func (am *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := requestdata.GetRequestData(c.Request.Context())
		if rd == nil || rd.User == nil {
			unauthorized(c)
			return
		}
		for _, role := range roles {
			if rd.User.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": gin.H{"message": "Forbidden", "code": "forbidden"},
		})
	}
}
