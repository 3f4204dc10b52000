package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/ortoqbank/ortoqbank-backend/internal/platform/envutil"
	"github.com/ortoqbank/ortoqbank-backend/internal/platform/logger"
	"github.com/ortoqbank/ortoqbank-backend/internal/requestdata"
	"github.com/ortoqbank/ortoqbank-backend/internal/services"
)

type AuthMiddleware struct {
	log          *logger.Logger
	authService  services.AuthService
	adminKeyHash []byte
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		log:          log.With("middleware", "AuthMiddleware"),
		authService:  authService,
		adminKeyHash: []byte(envutil.String("ADMIN_API_KEY_HASH", "")),
	}
}

// RequireAuth verifies the bearer token, provisions the user on first sight,
// and stashes the request data in the context.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		claims, err := am.authService.VerifyToken(c.Request.Context(), tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		user, err := am.authService.EnsureUser(c.Request.Context(), claims)
		if err != nil {
			am.log.Error("user provisioning failed", "subject", claims.Subject, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		entitled, err := am.authService.IsEntitled(c.Request.Context(), user)
		if err != nil {
			am.log.Error("entitlement check failed", "user", user.ID, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		rd := &requestdata.RequestData{
			UserID:     user.ID,
			ExternalID: user.ExternalID,
			IsAdmin:    user.IsAdmin,
			Entitled:   entitled,
		}
		c.Request = c.Request.WithContext(requestdata.WithRequestData(c.Request.Context(), rd))
		c.Next()
	}
}

// RequireEntitlement gates paid content. Admins pass regardless.
func (am *AuthMiddleware) RequireEntitlement() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := requestdata.GetRequestData(c.Request.Context())
		if rd == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		if !rd.Entitled && !rd.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "active purchase required"})
			return
		}
		c.Next()
	}
}

// RequireAdminKey protects the operational admin surface with a static API
// key checked against a bcrypt hash from the environment.
func (am *AuthMiddleware) RequireAdminKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(am.adminKeyHash) == 0 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access not configured"})
			return
		}
		key := c.GetHeader("X-Admin-Key")
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing admin key"})
			return
		}
		if err := bcrypt.CompareHashAndPassword(am.adminKeyHash, []byte(key)); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid admin key"})
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
