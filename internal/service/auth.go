package service

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthService guards the admin API with a static bearer token. The admin
// surface sits behind the operator VPN; the token is a second fence, not an
// identity system.
type AuthService struct {
	logger     *zap.Logger
	adminToken string
}

func NewAuthService(logger *zap.Logger, adminToken string) *AuthService {
	return &AuthService{
		logger:     logger,
		adminToken: adminToken,
	}
}

func (a *AuthService) ValidateToken(token string) bool {
	if a.adminToken == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(a.adminToken)) == 1
}

func (a *AuthService) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == header || !a.ValidateToken(token) {
			a.logger.Warn("Rejected unauthenticated admin request",
				zap.String("path", c.Request.URL.Path))
			c.JSON(401, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
