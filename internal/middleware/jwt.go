package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/trainhub/training-admin-api/internal/models"
	appErrors "github.com/trainhub/training-admin-api/pkg/errors"
	"github.com/trainhub/training-admin-api/pkg/response"
)

// ContextCallerKey is the gin context key storing the authenticated caller.
const ContextCallerKey = "currentCaller"

// Claims carries the identity attributes embedded in access tokens.
type Claims struct {
	IsStaff      bool    `json:"is_staff"`
	DepartmentID *string `json:"department_id,omitempty"`
	jwt.RegisteredClaims
}

// JWT protects routes by requiring a valid HS256 bearer token. The token
// subject plus the staff and department claims become the request caller.
func JWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid || claims.Subject == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(ContextCallerKey, models.Caller{
			ID:           claims.Subject,
			IsStaff:      claims.IsStaff,
			DepartmentID: claims.DepartmentID,
		})
		c.Next()
	}
}

// CallerFrom extracts the authenticated caller from the gin context.
func CallerFrom(c *gin.Context) (models.Caller, bool) {
	value, exists := c.Get(ContextCallerKey)
	if !exists {
		return models.Caller{}, false
	}
	caller, ok := value.(models.Caller)
	return caller, ok
}
