package middleware

import (
	"context"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/princinho/toursbackend/apperrors"
	"github.com/princinho/toursbackend/logger"
	"github.com/princinho/toursbackend/models"
)

// TokenCookie is the cookie the API sets on login and accepts on every
// protected route.
const TokenCookie = "jwt"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type currentUserKey struct{}

func WithCurrentUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, currentUserKey{}, user)
}

func CurrentUser(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(currentUserKey{}).(*models.User)
	return user, ok && user != nil
}

// Protect requires a valid token from the Authorization header or the jwt
// cookie and attaches the resolved user to the request context.
func Protect(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := auth.Authenticate(c.Request.Context(), presentedToken(c))
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}

		ctx := WithCurrentUser(c.Request.Context(), user)
		ctx = logger.WithUserID(ctx, user.ID.Hex())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RestrictTo lets through only users holding one of roles. It must run
// after Protect.
func RestrictTo(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c.Request.Context())
		if !ok || !slices.Contains(roles, user.Role) {
			c.Error(apperrors.Forbidden("You do not have permission to perform this action"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func presentedToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}
