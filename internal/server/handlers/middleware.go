package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/footprint/internal/domain/models"
)

const userContextKey = "footprint.user"

// TokenParser resolves a bearer token to a user.
type TokenParser interface {
	ParseToken(token string) (models.User, error)
}

// Authenticate resolves the optional bearer token into the request context.
// Requests without a valid token continue anonymously.
func Authenticate(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if parser != nil && strings.HasPrefix(header, "Bearer ") {
			if user, err := parser.ParseToken(strings.TrimPrefix(header, "Bearer ")); err == nil {
				c.Set(userContextKey, user)
			}
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, if any.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok && user.ID != ""
}
