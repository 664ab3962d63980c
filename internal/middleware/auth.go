package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"recipeshare/internal/model"
	"recipeshare/internal/repository"
	"recipeshare/internal/utils"
)

// Context keys under which the auth guard exposes the resolved identity.
const (
	CtxUser  = "user"  // *model.User
	CtxToken = "token" // raw bearer token string
)

// Auth returns the auth guard: an Echo middleware that validates a Bearer
// session token and attaches the resolved user to the request context.
// Validation happens in three steps:
//
//  1. verify the JWT signature and extract the user id,
//  2. load that user from storage,
//  3. require the token's hash to still be live in the user's token list —
//     a token revoked by logout is rejected even though its signature
//     verifies.
//
// On success the user and the raw token are stored in context so that
// logout can revoke exactly the presented token.  The guard has no side
// effects.
func Auth(secret string, users *repository.UserRepo, tokens *repository.TokenRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			uid, err := utils.ParseSessionToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			u, err := users.GetByID(ctx, uid)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			live, err := tokens.IsLive(ctx, uid, utils.HashToken(raw))
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "auth check failed"})
			}
			if !live {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set(CtxUser, &u)
			c.Set(CtxToken, raw)
			return next(c)
		}
	}
}

// UserFrom extracts the authenticated user placed in context by Auth.
func UserFrom(c echo.Context) (*model.User, bool) {
	u, ok := c.Get(CtxUser).(*model.User)
	return u, ok
}

// TokenFrom extracts the raw bearer token placed in context by Auth.
func TokenFrom(c echo.Context) string {
	t, _ := c.Get(CtxToken).(string)
	return t
}
