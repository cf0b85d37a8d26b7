package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ds124wfegd/eshikshan/internal/entity"
	"github.com/ds124wfegd/eshikshan/pkg/auth"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

type TokenVerifier interface {
	VerifyToken(token string) (*auth.Claims, error)
}

// Authenticate turns a bearer token into an entity.Actor on the context.
// Browsers cannot set headers on a websocket handshake, so a "token" query
// parameter is accepted as well.
func Authenticate(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "missing authorization header")
			return
		}

		claims, err := verifier.VerifyToken(token)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				abort(c, http.StatusUnauthorized, "token has expired")
				return
			}
			abort(c, http.StatusUnauthorized, "invalid token")
			return
		}

		userID, err := claims.UserID()
		if err != nil || userID <= 0 {
			abort(c, http.StatusUnauthorized, "invalid user id")
			return
		}

		role := entity.Role(strings.ToLower(strings.TrimSpace(claims.Role)))
		if !role.Valid() {
			abort(c, http.StatusForbidden, "unknown role")
			return
		}
		if claims.Email == "" {
			abort(c, http.StatusUnauthorized, "token carries no email")
			return
		}

		c.Set(actorKey, entity.Actor{
			ID:    userID,
			Email: strings.ToLower(strings.TrimSpace(claims.Email)),
			Name:  claims.Name,
			Role:  role,
		})
		c.Next()
	}
}

// RequireRole admits only actors holding one of roles.
func RequireRole(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "not authenticated")
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "insufficient role")
	}
}

func ActorFromContext(c *gin.Context) (entity.Actor, bool) {
	value, ok := c.Get(actorKey)
	if !ok {
		return entity.Actor{}, false
	}
	actor, ok := value.(entity.Actor)
	return actor, ok
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if token := c.Query("token"); token != "" {
		return token, true
	}
	return "", false
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": message})
}
