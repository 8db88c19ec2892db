package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gatherly/backend/internal/domain"
	"github.com/gatherly/backend/internal/identity"
)

const actorKey = "actor"

// AuthMiddleware resolves the caller through the identity collaborator and
// stores the actor on the request context. Tokens come from the
// Authorization header or, for websocket handshakes, the token query param.
func AuthMiddleware(resolver identity.Resolver) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := bearerToken(ctx)
		if token == "" {
			token = ctx.Query("token")
		}
		if token == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		actor, err := resolver.Resolve(ctx.Request.Context(), token)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		ctx.Set(actorKey, actor)
		ctx.Next()
	}
}

func bearerToken(ctx *gin.Context) string {
	header := ctx.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func currentActor(ctx *gin.Context) domain.Actor {
	actor, _ := ctx.Get(actorKey)
	a, _ := actor.(domain.Actor)
	return a
}

// respondError maps the service error taxonomy to HTTP statuses. Anything
// outside the taxonomy is an internal error with the message withheld.
func respondError(ctx *gin.Context, err error) {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case domain.KindAuthorization:
		ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case domain.KindConflict:
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case domain.KindNotFound:
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
