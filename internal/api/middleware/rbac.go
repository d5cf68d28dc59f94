package middleware

import (
	"slices"

	"github.com/gin-gonic/gin"

	"pitlane.io/pitlane/internal/domain"
	apperrors "pitlane.io/pitlane/internal/pkg/errors"
)

// RequireRole returns middleware that admits only callers holding one of roles.
// Ownership checks stay in the services; this is the coarse gate.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c.Request.Context())
		if !ok {
			abort(c, apperrors.Unauthorized(CodeUnauthorized, "not authenticated"))
			return
		}
		if !slices.Contains(roles, actor.Role) {
			abort(c, apperrors.Forbidden(apperrors.CodeForbidden, "insufficient role").
				WithParams(map[string]interface{}{"role": string(actor.Role)}))
			return
		}
		c.Next()
	}
}
