package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
	appErrors "github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/errors"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/response"
)

// RequireRoles rejects principals whose role is not listed. Services still
// apply the fine grained policy; this only keeps whole route groups closed.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		p := Principal(c)
		if !p.Valid() {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		if _, ok := allowed[p.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "role "+string(p.Role)+" may not access this resource"))
			return
		}
		c.Next()
	}
}
