package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/middleware"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/models"
	appErrors "github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/errors"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/response"
)

// principalFromContext renders 401 and reports false when the request carries
// no usable principal.
func principalFromContext(c *gin.Context) (models.Principal, bool) {
	p := middleware.Principal(c)
	if !p.Valid() {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Principal{}, false
	}
	return p, true
}

func bindJSON(c *gin.Context, dst interface{}, what string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid "+what+" payload"))
		return false
	}
	return true
}

func notConfigured(c *gin.Context, what string) {
	response.Error(c, appErrors.Clone(appErrors.ErrInternal, what+" service not configured"))
}
