package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apierrors "github.com/jpgoodman17/SPN-Site-Search/internal/errors"
)

// bindQuery binds query parameters into req and writes the error response
// itself when binding fails.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return false
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return false
	}
	return true
}
