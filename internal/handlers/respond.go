package handlers

import (
	"github.com/gin-gonic/gin"

	"messaging-service/internal/errs"
)

// respondError maps a domain error to its HTTP status once, at the edge.
func respondError(c *gin.Context, err error) {
	c.JSON(errs.HTTPStatus(err), gin.H{
		"error": err.Error(),
		"code":  string(errs.CodeOf(err)),
	})
}
