package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/collection-desk/internal/presentation/http/dto/response"
)

// bookID parses the :id path parameter, answering 400 when it is not a UUID
func bookID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid book ID")
		return uuid.Nil, false
	}
	return id, true
}
