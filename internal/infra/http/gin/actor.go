package ginserver

import (
	gin "github.com/gin-gonic/gin"

	"stayhub/internal/app/actor"
)

// Identity arrives from the gateway in trusted headers; authentication itself
// lives outside this service.
const (
	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"
)

func actorFrom(c *gin.Context) (actor.Actor, error) {
	role := actor.Role(c.GetHeader(headerUserRole))
	if role == "" {
		role = actor.RoleCustomer
	}
	return actor.New(c.GetHeader(headerUserID), role)
}
