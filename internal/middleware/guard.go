package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskio/taskio-web/internal/models"
	"github.com/taskio/taskio-web/internal/services"
	"github.com/taskio/taskio-web/pkg/response"
)

const MsgLoginRequired = "Please log in to continue."

// PageGuard redirects to the login page when the session may not enter route.
func PageGuard(route string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sess *models.Session
		if ws := GetWorkspace(c); ws != nil {
			sess = ws.Session
		}
		if !services.CanEnter(sess, route) {
			c.Redirect(http.StatusFound, "/"+services.RouteLogin)
			c.Abort()
			return
		}
		c.Next()
	}
}

// APIGuard answers 401 when there is no session or its role is not listed.
// No roles means any logged-in role.
func APIGuard(roles ...models.Role) gin.HandlerFunc {
	if len(roles) == 0 {
		roles = []models.Role{models.RoleManager, models.RoleMember}
	}
	return func(c *gin.Context) {
		ws := GetWorkspace(c)
		if ws == nil || !services.Allowed(ws.Session, roles) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Response{
				Code:    401,
				Message: MsgLoginRequired,
			})
			return
		}
		c.Next()
	}
}
