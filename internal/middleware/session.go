package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskio/taskio-web/internal/services"
	"github.com/taskio/taskio-web/internal/utils"
	"github.com/taskio/taskio-web/pkg/logger"
)

const ContextWorkspace = "workspace"

// SessionCookie carries the sealed session id.
type SessionCookie struct {
	Name   string
	Secure bool
	sealer *utils.Sealer
}

func NewSessionCookie(name string, secure bool, sealer *utils.Sealer) *SessionCookie {
	return &SessionCookie{Name: name, Secure: secure, sealer: sealer}
}

func (sc *SessionCookie) Set(c *gin.Context, sessionID string) error {
	sealed, err := sc.sealer.Seal(sessionID)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.Name, sealed, 0, "/", "", sc.Secure, true)
	return nil
}

func (sc *SessionCookie) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.Name, "", -1, "/", "", sc.Secure, true)
}

// Read returns the session id in the request cookie, if it opens.
func (sc *SessionCookie) Read(c *gin.Context) (string, bool) {
	raw, err := c.Cookie(sc.Name)
	if err != nil || raw == "" {
		return "", false
	}
	id, err := sc.sealer.Open(raw)
	if err != nil {
		return "", false
	}
	return id, true
}

// Session resolves the cookie to a workspace and stores it in the context.
// Requests without a usable session continue anonymously; guards decide.
func Session(sessions *services.SessionManager, cookie *SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := cookie.Read(c)
		if !ok {
			c.Next()
			return
		}

		ws, err := sessions.Get(c.Request.Context(), id)
		switch {
		case err == nil:
			c.Set(ContextWorkspace, ws)
			c.Set(logger.ContextSessionKey, ws.Session.ID)
		case errors.Is(err, services.ErrNoSession), errors.Is(err, services.ErrSessionExpired):
			cookie.Clear(c)
		default:
			logger.Warn().Err(err).Msg("failed to resolve session")
		}
		c.Next()
	}
}

// Activity restarts the idle countdown of the requesting session.
func Activity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ws := GetWorkspace(c); ws != nil {
			ws.Shell.Touch()
		}
		c.Next()
	}
}

// GetWorkspace returns the session workspace, or nil for anonymous requests.
func GetWorkspace(c *gin.Context) *services.Workspace {
	if v, exists := c.Get(ContextWorkspace); exists {
		if ws, ok := v.(*services.Workspace); ok {
			return ws
		}
	}
	return nil
}
